package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-reading-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatSendsImagesAsContentParts(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","created":0,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"A cell is the smallest unit of life."}}]}`))
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, "sk-test", "gpt-4o-mini")
	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: "system", Content: "tutor"},
		{Role: "user", Content: "explain", Images: []llm.Image{{ContentType: "image/png", Data: "AAAA"}}},
	}, llm.WithJSON(), llm.WithMaxTokens(64))

	require.NoError(t, err)
	assert.Equal(t, "A cell is the smallest unit of life.", out)
	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.EqualValues(t, 64, got["max_completion_tokens"])
	assert.Equal(t, map[string]interface{}{"type": "json_object"}, got["response_format"])

	messages := got["messages"].([]interface{})
	require.Len(t, messages, 2)
	parts := messages[1].(map[string]interface{})["content"].([]interface{})
	require.Len(t, parts, 2)
	image := parts[1].(map[string]interface{})["image_url"].(map[string]interface{})
	assert.Equal(t, "data:image/png;base64,AAAA", image["url"])
}

func TestChatSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"unknown model","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := NewProvider(srv.URL, "", "missing").Generate(context.Background(), "hi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}
