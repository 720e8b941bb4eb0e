package ollama

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

func TestChatSendsImagesAndFormat(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(ollamaChatResponse{Message: ollamaMessage{Role: "assistant", Content: "a cell is..."}, Done: true})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llava")
	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: "system", Content: "tutor"},
		{Role: "model", Content: "hi", Images: []llm.Image{{ContentType: "image/png", Data: "AAAA"}}},
	}, llm.WithJSON(), llm.WithMaxTokens(64))

	require.NoError(t, err)
	assert.Equal(t, "a cell is...", out)
	assert.Equal(t, "llava", got.Model)
	assert.Equal(t, "json", got.Format)
	assert.Equal(t, 64, got.Options.NumPredict)
	assert.Equal(t, "assistant", got.Messages[1].Role)
	assert.Equal(t, []string{"AAAA"}, got.Messages[1].Images)
}

func TestChatSurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "missing").Generate(context.Background(), "hi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestPingFindsInstalledModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.Write([]byte(`{"models":[{"name":"llava:latest"},{"name":"gemma:2b"}]}`))
	}))
	defer srv.Close()

	assert.NoError(t, NewOllamaProvider(srv.URL+"/", "llava").Ping(context.Background()))
	assert.NoError(t, NewOllamaProvider(srv.URL, "gemma:2b").Ping(context.Background()))

	err := NewOllamaProvider(srv.URL, "mistral").Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not installed")
}
