package factory

import (
	"testing"

	"ai-reading-be/pkg/llm/ollama"
	"ai-reading-be/pkg/llm/openai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	p, err := NewLLMProvider("ollama", "llava", "", "")
	require.NoError(t, err)
	o, ok := p.(*ollama.OllamaProvider)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:11434", o.BaseURL)

	p, err = NewLLMProvider("openai", "gpt-4o-mini", "", "sk-test")
	require.NoError(t, err)
	assert.IsType(t, &openai.Provider{}, p)

	_, err = NewLLMProvider("bard", "x", "", "")
	assert.Error(t, err)
}
