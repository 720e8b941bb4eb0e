package openai

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"ai-reading-be/pkg/speech"

	"github.com/openai/openai-go/v3"
)

var _ speech.Transcriber = (*Transcriber)(nil)

type Transcriber struct {
	*Config
	client openai.Client
}

func NewTranscriber(url, model string, options ...Option) (*Transcriber, error) {
	cfg := &Config{
		url:   url,
		model: model,
	}

	for _, option := range options {
		option(cfg)
	}

	return &Transcriber{
		Config: cfg,
		client: cfg.newClient(),
	}, nil
}

func (t *Transcriber) Transcribe(ctx context.Context, audio speech.Audio) (string, error) {
	transcription, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(t.model),

		File: openai.File(bytes.NewReader(audio.Content), audio.Name, audio.ContentType),

		ResponseFormat: openai.AudioResponseFormatJSON,
	})

	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}

	return strings.TrimSpace(transcription.Text), nil
}
