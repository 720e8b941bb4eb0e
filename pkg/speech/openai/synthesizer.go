package openai

import (
	"context"
	"fmt"
	"io"

	"ai-reading-be/pkg/speech"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
)

var _ speech.Synthesizer = (*Synthesizer)(nil)

type Synthesizer struct {
	*Config
	client openai.Client
}

func NewSynthesizer(url, model string, options ...Option) (*Synthesizer, error) {
	cfg := &Config{
		url:   url,
		model: model,
		voice: string(openai.AudioSpeechNewParamsVoiceAlloy),
	}

	for _, option := range options {
		option(cfg)
	}

	return &Synthesizer{
		Config: cfg,
		client: cfg.newClient(),
	}, nil
}

func (s *Synthesizer) Synthesize(ctx context.Context, text string) (*speech.Clip, error) {
	result, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model: openai.SpeechModel(s.model),
		Input: text,

		Voice: openai.AudioSpeechNewParamsVoice(s.voice),

		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})

	if err != nil {
		return nil, fmt.Errorf("openai speech: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)

	if err != nil {
		return nil, err
	}

	return &speech.Clip{
		ID:   uuid.NewString(),
		Text: text,

		Audio:       data,
		ContentType: "audio/mpeg",
	}, nil
}
