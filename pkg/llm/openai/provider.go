package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ai-reading-be/pkg/llm"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

var _ llm.LLMProvider = (*Provider)(nil)

// Provider talks to any OpenAI compatible chat completions endpoint.
type Provider struct {
	model  string
	client openai.Client
}

func NewProvider(baseURL, token, model string) *Provider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1/"
	}

	options := []option.RequestOption{
		option.WithBaseURL(strings.TrimRight(baseURL, "/") + "/"),
		option.WithHTTPClient(http.DefaultClient),
	}

	if token != "" {
		options = append(options, option.WithAPIKey(token))
	}

	return &Provider{
		model:  model,
		client: openai.NewClient(options...),
	}
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := &llm.Options{
		Temperature: 0.7,
	}
	for _, opt := range opts {
		opt(options)
	}

	model := p.model
	if options.Model != "" {
		model = options.Model
	}

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: convertMessages(history),
	}

	if options.Temperature > 0 {
		params.Temperature = openai.Float(options.Temperature)
	}

	if options.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(options.MaxTokens))
	}

	if options.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apierr *openai.Error
		if errors.As(err, &apierr) {
			return "", fmt.Errorf("openai error: status %d: %w", apierr.StatusCode, err)
		}
		return "", fmt.Errorf("openai request failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}

	return completion.Choices[0].Message.Content, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

func convertMessages(history []llm.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))

	for _, m := range history {
		switch m.Role {
		case "system":
			result = append(result, openai.SystemMessage(m.Content))

		case "assistant", "model":
			result = append(result, openai.AssistantMessage(m.Content))

		default:
			if len(m.Images) == 0 {
				result = append(result, openai.UserMessage(m.Content))
				continue
			}

			parts := []openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(m.Content),
			}

			for _, img := range m.Images {
				parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: "data:" + img.ContentType + ";base64," + img.Data,
				}))
			}

			result = append(result, openai.UserMessage(parts))
		}
	}

	return result
}
