package tutor

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"ai-reading-be/internal/pkg/logger"
	"ai-reading-be/pkg/llm"

	"github.com/patrickmn/go-cache"
)

var _ Service = (*LLMService)(nil)

type LLMOption func(*LLMService)

// WithAnswerTTL bounds how long submitted answers wait for the final evaluation.
func WithAnswerTTL(ttl time.Duration) LLMOption {
	return func(s *LLMService) {
		s.answers = cache.New(ttl, ttl)
	}
}

func WithMaxTokens(n int) LLMOption {
	return func(s *LLMService) {
		s.maxTokens = n
	}
}

// LLMService implements Service on top of any chat model.
type LLMService struct {
	provider  llm.LLMProvider
	log       logger.ILogger
	answers   *cache.Cache
	maxTokens int
}

func NewLLMService(provider llm.LLMProvider, log logger.ILogger, opts ...LLMOption) *LLMService {
	s := &LLMService{
		provider:  provider,
		log:       log,
		answers:   cache.New(2*time.Hour, 10*time.Minute),
		maxTokens: 1024,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LLMService) FetchQuestions(ctx context.Context, topic Topic, count int) ([]string, error) {
	reply, err := s.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt(topic)},
		{Role: "user", Content: questionPrompt(topic, count)},
	}, llm.WithJSON(), llm.WithMaxTokens(s.maxTokens))
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}

	questions, err := parseQuestions(reply, count)
	if err != nil {
		s.log.Warn("Tutor", "Could not parse generated questions", map[string]interface{}{
			"error": err.Error(),
			"reply": truncate(reply, 200),
		})
		return nil, err
	}
	return questions, nil
}

func (s *LLMService) SubmitAnswer(ctx context.Context, sessionID string, questionIndex int, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.answers.SetDefault(answerKey(sessionID, questionIndex), text)
	return nil
}

func (s *LLMService) EvaluateSession(ctx context.Context, sessionID string, batch Batch) (*Evaluation, error) {
	answers := make([]string, len(batch.Questions))
	for i := range answers {
		if i < len(batch.Answers) && strings.TrimSpace(batch.Answers[i]) != "" {
			answers[i] = batch.Answers[i]
		} else if buffered, ok := s.answers.Get(answerKey(sessionID, i)); ok {
			answers[i] = buffered.(string)
		}
		s.answers.Delete(answerKey(sessionID, i))
	}
	batch.Answers = answers

	reply, err := s.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt(batch.Topic)},
		{Role: "user", Content: evaluationPrompt(batch)},
	}, llm.WithJSON(), llm.WithTemperature(0.2), llm.WithMaxTokens(s.maxTokens))
	if err != nil {
		return nil, fmt.Errorf("evaluate session %s: %w", sessionID, err)
	}

	eval, err := parseEvaluation(reply, len(batch.Questions))
	if err != nil {
		s.log.Warn("Tutor", "Could not parse evaluation", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return nil, err
	}
	return eval, nil
}

func (s *LLMService) RequestAIAction(ctx context.Context, req AIActionRequest) (*AIActionResult, error) {
	if !req.Action.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}
	if len(req.Image) == 0 && strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyRequest
	}

	msg := llm.Message{Role: "user", Content: actionPrompt(req)}
	if len(req.Image) > 0 {
		contentType := req.ContentType
		if contentType == "" {
			contentType = "image/png"
		}
		msg.Images = []llm.Image{{
			ContentType: contentType,
			Data:        base64.StdEncoding.EncodeToString(req.Image),
		}}
	}

	reply, err := s.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt(req.Topic)},
		msg,
	}, llm.WithMaxTokens(s.maxTokens))
	if err != nil {
		return nil, fmt.Errorf("ai action %s: %w", req.Action, err)
	}

	answer, imageRef := splitImageRef(reply)
	if answer == "" && imageRef == "" {
		return nil, fmt.Errorf("%w: empty answer", ErrMalformedResponse)
	}
	return &AIActionResult{Answer: answer, ImageRef: imageRef}, nil
}

func answerKey(sessionID string, questionIndex int) string {
	return fmt.Sprintf("%s:%d", sessionID, questionIndex)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
