package tutor

import (
	"context"
	"errors"

	"ai-reading-be/pkg/annotation"
)

var (
	ErrNoQuestions       = errors.New("tutor returned no questions")
	ErrEmptyRequest      = errors.New("ai action needs an image or text")
	ErrUnknownAction     = errors.New("unknown ai action")
	ErrMalformedResponse = errors.New("malformed tutor response")
	ErrRateLimited       = errors.New("too many ai requests, slow down")
)

// Topic scopes generated content to a point in the curriculum.
type Topic struct {
	ClassLevel string `json:"class_level"`
	Subject    string `json:"subject"`
	Chapter    string `json:"chapter"`
}

type Batch struct {
	Topic     Topic
	Questions []string
	Answers   []string
}

type QuestionScore struct {
	QuestionIndex int    `json:"question_index"`
	Score         int    `json:"score"`
	Feedback      string `json:"feedback"`
}

type Evaluation struct {
	Score     int             `json:"score"`
	Feedback  string          `json:"feedback"`
	Breakdown []QuestionScore `json:"breakdown"`
}

type AIActionRequest struct {
	Image       []byte
	ContentType string
	Text        string
	Action      annotation.Action
	Topic       Topic
}

type AIActionResult struct {
	Answer   string `json:"answer"`
	ImageRef string `json:"image_ref,omitempty"`
}

// Service is the remote tutor the reading engines depend on. Every call may fail;
// callers own the fallback behaviour.
type Service interface {
	FetchQuestions(ctx context.Context, topic Topic, count int) ([]string, error)
	SubmitAnswer(ctx context.Context, sessionID string, questionIndex int, text string) error
	EvaluateSession(ctx context.Context, sessionID string, batch Batch) (*Evaluation, error)
	RequestAIAction(ctx context.Context, req AIActionRequest) (*AIActionResult, error)
}
