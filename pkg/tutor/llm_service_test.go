package tutor

import (
	"context"
	"errors"
	"testing"

	"ai-reading-be/internal/pkg/logger"
	"ai-reading-be/pkg/annotation"
	"ai-reading-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	reply   string
	err     error
	history []llm.Message
	opts    llm.Options
}

func (f *fakeProvider) Chat(_ context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	f.history = history
	f.opts = llm.Options{}
	for _, opt := range opts {
		opt(&f.opts)
	}
	return f.reply, f.err
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

var cells = Topic{ClassLevel: "8", Subject: "Biology", Chapter: "Cells"}

func TestFetchQuestions(t *testing.T) {
	p := &fakeProvider{reply: "Sure!\n{\"questions\": [\"What is a cell?\", \"  \", \"Name an organelle.\", \"Why divide?\"]}"}
	s := NewLLMService(p, logger.NewNopLogger())

	questions, err := s.FetchQuestions(context.Background(), cells, 2)

	require.NoError(t, err)
	assert.Equal(t, []string{"What is a cell?", "Name an organelle."}, questions)
	assert.True(t, p.opts.JSON)
	assert.Contains(t, p.history[1].Content, "Write 2 short oral quiz questions")
	assert.Contains(t, p.history[0].Content, "Biology")
}

func TestFetchQuestionsFailures(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
		want  error
	}{
		{name: "provider down", err: errors.New("connection refused")},
		{name: "no json", reply: "I cannot help", want: ErrMalformedResponse},
		{name: "empty list", reply: `{"questions": []}`, want: ErrNoQuestions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewLLMService(&fakeProvider{reply: tt.reply, err: tt.err}, logger.NewNopLogger())
			_, err := s.FetchQuestions(context.Background(), cells, 3)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestEvaluateSessionUsesBufferedAnswers(t *testing.T) {
	p := &fakeProvider{reply: `{"score": 140, "feedback": " Good work. ", "breakdown": [{"question_index": 0, "score": -5}, {"question_index": 7, "score": 50}]}`}
	s := NewLLMService(p, logger.NewNopLogger())
	ctx := context.Background()

	require.NoError(t, s.SubmitAnswer(ctx, "sess", 1, "buffered answer"))

	eval, err := s.EvaluateSession(ctx, "sess", Batch{
		Topic:     cells,
		Questions: []string{"q0", "q1"},
		Answers:   []string{"first answer"},
	})

	require.NoError(t, err)
	assert.Equal(t, 100, eval.Score)
	assert.Equal(t, "Good work.", eval.Feedback)
	require.Len(t, eval.Breakdown, 1)
	assert.Equal(t, 0, eval.Breakdown[0].Score)
	assert.Contains(t, p.history[1].Content, "Answer 0: first answer")
	assert.Contains(t, p.history[1].Content, "Answer 1: buffered answer")

	_, found := s.answers.Get(answerKey("sess", 1))
	assert.False(t, found)
}

func TestEvaluateSessionSurfacesProviderError(t *testing.T) {
	s := NewLLMService(&fakeProvider{err: errors.New("503")}, logger.NewNopLogger())
	_, err := s.EvaluateSession(context.Background(), "sess", Batch{Questions: []string{"q"}})
	assert.Error(t, err)
}

func TestRequestAIAction(t *testing.T) {
	p := &fakeProvider{reply: "A cell is the smallest unit of life.\n![cell](https://example.org/cell.png)"}
	s := NewLLMService(p, logger.NewNopLogger())

	res, err := s.RequestAIAction(context.Background(), AIActionRequest{
		Image:  []byte{0x89, 'P', 'N', 'G'},
		Action: annotation.ActionVisualize,
		Topic:  cells,
	})

	require.NoError(t, err)
	assert.Equal(t, "A cell is the smallest unit of life.", res.Answer)
	assert.Equal(t, "https://example.org/cell.png", res.ImageRef)
	require.Len(t, p.history[1].Images, 1)
	assert.Equal(t, "image/png", p.history[1].Images[0].ContentType)
	assert.Equal(t, "iVBORw==", p.history[1].Images[0].Data)
}

func TestRequestAIActionValidates(t *testing.T) {
	s := NewLLMService(&fakeProvider{reply: "x"}, logger.NewNopLogger())
	ctx := context.Background()

	_, err := s.RequestAIAction(ctx, AIActionRequest{Text: "cell", Action: "dance"})
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = s.RequestAIAction(ctx, AIActionRequest{Text: "  ", Action: annotation.ActionDefine})
	assert.ErrorIs(t, err, ErrEmptyRequest)
}
