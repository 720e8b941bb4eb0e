package assessment

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"ai-reading-be/internal/pkg/logger"
	"ai-reading-be/pkg/speech"
	"ai-reading-be/pkg/tutor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTutor struct {
	questions   []string
	fetchErr    error
	evaluation  *tutor.Evaluation
	evalErr     error
	submitErr   error
	submitted   []string
	evaluated   *tutor.Batch
	onEvaluate  func()
	fetchCalled int
}

func (f *fakeTutor) FetchQuestions(_ context.Context, _ tutor.Topic, _ int) ([]string, error) {
	f.fetchCalled++
	return f.questions, f.fetchErr
}

func (f *fakeTutor) SubmitAnswer(_ context.Context, _ string, _ int, text string) error {
	f.submitted = append(f.submitted, text)
	return f.submitErr
}

func (f *fakeTutor) EvaluateSession(_ context.Context, _ string, batch tutor.Batch) (*tutor.Evaluation, error) {
	f.evaluated = &batch
	if f.onEvaluate != nil {
		f.onEvaluate()
	}
	return f.evaluation, f.evalErr
}

func (f *fakeTutor) RequestAIAction(context.Context, tutor.AIActionRequest) (*tutor.AIActionResult, error) {
	return nil, errors.New("not used")
}

type fakeChannel struct {
	mu          sync.Mutex
	spoken      []string
	starts      int
	stops       int
	resets      int
	releases    int
	cancels     int
	audio       [][]byte
	recognition bool
}

func (c *fakeChannel) Speak(_ context.Context, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spoken = append(c.spoken, text)
}
func (c *fakeChannel) CancelSpeech()              { c.cancels++ }
func (c *fakeChannel) StartRecognition() error    { c.starts++; return nil }
func (c *fakeChannel) StopRecognition() error     { c.stops++; return nil }
func (c *fakeChannel) ResetRecognition()          { c.resets++ }
func (c *fakeChannel) RecognitionSupported() bool { return c.recognition }
func (c *fakeChannel) Release()                   { c.releases++ }
func (c *fakeChannel) PushAudio(chunk []byte, _ string) error {
	c.audio = append(c.audio, chunk)
	return nil
}

type fakeAcquirer struct {
	ch  *fakeChannel
	err error
}

func (a *fakeAcquirer) Acquire(string, speech.Listener) (speech.Channel, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.ch, nil
}

var topic = tutor.Topic{ClassLevel: "8", Subject: "Biology", Chapter: "Cells"}

func newSession(tt *fakeTutor, acq speech.Acquirer, count int, opts ...Option) *Session {
	cfg := DefaultConfig()
	cfg.QuestionCount = count
	opts = append([]Option{WithRand(rand.New(rand.NewPCG(1, 2)))}, opts...)
	return NewSession("sess-1", topic, tt, acq, cfg, opts...)
}

func answer(t *testing.T, s *Session, text string) {
	t.Helper()
	require.NoError(t, s.SetTypedAnswer(text))
	require.NoError(t, s.SubmitAnswer(context.Background()))
}

func TestFallbackQuestionsAndFallbackScore(t *testing.T) {
	tt := &fakeTutor{fetchErr: errors.New("503"), evalErr: errors.New("timeout"), submitErr: errors.New("offline")}
	ch := &fakeChannel{}
	var completed []Snapshot
	s := newSession(tt, &fakeAcquirer{ch: ch}, 3, WithCompletionHook(func(_ context.Context, snap Snapshot) error {
		completed = append(completed, snap)
		return nil
	}))

	require.NoError(t, s.Start(context.Background(), Capabilities{}))

	snap := s.Snapshot()
	assert.Equal(t, PhaseAwaitingAnswer, snap.Phase)
	assert.True(t, snap.FallbackQuestions)
	assert.Len(t, snap.Questions, 3)
	assert.Equal(t, InputTyped, snap.InputMode)
	assert.Equal(t, noticeNoVoice, snap.Notice)

	for i, text := range []string{"the main idea", "a nucleus", "cells divide"} {
		snap := s.Snapshot()
		assert.Equal(t, i, snap.CurrentIndex)
		assert.Len(t, snap.Answers, snap.CurrentIndex)
		answer(t, s, text)
	}

	snap = s.Snapshot()
	assert.Equal(t, PhaseComplete, snap.Phase)
	require.NotNil(t, snap.Result)
	assert.True(t, snap.Result.Fallback)
	assert.GreaterOrEqual(t, snap.Result.Score, 60)
	assert.LessOrEqual(t, snap.Result.Score, 100)
	assert.NotEmpty(t, snap.Result.Feedback)
	assert.Len(t, snap.Answers, 3)

	assert.Equal(t, []string{"the main idea", "a nucleus", "cells divide"}, tt.submitted)
	require.NotNil(t, tt.evaluated)
	assert.Equal(t, []string{"the main idea", "a nucleus", "cells divide"}, tt.evaluated.Answers)

	require.Len(t, completed, 1)
	assert.Equal(t, PhaseComplete, completed[0].Phase)

	require.Len(t, ch.spoken, 4)
	assert.Equal(t, snap.Questions[0], ch.spoken[0])
	assert.Contains(t, ch.spoken[3], "You scored")

	s.Close()
	s.Close()
	assert.Equal(t, 1, ch.releases)
}

func TestEvaluationResultIsUsed(t *testing.T) {
	tt := &fakeTutor{
		questions:  []string{"What is a cell?"},
		evaluation: &tutor.Evaluation{Score: 85, Feedback: "Nice.", Breakdown: []tutor.QuestionScore{{QuestionIndex: 0, Score: 85}}},
	}
	s := newSession(tt, nil, 1)

	require.NoError(t, s.Start(context.Background(), Capabilities{BrowserRecognition: true}))
	answer(t, s, "the unit of life")

	snap := s.Snapshot()
	require.NotNil(t, snap.Result)
	assert.False(t, snap.Result.Fallback)
	assert.Equal(t, 85, snap.Result.Score)
	assert.Equal(t, "Nice.", snap.Result.Feedback)
	assert.Len(t, snap.Result.Breakdown, 1)
	assert.False(t, snap.FallbackQuestions)
}

func TestSubmitRejectsEmptyTranscript(t *testing.T) {
	s := newSession(&fakeTutor{questions: []string{"q1", "q2"}}, nil, 2)
	require.NoError(t, s.Start(context.Background(), Capabilities{}))

	assert.ErrorIs(t, s.SubmitAnswer(context.Background()), ErrEmptyAnswer)
	require.NoError(t, s.SetTypedAnswer("   "))
	assert.ErrorIs(t, s.SubmitAnswer(context.Background()), ErrEmptyAnswer)

	snap := s.Snapshot()
	assert.Equal(t, 0, snap.CurrentIndex)
	assert.Empty(t, snap.Answers)
}

func TestOnlyFinalResultsFormTheAnswer(t *testing.T) {
	ch := &fakeChannel{}
	tt := &fakeTutor{questions: []string{"q1", "q2"}}
	s := newSession(tt, &fakeAcquirer{ch: ch}, 2)
	require.NoError(t, s.Start(context.Background(), Capabilities{BrowserRecognition: true}))
	assert.Equal(t, InputVoice, s.Snapshot().InputMode)

	require.NoError(t, s.StartListening())
	s.OnRecognitionResult("mito", false)
	assert.Equal(t, "mito", s.Snapshot().Interim)
	s.OnRecognitionResult("mitochondria", true)
	require.NoError(t, s.StopListening())

	require.NoError(t, s.StartListening())
	s.OnRecognitionResult("make energy", true)
	s.OnRecognitionResult("and", false)
	s.OnRecognitionEnd()

	snap := s.Snapshot()
	assert.Equal(t, RecognitionIdle, snap.Recognition)
	assert.Equal(t, "mitochondria make energy", snap.Transcript)

	require.NoError(t, s.SubmitAnswer(context.Background()))
	assert.Equal(t, []string{"mitochondria make energy"}, tt.submitted)

	s.OnRecognitionResult("late result", true)
	assert.Empty(t, s.Snapshot().Transcript)
	assert.Equal(t, 0, ch.starts, "browser recognition never touches the device recognizer")
}

func TestListeningRefusedWhileSpeaking(t *testing.T) {
	s := newSession(&fakeTutor{questions: []string{"q1"}}, &fakeAcquirer{ch: &fakeChannel{}}, 1)
	require.NoError(t, s.Start(context.Background(), Capabilities{BrowserRecognition: true}))

	s.OnSpeechStart()
	assert.ErrorIs(t, s.StartListening(), ErrSpeaking)

	s.OnSpeechEnd()
	assert.NoError(t, s.StartListening())
	assert.Equal(t, RecognitionListening, s.Snapshot().Recognition)
}

func TestPermissionDeniedFallsBackToTyping(t *testing.T) {
	ch := &fakeChannel{recognition: true}
	s := newSession(&fakeTutor{questions: []string{"q1"}}, &fakeAcquirer{ch: ch}, 1)
	require.NoError(t, s.Start(context.Background(), Capabilities{AudioCapture: true}))

	require.NoError(t, s.StartListening())
	assert.Equal(t, 1, ch.starts)
	require.NoError(t, s.PushAudio([]byte("chunk"), "audio/webm"))

	s.OnRecognitionError(speech.ErrorNotAllowed)

	snap := s.Snapshot()
	assert.Equal(t, InputTyped, snap.InputMode)
	assert.Equal(t, noticePermissionDenied, snap.Notice)
	assert.Equal(t, RecognitionIdle, snap.Recognition)
	assert.Equal(t, 1, ch.resets)
	assert.ErrorIs(t, s.StartListening(), ErrTypedInput)

	answer(t, s, "typed instead")
	assert.Equal(t, PhaseComplete, s.Snapshot().Phase)
}

func TestOtherRecognitionErrorsAllowRetry(t *testing.T) {
	s := newSession(&fakeTutor{questions: []string{"q1"}}, &fakeAcquirer{ch: &fakeChannel{}}, 1)
	require.NoError(t, s.Start(context.Background(), Capabilities{BrowserRecognition: true}))

	require.NoError(t, s.StartListening())
	s.OnRecognitionError(speech.ErrorNoSpeech)

	snap := s.Snapshot()
	assert.Equal(t, RecognitionError, snap.Recognition)
	assert.Equal(t, speech.ErrorNoSpeech, snap.RecognitionCode)
	assert.Equal(t, InputVoice, snap.InputMode)

	require.NoError(t, s.StartListening())
	assert.Equal(t, RecognitionListening, s.Snapshot().Recognition)
}

func TestServerCaptureStopsBeforeSubmit(t *testing.T) {
	ch := &fakeChannel{recognition: true}
	s := newSession(&fakeTutor{questions: []string{"q1", "q2"}}, &fakeAcquirer{ch: ch}, 2)
	require.NoError(t, s.Start(context.Background(), Capabilities{AudioCapture: true}))

	require.NoError(t, s.StartListening())
	require.NoError(t, s.StopListening())
	s.OnRecognitionResult("osmosis", true)
	s.OnRecognitionEnd()
	assert.Equal(t, "osmosis", s.Snapshot().Transcript)

	require.NoError(t, s.SubmitAnswer(context.Background()))
	assert.Equal(t, 1, ch.stops)
	assert.Equal(t, 1, ch.resets)
	assert.Equal(t, 1, s.Snapshot().CurrentIndex)
}

// dispatchQueue holds device work until the test runs it.
type dispatchQueue struct {
	mu   sync.Mutex
	jobs []func()
}

func (q *dispatchQueue) dispatch(f func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, f)
}

func (q *dispatchQueue) run() {
	for {
		q.mu.Lock()
		if len(q.jobs) == 0 {
			q.mu.Unlock()
			return
		}
		job := q.jobs[0]
		q.jobs = q.jobs[1:]
		q.mu.Unlock()
		job()
	}
}

type cannedTranscriber map[string]string

func (c cannedTranscriber) Transcribe(_ context.Context, audio speech.Audio) (string, error) {
	return c[string(audio.Content)], nil
}

func recordRun(t *testing.T, s *Session, audio string) {
	t.Helper()
	require.NoError(t, s.StartListening())
	require.NoError(t, s.PushAudio([]byte(audio), "audio/webm"))
	require.NoError(t, s.StopListening())
}

func TestServerCaptureKeepsEarlierRunsWhenRestarted(t *testing.T) {
	q := &dispatchQueue{}
	dev := speech.NewDevice(nil, cannedTranscriber{"aaa": "first half", "bbb": "second half", "ccc": "too late"},
		nil, logger.NewNopLogger(), speech.WithDispatcher(q.dispatch))
	tt := &fakeTutor{questions: []string{"q1", "q2"}}
	s := newSession(tt, dev, 2)
	require.NoError(t, s.Start(context.Background(), Capabilities{AudioCapture: true}))
	q.run()
	require.Equal(t, InputVoice, s.Snapshot().InputMode)

	recordRun(t, s, "aaa")
	// the first transcription is still queued when the learner speaks again
	recordRun(t, s, "bbb")
	q.run()

	snap := s.Snapshot()
	assert.Equal(t, "first half second half", snap.Transcript)
	assert.Equal(t, RecognitionIdle, snap.Recognition)

	recordRun(t, s, "ccc")
	require.NoError(t, s.SubmitAnswer(context.Background()))
	assert.Equal(t, []string{"first half second half"}, tt.submitted)

	q.run()
	snap = s.Snapshot()
	assert.Equal(t, 1, snap.CurrentIndex)
	assert.Empty(t, snap.Transcript)
}

func TestServerCaptureResultArrivesWhileListeningAgain(t *testing.T) {
	q := &dispatchQueue{}
	dev := speech.NewDevice(nil, cannedTranscriber{"aaa": "osmosis"},
		nil, logger.NewNopLogger(), speech.WithDispatcher(q.dispatch))
	s := newSession(&fakeTutor{questions: []string{"q1"}}, dev, 1)
	require.NoError(t, s.Start(context.Background(), Capabilities{AudioCapture: true}))
	q.run()

	recordRun(t, s, "aaa")
	require.NoError(t, s.StartListening())
	q.run()

	snap := s.Snapshot()
	assert.Equal(t, "osmosis", snap.Transcript)
	assert.Equal(t, RecognitionListening, snap.Recognition)
}

func TestBusyDeviceForcesTypedInput(t *testing.T) {
	s := newSession(&fakeTutor{questions: []string{"q1"}}, &fakeAcquirer{err: speech.ErrBusy}, 1)
	require.NoError(t, s.Start(context.Background(), Capabilities{BrowserRecognition: true}))

	snap := s.Snapshot()
	assert.Equal(t, InputTyped, snap.InputMode)
	assert.Equal(t, noticeBusy, snap.Notice)
}

func TestCancelDiscardsAndReleasesOnce(t *testing.T) {
	ch := &fakeChannel{}
	var completed int
	s := newSession(&fakeTutor{questions: []string{"q1", "q2"}}, &fakeAcquirer{ch: ch}, 2,
		WithCompletionHook(func(context.Context, Snapshot) error { completed++; return nil }))
	require.NoError(t, s.Start(context.Background(), Capabilities{}))
	answer(t, s, "first")

	assert.True(t, s.Cancel())
	assert.False(t, s.Cancel())
	s.Close()

	snap := s.Snapshot()
	assert.Equal(t, PhaseCancelled, snap.Phase)
	assert.Empty(t, snap.Answers)
	assert.Nil(t, snap.Result)
	assert.Equal(t, 1, ch.releases)
	assert.Equal(t, 1, ch.cancels)
	assert.Zero(t, completed)
	assert.ErrorIs(t, s.SubmitAnswer(context.Background()), ErrNotAwaiting)
}

func TestCancelDuringEvaluationWins(t *testing.T) {
	ch := &fakeChannel{}
	tt := &fakeTutor{questions: []string{"q1"}, evaluation: &tutor.Evaluation{Score: 90, Feedback: "ok"}}
	var completed int
	s := newSession(tt, &fakeAcquirer{ch: ch}, 1,
		WithCompletionHook(func(context.Context, Snapshot) error { completed++; return nil }))
	tt.onEvaluate = func() { s.Cancel() }

	require.NoError(t, s.Start(context.Background(), Capabilities{}))
	require.NoError(t, s.SetTypedAnswer("answer"))

	assert.ErrorIs(t, s.SubmitAnswer(context.Background()), ErrCancelled)
	assert.Equal(t, PhaseCancelled, s.Snapshot().Phase)
	assert.Zero(t, completed)
	assert.Equal(t, 1, ch.releases)
}

func TestStartTwice(t *testing.T) {
	tt := &fakeTutor{questions: []string{"q1"}}
	s := newSession(tt, nil, 1)
	require.NoError(t, s.Start(context.Background(), Capabilities{}))
	assert.ErrorIs(t, s.Start(context.Background(), Capabilities{}), ErrAlreadyStarted)
	assert.Equal(t, 1, tt.fetchCalled)
}

func TestFallbackQuestions(t *testing.T) {
	qs := FallbackQuestions(topic, 8)
	require.Len(t, qs, 8)
	assert.Equal(t, "What is the main idea of Cells?", qs[0])
	assert.Equal(t, qs[0], qs[6])
	assert.Equal(t, qs, FallbackQuestions(topic, 8))

	assert.Len(t, FallbackQuestions(tutor.Topic{}, 0), 1)
	assert.Contains(t, FallbackQuestions(tutor.Topic{}, 1)[0], "this section")
}

func TestFallbackScoreStaysInRange(t *testing.T) {
	for seed := range uint64(50) {
		tt := &fakeTutor{questions: []string{"q"}, evalErr: errors.New("down")}
		cfg := DefaultConfig()
		cfg.QuestionCount = 1
		s := NewSession("s", topic, tt, nil, cfg, WithRand(rand.New(rand.NewPCG(seed, seed))))
		require.NoError(t, s.Start(context.Background(), Capabilities{}))
		answer(t, s, "x")

		score := s.Snapshot().Result.Score
		assert.GreaterOrEqual(t, score, 60)
		assert.LessOrEqual(t, score, 100)
	}
}
