package assessment

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"ai-reading-be/internal/pkg/logger"
	"ai-reading-be/pkg/speech"
	"ai-reading-be/pkg/tutor"
)

var (
	ErrAlreadyStarted = errors.New("assessment already started")
	ErrNotAwaiting    = errors.New("assessment is not waiting for an answer")
	ErrEmptyAnswer    = errors.New("answer is empty")
	ErrSpeaking       = errors.New("cannot listen while a question is being read out")
	ErrTypedInput     = errors.New("session uses typed input")
	ErrCancelled      = errors.New("assessment was cancelled")
)

const (
	noticeNoVoice          = "Voice input is not available here. Type your answers instead."
	noticeBusy             = "Voice is in use by another session. Type your answers instead."
	noticePermissionDenied = "Microphone access was denied. Type your answer instead."
)

type Config struct {
	QuestionCount    int
	FallbackScoreMin int
	FallbackScoreMax int
	RequestTimeout   time.Duration
}

func DefaultConfig() Config {
	return Config{
		QuestionCount:    5,
		FallbackScoreMin: 60,
		FallbackScoreMax: 100,
		RequestTimeout:   30 * time.Second,
	}
}

// CompletionHook runs once after a session reaches PhaseComplete.
type CompletionHook func(ctx context.Context, snap Snapshot) error

type Option func(*Session)

func WithOwner(userID string) Option {
	return func(s *Session) { s.owner = userID }
}

// WithSource records which pages of which document the session covers.
func WithSource(documentID string, fromPage, toPage int) Option {
	return func(s *Session) {
		s.documentID = documentID
		s.fromPage = fromPage
		s.toPage = toPage
	}
}

// WithRand sets the source of fallback scores.
func WithRand(rng *rand.Rand) Option {
	return func(s *Session) { s.rng = rng }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithLogger(log logger.ILogger) Option {
	return func(s *Session) { s.log = log }
}

func WithCompletionHook(hook CompletionHook) Option {
	return func(s *Session) { s.onComplete = hook }
}

// WithChangeHook is called with a fresh snapshot after every state change. It must not
// call back into the session synchronously.
func WithChangeHook(hook func(Snapshot)) Option {
	return func(s *Session) { s.onChange = hook }
}

// Session runs one question, answer and evaluate cycle.
type Session struct {
	mu sync.Mutex

	id         string
	owner      string
	documentID string
	fromPage   int
	toPage     int
	topic      tutor.Topic
	cfg        Config

	tutor      tutor.Service
	acquirer   speech.Acquirer
	rng        *rand.Rand
	now        func() time.Time
	log        logger.ILogger
	onComplete CompletionHook
	onChange   func(Snapshot)

	started           bool
	phase             Phase
	questions         []string
	fallbackQuestions bool
	current           int
	answers           []Answer
	finalized         []string
	interim           string
	recognition       RecognitionState
	recognitionCode   string
	pendingRuns       int
	synthesis         SynthesisState
	inputMode         InputMode
	serverCapture     bool
	notice            string
	result            *Result
	startedAt         time.Time

	channel speech.Channel
}

var _ speech.Listener = (*Session)(nil)

func NewSession(id string, topic tutor.Topic, svc tutor.Service, acquirer speech.Acquirer, cfg Config, opts ...Option) *Session {
	if cfg.QuestionCount < 1 {
		cfg.QuestionCount = DefaultConfig().QuestionCount
	}
	if cfg.FallbackScoreMax < cfg.FallbackScoreMin {
		cfg.FallbackScoreMin, cfg.FallbackScoreMax = cfg.FallbackScoreMax, cfg.FallbackScoreMin
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}

	s := &Session{
		id:          id,
		topic:       topic,
		cfg:         cfg,
		tutor:       svc,
		acquirer:    acquirer,
		now:         time.Now,
		log:         logger.NewNopLogger(),
		phase:       PhaseLoading,
		recognition: RecognitionIdle,
		synthesis:   SynthesisIdle,
		inputMode:   InputTyped,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		seed := uint64(s.now().UnixNano())
		s.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Start acquires the speech device, loads the questions and reads out the first one.
// Question generation failures are replaced by local fallback questions.
func (s *Session) Start(ctx context.Context, caps Capabilities) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.startedAt = s.now()
	s.mu.Unlock()

	var (
		ch     speech.Channel
		notice string
	)
	if s.acquirer != nil {
		var err error
		ch, err = s.acquirer.Acquire(s.id, s)
		if err != nil {
			notice = noticeNoVoice
			if errors.Is(err, speech.ErrBusy) {
				notice = noticeBusy
			}
			s.log.Warn("Assessment", "Speech device unavailable, using typed input", map[string]interface{}{
				"session_id": s.id,
				"error":      err.Error(),
			})
			ch = nil
		}
	} else {
		notice = noticeNoVoice
	}

	mode, serverCapture := InputTyped, false
	if ch != nil {
		switch {
		case caps.BrowserRecognition:
			mode = InputVoice
		case caps.AudioCapture && ch.RecognitionSupported():
			mode, serverCapture = InputVoice, true
		default:
			notice = noticeNoVoice
		}
	}

	s.mu.Lock()
	if s.phase == PhaseCancelled {
		s.mu.Unlock()
		if ch != nil {
			ch.Release()
		}
		return ErrCancelled
	}
	s.channel = ch
	s.inputMode = mode
	s.serverCapture = serverCapture
	s.notice = notice
	s.mu.Unlock()

	fctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	questions, err := s.tutor.FetchQuestions(fctx, s.topic, s.cfg.QuestionCount)
	cancel()

	fallback := false
	if err != nil || len(questions) == 0 {
		if err == nil {
			err = tutor.ErrNoQuestions
		}
		s.log.Warn("Assessment", "Question fetch failed, using fallback questions", map[string]interface{}{
			"session_id": s.id,
			"error":      err.Error(),
		})
		questions = FallbackQuestions(s.topic, s.cfg.QuestionCount)
		fallback = true
	}

	s.mu.Lock()
	if s.phase != PhaseLoading {
		s.mu.Unlock()
		return ErrCancelled
	}
	s.questions = questions
	s.fallbackQuestions = fallback
	s.phase = PhaseAwaitingAnswer
	s.current = 0
	first := questions[0]
	ch = s.channel
	s.mu.Unlock()

	s.log.Info("Assessment", "Session started", map[string]interface{}{
		"session_id": s.id,
		"questions":  len(questions),
		"fallback":   fallback,
		"input_mode": string(mode),
	})

	s.say(ctx, ch, first)
	s.changed()
	return nil
}

func (s *Session) StartListening() error {
	s.mu.Lock()
	switch {
	case s.phase != PhaseAwaitingAnswer:
		s.mu.Unlock()
		return ErrNotAwaiting
	case s.inputMode == InputTyped:
		s.mu.Unlock()
		return ErrTypedInput
	case s.synthesis == SynthesisSpeaking:
		s.mu.Unlock()
		return ErrSpeaking
	case s.recognition == RecognitionListening:
		s.mu.Unlock()
		return nil
	}
	s.recognition = RecognitionListening
	s.recognitionCode = ""
	s.interim = ""
	ch, serverCapture := s.channel, s.serverCapture
	s.mu.Unlock()

	if serverCapture && ch != nil {
		if err := ch.StartRecognition(); err != nil {
			s.mu.Lock()
			s.recognition = RecognitionError
			s.recognitionCode = speech.ErrorAudioCapture
			s.mu.Unlock()
			s.changed()
			return fmt.Errorf("start recognition: %w", err)
		}
	}

	s.changed()
	return nil
}

// StopListening ends the current recognition run. With server side capture the final
// transcript arrives later through OnRecognitionResult, and the learner may start the
// next run before it does.
func (s *Session) StopListening() error {
	s.mu.Lock()
	if s.phase != PhaseAwaitingAnswer {
		s.mu.Unlock()
		return ErrNotAwaiting
	}
	if s.recognition != RecognitionListening {
		s.mu.Unlock()
		return nil
	}
	ch, serverCapture := s.channel, s.serverCapture
	if serverCapture && ch != nil {
		s.pendingRuns++
	}
	s.recognition = RecognitionIdle
	s.interim = ""
	s.mu.Unlock()

	if serverCapture && ch != nil {
		if err := ch.StopRecognition(); err != nil {
			s.mu.Lock()
			if s.pendingRuns > 0 {
				s.pendingRuns--
			}
			s.mu.Unlock()
			s.changed()
			return fmt.Errorf("stop recognition: %w", err)
		}
	}

	s.changed()
	return nil
}

// PushAudio forwards recorded microphone audio to server side recognition.
func (s *Session) PushAudio(chunk []byte, contentType string) error {
	s.mu.Lock()
	if s.phase != PhaseAwaitingAnswer {
		s.mu.Unlock()
		return ErrNotAwaiting
	}
	if !s.serverCapture || s.channel == nil {
		s.mu.Unlock()
		return speech.ErrUnsupported
	}
	ch := s.channel
	s.mu.Unlock()

	return ch.PushAudio(chunk, contentType)
}

// SetTypedAnswer replaces the transcript with typed text.
func (s *Session) SetTypedAnswer(text string) error {
	s.mu.Lock()
	if s.phase != PhaseAwaitingAnswer {
		s.mu.Unlock()
		return ErrNotAwaiting
	}
	s.finalized = []string{text}
	s.interim = ""
	s.mu.Unlock()

	s.changed()
	return nil
}

// SubmitAnswer records the transcript as the answer to the current question and moves on.
// Submitting the last answer evaluates the session before returning.
func (s *Session) SubmitAnswer(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseAwaitingAnswer {
		s.mu.Unlock()
		return ErrNotAwaiting
	}
	text := strings.TrimSpace(strings.Join(s.finalized, " "))
	if text == "" {
		s.mu.Unlock()
		return ErrEmptyAnswer
	}

	ch := s.channel
	resetRecognition := s.serverCapture
	s.recognition = RecognitionIdle
	s.recognitionCode = ""
	s.pendingRuns = 0

	index := s.current
	s.answers = append(s.answers, Answer{QuestionIndex: index, Text: text, Timestamp: s.now()})
	s.current++
	s.finalized = nil
	s.interim = ""

	var next string
	if s.current < len(s.questions) {
		next = s.questions[s.current]
	} else {
		s.phase = PhaseEvaluating
	}
	s.mu.Unlock()

	if resetRecognition && ch != nil {
		ch.ResetRecognition()
	}

	s.forward(ctx, index, text)

	if next != "" {
		s.say(ctx, ch, next)
		s.changed()
		return nil
	}

	s.changed()
	return s.evaluate(ctx)
}

func (s *Session) forward(ctx context.Context, index int, text string) {
	fctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	if err := s.tutor.SubmitAnswer(fctx, s.id, index, text); err != nil {
		s.log.Warn("Assessment", "Answer forwarding failed", map[string]interface{}{
			"session_id":     s.id,
			"question_index": index,
			"error":          err.Error(),
		})
	}
}

func (s *Session) evaluate(ctx context.Context) error {
	s.mu.Lock()
	batch := tutor.Batch{
		Topic:     s.topic,
		Questions: append([]string(nil), s.questions...),
		Answers:   make([]string, len(s.answers)),
	}
	for i, a := range s.answers {
		batch.Answers[i] = a.Text
	}
	s.mu.Unlock()

	ectx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	eval, err := s.tutor.EvaluateSession(ectx, s.id, batch)
	cancel()

	s.mu.Lock()
	if s.phase != PhaseEvaluating {
		s.mu.Unlock()
		return ErrCancelled
	}

	result := &Result{CompletedAt: s.now()}
	if err != nil || eval == nil {
		if err == nil {
			err = errors.New("empty evaluation")
		}
		s.log.Warn("Assessment", "Evaluation failed, using fallback score", map[string]interface{}{
			"session_id": s.id,
			"error":      err.Error(),
		})
		result.Score = s.cfg.FallbackScoreMin + s.rng.IntN(s.cfg.FallbackScoreMax-s.cfg.FallbackScoreMin+1)
		result.Feedback = fallbackFeedback
		result.Fallback = true
	} else {
		result.Score = eval.Score
		result.Feedback = eval.Feedback
		result.Breakdown = append([]tutor.QuestionScore(nil), eval.Breakdown...)
		if result.Feedback == "" {
			result.Feedback = fallbackFeedback
		}
	}

	s.result = result
	s.phase = PhaseComplete
	ch := s.channel
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Info("Assessment", "Session complete", map[string]interface{}{
		"session_id": s.id,
		"score":      result.Score,
		"fallback":   result.Fallback,
	})

	s.say(ctx, ch, fmt.Sprintf("You scored %d out of 100. %s", result.Score, result.Feedback))
	s.changed()

	if s.onComplete != nil {
		if err := s.onComplete(context.WithoutCancel(ctx), snap); err != nil {
			s.log.Error("Assessment", "Completion hook failed", map[string]interface{}{
				"session_id": s.id,
				"error":      err.Error(),
			})
		}
	}
	return nil
}

// Cancel discards the session from any non-terminal phase and frees the speech device.
// It reports whether the session was cancelled by this call.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	if s.phase.Terminal() {
		s.mu.Unlock()
		return false
	}
	s.phase = PhaseCancelled
	s.answers = nil
	s.finalized = nil
	s.interim = ""
	s.recognition = RecognitionIdle
	s.pendingRuns = 0
	ch := s.channel
	s.channel = nil
	s.mu.Unlock()

	if ch != nil {
		ch.CancelSpeech()
		ch.Release()
	}

	s.log.Info("Assessment", "Session cancelled", map[string]interface{}{"session_id": s.id})
	s.changed()
	return true
}

// Close tears the session down. A session that has not completed is cancelled.
func (s *Session) Close() {
	if s.Cancel() {
		return
	}

	s.mu.Lock()
	ch := s.channel
	s.channel = nil
	s.mu.Unlock()

	if ch != nil {
		ch.Release()
	}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:                s.id,
		Owner:             s.owner,
		DocumentID:        s.documentID,
		FromPage:          s.fromPage,
		ToPage:            s.toPage,
		Topic:             s.topic,
		Phase:             s.phase,
		Questions:         append([]string(nil), s.questions...),
		FallbackQuestions: s.fallbackQuestions,
		CurrentIndex:      s.current,
		Answers:           append([]Answer(nil), s.answers...),
		Transcript:        strings.TrimSpace(strings.Join(s.finalized, " ")),
		Interim:           s.interim,
		Recognition:       s.recognition,
		RecognitionCode:   s.recognitionCode,
		Synthesis:         s.synthesis,
		InputMode:         s.inputMode,
		Notice:            s.notice,
		StartedAt:         s.startedAt,
	}
	if s.result != nil {
		r := *s.result
		r.Breakdown = append([]tutor.QuestionScore(nil), s.result.Breakdown...)
		snap.Result = &r
	}
	return snap
}

func (s *Session) OnSpeechStart() {
	s.mu.Lock()
	if s.phase == PhaseCancelled {
		s.mu.Unlock()
		return
	}
	s.synthesis = SynthesisSpeaking
	s.mu.Unlock()
	s.changed()
}

func (s *Session) OnSpeechEnd() {
	s.mu.Lock()
	s.synthesis = SynthesisIdle
	s.mu.Unlock()
	s.changed()
}

// OnRecognitionResult accumulates finalized text for the current turn. Interim text is
// only shown, never submitted.
func (s *Session) OnRecognitionResult(text string, final bool) {
	s.mu.Lock()
	if s.phase != PhaseAwaitingAnswer || !(s.recognition == RecognitionListening || s.pendingRuns > 0) {
		s.mu.Unlock()
		return
	}
	if final {
		if t := strings.TrimSpace(text); t != "" {
			s.finalized = append(s.finalized, t)
		}
		s.interim = ""
	} else {
		s.interim = text
	}
	s.mu.Unlock()
	s.changed()
}

func (s *Session) OnRecognitionError(code string) {
	s.mu.Lock()
	if s.phase != PhaseAwaitingAnswer {
		s.mu.Unlock()
		return
	}

	var ch speech.Channel
	if speech.IsPermissionDenied(code) {
		s.inputMode = InputTyped
		s.notice = noticePermissionDenied
		s.recognition = RecognitionIdle
		if s.serverCapture {
			ch = s.channel
		}
		s.serverCapture = false
		s.pendingRuns = 0
		s.interim = ""
	} else if !(s.serverCapture && s.recognition == RecognitionListening) {
		// a failed transcription of an earlier run leaves the running capture alone
		s.recognition = RecognitionError
		s.interim = ""
	}
	s.recognitionCode = code
	s.mu.Unlock()

	if ch != nil {
		ch.ResetRecognition()
	}

	s.log.Warn("Assessment", "Recognition error", map[string]interface{}{
		"session_id": s.id,
		"code":       code,
	})
	s.changed()
}

// OnRecognitionEnd closes one recognition run. With server side capture it closes the
// oldest stopped run and never ends a capture that is still running.
func (s *Session) OnRecognitionEnd() {
	s.mu.Lock()
	if s.serverCapture {
		if s.pendingRuns > 0 {
			s.pendingRuns--
		}
	} else {
		if s.recognition == RecognitionListening {
			s.recognition = RecognitionIdle
		}
		s.interim = ""
	}
	s.mu.Unlock()
	s.changed()
}

func (s *Session) say(ctx context.Context, ch speech.Channel, text string) {
	if ch == nil || text == "" {
		return
	}
	ch.Speak(ctx, text)
}

func (s *Session) changed() {
	if s.onChange != nil {
		s.onChange(s.Snapshot())
	}
}
