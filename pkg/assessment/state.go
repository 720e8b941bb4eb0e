package assessment

import (
	"time"

	"ai-reading-be/pkg/tutor"
)

type Phase int

const (
	PhaseLoading Phase = iota
	PhaseAwaitingAnswer
	PhaseEvaluating
	PhaseComplete
	PhaseCancelled
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "LOADING"
	case PhaseAwaitingAnswer:
		return "AWAITING_ANSWER"
	case PhaseEvaluating:
		return "EVALUATING"
	case PhaseComplete:
		return "COMPLETE"
	case PhaseCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further transitions are possible.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseCancelled
}

type RecognitionState string

const (
	RecognitionIdle      RecognitionState = "IDLE"
	RecognitionListening RecognitionState = "LISTENING"
	RecognitionError     RecognitionState = "ERROR"
)

type SynthesisState string

const (
	SynthesisIdle     SynthesisState = "IDLE"
	SynthesisSpeaking SynthesisState = "SPEAKING"
)

type InputMode string

const (
	InputVoice InputMode = "VOICE"
	InputTyped InputMode = "TYPED"
)

// Capabilities describes what the learner's client can do for voice input.
type Capabilities struct {
	// BrowserRecognition means the client recognises speech locally and posts results.
	BrowserRecognition bool `json:"browser_recognition"`
	// AudioCapture means the client can stream microphone audio for server side transcription.
	AudioCapture bool `json:"audio_capture"`
}

type Answer struct {
	QuestionIndex int       `json:"question_index"`
	Text          string    `json:"text"`
	Timestamp     time.Time `json:"timestamp"`
}

type Result struct {
	Score       int                   `json:"score"`
	Feedback    string                `json:"feedback"`
	Breakdown   []tutor.QuestionScore `json:"breakdown"`
	Fallback    bool                  `json:"fallback"`
	CompletedAt time.Time             `json:"completed_at"`
}

// Snapshot is a copy of the session state, safe to hand out.
type Snapshot struct {
	ID                string
	Owner             string
	DocumentID        string
	FromPage          int
	ToPage            int
	Topic             tutor.Topic
	Phase             Phase
	Questions         []string
	FallbackQuestions bool
	CurrentIndex      int
	Answers           []Answer
	Transcript        string
	Interim           string
	Recognition       RecognitionState
	RecognitionCode   string
	Synthesis         SynthesisState
	InputMode         InputMode
	Notice            string
	Result            *Result
	StartedAt         time.Time
}

// CurrentQuestion returns the question awaiting an answer, if any.
func (s Snapshot) CurrentQuestion() (string, bool) {
	if s.Phase != PhaseAwaitingAnswer || s.CurrentIndex >= len(s.Questions) {
		return "", false
	}
	return s.Questions[s.CurrentIndex], true
}
