package speech

import (
	"context"
	"errors"
)

var (
	ErrBusy        = errors.New("speech device is held by another session")
	ErrReleased    = errors.New("speech channel has been released")
	ErrUnsupported = errors.New("speech recognition is not available")
)

// Recognition error codes as reported by browser recognizers.
const (
	ErrorNotAllowed        = "not-allowed"
	ErrorServiceNotAllowed = "service-not-allowed"
	ErrorNoSpeech          = "no-speech"
	ErrorNetwork           = "network"
	ErrorAudioCapture      = "audio-capture"
)

// IsPermissionDenied reports whether a recognition error code means the microphone was refused.
func IsPermissionDenied(code string) bool {
	return code == ErrorNotAllowed || code == ErrorServiceNotAllowed
}

// Listener receives the asynchronous events of a held channel.
type Listener interface {
	OnSpeechStart()
	OnSpeechEnd()
	OnRecognitionResult(text string, final bool)
	OnRecognitionError(code string)
	OnRecognitionEnd()
}

// Channel is one session's exclusive handle on the speech subsystems.
type Channel interface {
	// Speak starts synthesizing text and returns immediately.
	Speak(ctx context.Context, text string)
	CancelSpeech()
	StartRecognition() error
	StopRecognition() error
	// ResetRecognition stops capture and discards results of runs not yet delivered.
	ResetRecognition()
	// PushAudio feeds recorded audio while recognition is running.
	PushAudio(chunk []byte, contentType string) error
	RecognitionSupported() bool
	// Release frees the device. It is safe to call more than once.
	Release()
}

type Acquirer interface {
	Acquire(owner string, l Listener) (Channel, error)
}

// Clip is a synthesized utterance ready for playback.
type Clip struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	Audio       []byte `json:"audio,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*Clip, error)
}

type Audio struct {
	Name        string
	ContentType string
	Content     []byte
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio Audio) (string, error)
}

// ClipSink plays clips for an owner. Deliver reports false when nobody can play it.
type ClipSink interface {
	Deliver(owner string, clip *Clip) bool
}
