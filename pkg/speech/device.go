package speech

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"ai-reading-be/internal/pkg/logger"

	"github.com/google/uuid"
)

const (
	// maxRecordingBytes matches the upload limit of hosted transcription APIs.
	maxRecordingBytes = 25 * 1024 * 1024
	transcribeTimeout = 60 * time.Second
)

var (
	ErrNotListening     = errors.New("recognition is not running")
	ErrRecordingTooLong = errors.New("recording exceeds the transcription limit")
)

type DeviceOption func(*Device)

// WithDispatcher replaces how asynchronous speech work is started. The default runs it in a new goroutine.
// Queued work must run in dispatch order.
func WithDispatcher(dispatch func(func())) DeviceOption {
	return func(d *Device) {
		d.dispatch = dispatch
	}
}

// Device is the process-wide speech subsystem. At most one owner holds it at a time.
type Device struct {
	mu     sync.Mutex
	holder *lease

	synth    Synthesizer
	trans    Transcriber
	sink     ClipSink
	log      logger.ILogger
	dispatch func(func())
}

var _ Acquirer = (*Device)(nil)

// NewDevice builds the device. synth and trans may be nil: without a synthesizer clips carry
// only text, without a transcriber recognition must happen on the client.
func NewDevice(synth Synthesizer, trans Transcriber, sink ClipSink, log logger.ILogger, opts ...DeviceOption) *Device {
	d := &Device{
		synth:    synth,
		trans:    trans,
		sink:     sink,
		log:      log,
		dispatch: func(f func()) { go f() },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Device) Acquire(owner string, l Listener) (Channel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.holder != nil {
		return nil, ErrBusy
	}
	d.holder = &lease{d: d, owner: owner, l: l}
	d.log.Info("Speech", "Device acquired", map[string]interface{}{"owner": owner})
	return d.holder, nil
}

// Holder returns the current owner, or "" when the device is free.
func (d *Device) Holder() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.holder == nil {
		return ""
	}
	return d.holder.owner
}

func (d *Device) free(ls *lease) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.holder == ls {
		d.holder = nil
		d.log.Info("Speech", "Device released", map[string]interface{}{"owner": ls.owner})
	}
}

type lease struct {
	d     *Device
	owner string
	l     Listener

	mu           sync.Mutex
	released     bool
	listening    bool
	turn         int
	pending      chan struct{}
	recording    bytes.Buffer
	contentType  string
	cancelSpeech context.CancelFunc

	// held while results are handed to the listener
	deliver sync.Mutex
}

func (ls *lease) Speak(ctx context.Context, text string) {
	ls.mu.Lock()
	if ls.released {
		ls.mu.Unlock()
		return
	}
	if ls.cancelSpeech != nil {
		ls.cancelSpeech()
	}
	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	ls.cancelSpeech = cancel
	ls.mu.Unlock()

	ls.d.dispatch(func() {
		if !ls.active() {
			return
		}
		ls.l.OnSpeechStart()

		clip := &Clip{ID: uuid.NewString(), Text: text}
		if ls.d.synth != nil {
			out, err := ls.d.synth.Synthesize(sctx, text)
			if err != nil {
				ls.d.log.Warn("Speech", "Synthesis failed, sending text only", map[string]interface{}{
					"owner": ls.owner,
					"error": err.Error(),
				})
			} else {
				clip = out
				if clip.Text == "" {
					clip.Text = text
				}
			}
		}

		if sctx.Err() != nil || !ls.active() {
			return
		}
		if ls.d.sink == nil || !ls.d.sink.Deliver(ls.owner, clip) {
			ls.l.OnSpeechEnd()
		}
	})
}

func (ls *lease) CancelSpeech() {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.cancelSpeech != nil {
		ls.cancelSpeech()
		ls.cancelSpeech = nil
	}
}

func (ls *lease) StartRecognition() error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.released {
		return ErrReleased
	}
	if ls.listening {
		return nil
	}
	ls.listening = true
	ls.recording.Reset()
	ls.contentType = ""
	return nil
}

func (ls *lease) PushAudio(chunk []byte, contentType string) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.released {
		return ErrReleased
	}
	if !ls.listening {
		return ErrNotListening
	}
	if ls.recording.Len()+len(chunk) > maxRecordingBytes {
		return ErrRecordingTooLong
	}
	if ls.contentType == "" {
		ls.contentType = contentType
	}
	ls.recording.Write(chunk)
	return nil
}

// StopRecognition ends capture. Buffered audio is transcribed in the background and
// delivered as one final result before the end event. Runs of the same turn are delivered
// in the order they were stopped, even when a new run has started in the meantime.
func (ls *lease) StopRecognition() error {
	ls.mu.Lock()
	if ls.released {
		ls.mu.Unlock()
		return ErrReleased
	}
	if !ls.listening {
		ls.mu.Unlock()
		return nil
	}
	ls.listening = false
	turn := ls.turn
	prev := ls.pending
	done := make(chan struct{})
	ls.pending = done
	audio := Audio{
		Name:        "answer" + extension(ls.contentType),
		ContentType: ls.contentType,
		Content:     bytes.Clone(ls.recording.Bytes()),
	}
	ls.recording.Reset()
	ls.mu.Unlock()

	ls.d.dispatch(func() {
		defer close(done)

		var (
			text string
			err  error
		)
		transcribed := len(audio.Content) > 0 && ls.d.trans != nil
		if transcribed {
			ctx, cancel := context.WithTimeout(context.Background(), transcribeTimeout)
			text, err = ls.d.trans.Transcribe(ctx, audio)
			cancel()
		}
		if prev != nil {
			<-prev
		}

		ls.deliver.Lock()
		defer ls.deliver.Unlock()
		if !ls.current(turn) {
			return
		}
		if transcribed {
			if err != nil {
				ls.d.log.Warn("Speech", "Transcription failed", map[string]interface{}{
					"owner": ls.owner,
					"error": err.Error(),
				})
				ls.l.OnRecognitionError(ErrorNetwork)
			} else if text != "" {
				ls.l.OnRecognitionResult(text, true)
			}
		}
		ls.l.OnRecognitionEnd()
	})
	return nil
}

// ResetRecognition ends capture and drops every result not yet delivered. Later runs
// start a new turn.
func (ls *lease) ResetRecognition() {
	ls.deliver.Lock()
	defer ls.deliver.Unlock()

	ls.mu.Lock()
	defer ls.mu.Unlock()

	ls.listening = false
	ls.turn++
	ls.pending = nil
	ls.recording.Reset()
	ls.contentType = ""
}

func (ls *lease) RecognitionSupported() bool {
	return ls.d.trans != nil
}

func (ls *lease) Release() {
	ls.mu.Lock()
	if ls.released {
		ls.mu.Unlock()
		return
	}
	ls.released = true
	ls.listening = false
	ls.turn++
	ls.recording.Reset()
	if ls.cancelSpeech != nil {
		ls.cancelSpeech()
		ls.cancelSpeech = nil
	}
	ls.mu.Unlock()

	ls.d.free(ls)
}

func (ls *lease) active() bool {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return !ls.released
}

// current reports whether results stopped during turn may still be delivered.
func (ls *lease) current(turn int) bool {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return !ls.released && ls.turn == turn
}

func extension(contentType string) string {
	switch contentType {
	case "audio/webm", "audio/webm;codecs=opus":
		return ".webm"
	case "audio/ogg", "audio/ogg;codecs=opus":
		return ".ogg"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/mp4", "audio/m4a":
		return ".m4a"
	default:
		return ".mp3"
	}
}
