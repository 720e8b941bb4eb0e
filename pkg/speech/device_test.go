package speech

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ai-reading-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventLog struct {
	mu     sync.Mutex
	events []string
	texts  []string
}

func (e *eventLog) add(ev string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *eventLog) OnSpeechStart()    { e.add("speech-start") }
func (e *eventLog) OnSpeechEnd()      { e.add("speech-end") }
func (e *eventLog) OnRecognitionEnd() { e.add("recognition-end") }
func (e *eventLog) OnRecognitionError(code string) {
	e.add("recognition-error:" + code)
}
func (e *eventLog) OnRecognitionResult(text string, final bool) {
	e.add("result")
	e.mu.Lock()
	e.texts = append(e.texts, text)
	e.mu.Unlock()
}

type stubSynth struct{ err error }

func (s stubSynth) Synthesize(_ context.Context, text string) (*Clip, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &Clip{ID: "clip", Audio: []byte("mp3"), ContentType: "audio/mpeg"}, nil
}

type stubTranscriber struct {
	text string
	err  error
	got  Audio
}

func (s *stubTranscriber) Transcribe(_ context.Context, audio Audio) (string, error) {
	s.got = audio
	return s.text, s.err
}

type stubSink struct {
	ok    bool
	clips []*Clip
}

func (s *stubSink) Deliver(owner string, clip *Clip) bool {
	s.clips = append(s.clips, clip)
	return s.ok
}

func inline(f func()) { f() }

func newDevice(synth Synthesizer, trans Transcriber, sink ClipSink) *Device {
	return NewDevice(synth, trans, sink, logger.NewNopLogger(), WithDispatcher(inline))
}

func TestAcquireIsExclusive(t *testing.T) {
	d := newDevice(nil, nil, nil)

	ch, err := d.Acquire("session-a", &eventLog{})
	require.NoError(t, err)
	assert.Equal(t, "session-a", d.Holder())

	_, err = d.Acquire("session-b", &eventLog{})
	assert.ErrorIs(t, err, ErrBusy)

	ch.Release()
	ch.Release()
	assert.Equal(t, "", d.Holder())

	_, err = d.Acquire("session-b", &eventLog{})
	assert.NoError(t, err)
}

func TestStaleReleaseDoesNotFreeNewHolder(t *testing.T) {
	d := newDevice(nil, nil, nil)
	first, err := d.Acquire("a", &eventLog{})
	require.NoError(t, err)
	first.Release()

	_, err = d.Acquire("b", &eventLog{})
	require.NoError(t, err)
	first.Release()

	assert.Equal(t, "b", d.Holder())
}

func TestSpeakDeliversClip(t *testing.T) {
	sink := &stubSink{ok: true}
	events := &eventLog{}
	d := newDevice(stubSynth{}, nil, sink)
	ch, err := d.Acquire("s", events)
	require.NoError(t, err)

	ch.Speak(context.Background(), "What is a cell?")

	require.Len(t, sink.clips, 1)
	assert.Equal(t, "What is a cell?", sink.clips[0].Text)
	assert.Equal(t, []byte("mp3"), sink.clips[0].Audio)
	assert.Equal(t, []string{"speech-start"}, events.events, "end comes from the player")
}

func TestSpeakWithoutListenerEndsImmediately(t *testing.T) {
	sink := &stubSink{ok: false}
	events := &eventLog{}
	d := newDevice(stubSynth{err: errors.New("quota")}, nil, sink)
	ch, err := d.Acquire("s", events)
	require.NoError(t, err)

	ch.Speak(context.Background(), "hello")

	require.Len(t, sink.clips, 1)
	assert.Equal(t, "hello", sink.clips[0].Text)
	assert.Nil(t, sink.clips[0].Audio)
	assert.Equal(t, []string{"speech-start", "speech-end"}, events.events)
}

func TestSpeakAfterReleaseIsDropped(t *testing.T) {
	sink := &stubSink{ok: true}
	events := &eventLog{}
	d := newDevice(stubSynth{}, nil, sink)
	ch, err := d.Acquire("s", events)
	require.NoError(t, err)
	ch.Release()

	ch.Speak(context.Background(), "late")

	assert.Empty(t, sink.clips)
	assert.Empty(t, events.events)
}

func TestRecognitionTranscribesBufferedAudio(t *testing.T) {
	trans := &stubTranscriber{text: "mitochondria"}
	events := &eventLog{}
	d := newDevice(nil, trans, nil)
	ch, err := d.Acquire("s", events)
	require.NoError(t, err)
	require.True(t, ch.RecognitionSupported())

	require.NoError(t, ch.StartRecognition())
	require.NoError(t, ch.PushAudio([]byte("abc"), "audio/webm"))
	require.NoError(t, ch.PushAudio([]byte("def"), "audio/webm"))
	require.NoError(t, ch.StopRecognition())

	assert.Equal(t, []byte("abcdef"), trans.got.Content)
	assert.Equal(t, "answer.webm", trans.got.Name)
	assert.Equal(t, []string{"result", "recognition-end"}, events.events)
	assert.Equal(t, []string{"mitochondria"}, events.texts)
}

func TestRecognitionFailureReportsNetworkError(t *testing.T) {
	trans := &stubTranscriber{err: errors.New("timeout")}
	events := &eventLog{}
	d := newDevice(nil, trans, nil)
	ch, _ := d.Acquire("s", events)

	require.NoError(t, ch.StartRecognition())
	require.NoError(t, ch.PushAudio([]byte("abc"), "audio/ogg"))
	require.NoError(t, ch.StopRecognition())

	assert.Equal(t, []string{"recognition-error:network", "recognition-end"}, events.events)
}

func TestResetDropsUndeliveredRuns(t *testing.T) {
	var queued []func()
	runQueued := func() {
		for len(queued) > 0 {
			job := queued[0]
			queued = queued[1:]
			job()
		}
	}
	events := &eventLog{}
	d := NewDevice(nil, &stubTranscriber{text: "heard"}, nil, logger.NewNopLogger(),
		WithDispatcher(func(f func()) { queued = append(queued, f) }))
	ch, err := d.Acquire("s", events)
	require.NoError(t, err)

	require.NoError(t, ch.StartRecognition())
	require.NoError(t, ch.PushAudio([]byte("abc"), "audio/webm"))
	require.NoError(t, ch.StopRecognition())
	ch.ResetRecognition()
	runQueued()
	assert.Empty(t, events.events)

	require.NoError(t, ch.StartRecognition())
	require.NoError(t, ch.PushAudio([]byte("def"), "audio/webm"))
	require.NoError(t, ch.StopRecognition())
	runQueued()
	assert.Equal(t, []string{"result", "recognition-end"}, events.events)
}

func TestStopWithoutAudioOnlyEnds(t *testing.T) {
	events := &eventLog{}
	d := newDevice(nil, nil, nil)
	ch, _ := d.Acquire("s", events)
	assert.False(t, ch.RecognitionSupported())

	require.NoError(t, ch.StartRecognition())
	require.NoError(t, ch.StopRecognition())
	require.NoError(t, ch.StopRecognition())

	assert.Equal(t, []string{"recognition-end"}, events.events)
}

func TestPushAudioRequiresListening(t *testing.T) {
	d := newDevice(nil, &stubTranscriber{}, nil)
	ch, _ := d.Acquire("s", &eventLog{})

	assert.ErrorIs(t, ch.PushAudio([]byte("x"), "audio/webm"), ErrNotListening)

	ch.Release()
	assert.ErrorIs(t, ch.PushAudio([]byte("x"), "audio/webm"), ErrReleased)
	assert.ErrorIs(t, ch.StartRecognition(), ErrReleased)
}

func TestIsPermissionDenied(t *testing.T) {
	assert.True(t, IsPermissionDenied(ErrorNotAllowed))
	assert.True(t, IsPermissionDenied(ErrorServiceNotAllowed))
	assert.False(t, IsPermissionDenied(ErrorNoSpeech))
}
