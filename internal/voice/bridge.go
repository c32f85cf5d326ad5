package voice

import (
	"context"
	"sync"

	"phi/internal/logging"
)

// Recognizer is an optional platform speech-recognition capability. One
// completed Listen call yields exactly one transcript.
type Recognizer interface {
	Available() bool
	Listen(ctx context.Context) (string, error)
}

// Synthesizer is an optional platform speech-synthesis capability.
type Synthesizer interface {
	Available() bool
	Speak(ctx context.Context, text string) error
}

// Bridge adapts the platform capabilities to a transcript-in / speak-out
// interface. Availability is detected once at construction; when either
// capability is missing the bridge reports unsupported and exposes no
// controls.
type Bridge struct {
	recognizer   Recognizer
	synthesizer  Synthesizer
	onTranscript func(string)
	supported    bool
	log          *logging.Logger

	mu          sync.Mutex
	listening   bool
	listenStop  context.CancelFunc
	speaking    bool
	speakStop   context.CancelFunc
	muted       bool
	speakEpoch  int
	listenEpoch int
}

// NewBridge probes capability availability once and wires the transcript
// callback. onTranscript may be nil.
func NewBridge(recognizer Recognizer, synthesizer Synthesizer, onTranscript func(string)) *Bridge {
	supported := recognizer != nil && synthesizer != nil &&
		recognizer.Available() && synthesizer.Available()
	return &Bridge{
		recognizer:   recognizer,
		synthesizer:  synthesizer,
		onTranscript: onTranscript,
		supported:    supported,
		log:          logging.ForComponent("voice"),
	}
}

// Supported reports whether both speech capabilities are present. When
// false, views render a disabled control with an explanatory message.
func (b *Bridge) Supported() bool { return b.supported }

// UnsupportedMessage explains the degraded state to the user.
func (b *Bridge) UnsupportedMessage() string {
	return "Voice features require speech recognition and synthesis support on this system."
}

// Listening reports whether a recognition pass is in progress.
func (b *Bridge) Listening() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listening
}

// StartListening begins one recognition pass. Starting requires idle: a
// second call while listening is a no-op. A completed pass delivers exactly
// one transcript and returns to idle; an error returns to idle silently.
func (b *Bridge) StartListening(ctx context.Context) {
	if !b.supported {
		return
	}
	b.mu.Lock()
	if b.listening {
		b.mu.Unlock()
		return
	}
	b.listening = true
	b.listenEpoch++
	epoch := b.listenEpoch
	listenCtx, cancel := context.WithCancel(ctx)
	b.listenStop = cancel
	b.mu.Unlock()

	go func() {
		transcript, err := b.recognizer.Listen(listenCtx)
		cancel()

		b.mu.Lock()
		if b.listenEpoch != epoch {
			b.mu.Unlock()
			return
		}
		b.listening = false
		b.listenStop = nil
		b.mu.Unlock()

		if err != nil {
			b.log.Warn("speech recognition error: %v", err)
			return
		}
		if transcript != "" && b.onTranscript != nil {
			b.onTranscript(transcript)
		}
	}()
}

// StopListening aborts an in-progress recognition pass.
func (b *Bridge) StopListening() {
	b.mu.Lock()
	stop := b.listenStop
	b.listening = false
	b.listenStop = nil
	b.listenEpoch++
	b.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// Speaking reports whether an utterance is in progress, for indicator and
// mute purposes; callers never await it.
func (b *Bridge) Speaking() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.speaking
}

// Speak starts a new utterance, cancelling any utterance in progress; at
// most one utterance speaks at a time. Fire-and-forget: the call returns
// immediately.
func (b *Bridge) Speak(text string) {
	if !b.supported || text == "" {
		return
	}
	b.mu.Lock()
	if b.muted {
		b.mu.Unlock()
		return
	}
	if b.speakStop != nil {
		b.speakStop()
	}
	b.speakEpoch++
	epoch := b.speakEpoch
	speakCtx, cancel := context.WithCancel(context.Background())
	b.speakStop = cancel
	b.speaking = true
	b.mu.Unlock()

	go func() {
		if err := b.synthesizer.Speak(speakCtx, text); err != nil && speakCtx.Err() == nil {
			b.log.Warn("speech synthesis error: %v", err)
		}
		cancel()

		b.mu.Lock()
		if b.speakEpoch == epoch {
			b.speaking = false
			b.speakStop = nil
		}
		b.mu.Unlock()
	}()
}

// StopSpeaking cancels the in-progress utterance, if any.
func (b *Bridge) StopSpeaking() {
	b.mu.Lock()
	stop := b.speakStop
	b.speaking = false
	b.speakStop = nil
	b.speakEpoch++
	b.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// SetMuted toggles output muting. Muting cancels any in-progress utterance
// immediately.
func (b *Bridge) SetMuted(muted bool) {
	b.mu.Lock()
	b.muted = muted
	b.mu.Unlock()
	if muted {
		b.StopSpeaking()
	}
}

// Muted reports whether output is muted.
func (b *Bridge) Muted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.muted
}
