// Package session ties one hotkey hold to one utterance: capture while the
// key is down, then either discard the audio or run it through the
// transcriber.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"murmur/audio"
	"murmur/encoder"
	"murmur/transcriber"
)

// State of a session. Transitions are one-way:
// Capturing -> Transcribing -> Committed, or Capturing -> Aborted.
type State int

const (
	Capturing State = iota
	Transcribing
	Committed
	Aborted
)

func (s State) String() string {
	switch s {
	case Capturing:
		return "capturing"
	case Transcribing:
		return "transcribing"
	case Committed:
		return "committed"
	case Aborted:
		return "aborted"
	}
	return "unknown"
}

// ErrNoAudio means the buffer was empty or too short to contain speech.
// The caller should treat it as "nothing to type", not a failure.
var ErrNoAudio = errors.New("no usable audio captured")

// minPCMBytes is 100 ms of 16 kHz mono s16le. Anything shorter is key
// bounce, not speech.
const minPCMBytes = encoder.SampleRate * 2 / 10

// Session owns the PCM buffer for one utterance. The capture callback
// appends concurrently with the owner goroutine reading state, so the
// buffer is mutex-guarded.
type Session struct {
	id        uuid.UUID
	capture   audio.CaptureDevice
	startedAt time.Time

	mu    sync.Mutex
	state State
	pcm   []byte
}

// Start opens a capture device and begins buffering audio.
func Start(actx audio.Context, device *audio.DeviceInfo) (*Session, error) {
	capture, err := actx.NewCapture(device, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		return nil, fmt.Errorf("opening capture: %w", err)
	}

	s := &Session{
		id:        uuid.New(),
		capture:   capture,
		startedAt: time.Now(),
		state:     Capturing,
	}
	capture.SetCallback(s.append)

	if err := capture.Start(); err != nil {
		capture.Close()
		return nil, fmt.Errorf("starting capture: %w", err)
	}
	return s, nil
}

func (s *Session) append(data []byte, _ uint32) {
	s.mu.Lock()
	if s.state == Capturing {
		s.pcm = append(s.pcm, data...)
	}
	s.mu.Unlock()
}

// ID is a short identifier for log correlation.
func (s *Session) ID() string {
	return s.id.String()[:8]
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AudioDuration is the captured audio length, derived from the buffer size.
func (s *Session) AudioDuration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	samples := len(s.pcm) / 2
	return time.Duration(samples) * time.Second / encoder.SampleRate
}

// Abort stops capture and discards the buffer. Safe to call in any state;
// after Transcribing has begun it is a no-op.
func (s *Session) Abort() {
	s.mu.Lock()
	if s.state != Capturing {
		s.mu.Unlock()
		return
	}
	s.state = Aborted
	s.pcm = nil
	s.mu.Unlock()

	s.stopCapture()
}

// Commit stops capture, encodes the buffer and transcribes it. Returns
// ErrNoAudio for empty or sub-minimum buffers. Any error after the state
// moved to Transcribing leaves the session Aborted.
func (s *Session) Commit(ctx context.Context, tr transcriber.Transcriber) (*transcriber.Result, error) {
	s.mu.Lock()
	if s.state != Capturing {
		s.mu.Unlock()
		return nil, fmt.Errorf("commit in state %s", s.state)
	}
	s.state = Transcribing
	s.mu.Unlock()

	s.stopCapture()

	s.mu.Lock()
	pcm := s.pcm
	s.mu.Unlock()

	if len(pcm) < minPCMBytes {
		s.setState(Aborted)
		return nil, ErrNoAudio
	}

	format := tr.PreferredFormat()
	enc, err := encoder.New(format)
	if err != nil {
		s.setState(Aborted)
		return nil, fmt.Errorf("encoder: %w", err)
	}
	if err := encoder.EncodePCM(enc, pcm); err != nil {
		s.setState(Aborted)
		return nil, fmt.Errorf("encoding %s: %w", format, err)
	}

	result, err := tr.Transcribe(ctx, enc.Bytes(), format)
	if err != nil {
		s.setState(Aborted)
		return nil, err
	}

	s.setState(Committed)
	return result, nil
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) stopCapture() {
	s.capture.ClearCallback()
	s.capture.Stop()
	s.capture.Close()
}
