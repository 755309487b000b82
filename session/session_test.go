package session

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"murmur/audio"
	"murmur/encoder"
	"murmur/transcriber"
)

// tonePCM generates d worth of 16 kHz mono s16le sine samples.
func tonePCM(d time.Duration) []byte {
	n := int(d.Seconds() * encoder.SampleRate)
	pcm := make([]byte, n*2)
	for i := 0; i < n; i++ {
		s := int16(8000 * math.Sin(2*math.Pi*440*float64(i)/encoder.SampleRate))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	return pcm
}

func TestCommitTranscribes(t *testing.T) {
	actx := audio.NewFakeContext(tonePCM(time.Second))
	tr := &transcriber.Fake{Text: "hello world"}

	s, err := Start(actx, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.State() != Capturing {
		t.Fatalf("state = %s, want capturing", s.State())
	}

	result, err := s.Commit(context.Background(), tr)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if result.Text != "hello world" {
		t.Errorf("Text = %q", result.Text)
	}
	if s.State() != Committed {
		t.Errorf("state = %s, want committed", s.State())
	}

	calls := tr.Calls()
	if len(calls) != 1 {
		t.Fatalf("transcriber called %d times, want 1", len(calls))
	}
	if calls[0].Format != encoder.FormatWAV {
		t.Errorf("format = %q, want wav", calls[0].Format)
	}
	// WAV payload: header plus one second of samples.
	wantLen := encoder.HeaderSize + encoder.SampleRate*2
	if len(calls[0].Audio) != wantLen {
		t.Errorf("audio length = %d, want %d", len(calls[0].Audio), wantLen)
	}

	if got := s.AudioDuration(); got < 900*time.Millisecond || got > 1100*time.Millisecond {
		t.Errorf("AudioDuration = %v, want ~1s", got)
	}
}

func TestAbortDiscardsAudio(t *testing.T) {
	actx := audio.NewFakeContext(tonePCM(time.Second))
	tr := &transcriber.Fake{Text: "should not appear"}

	s, err := Start(actx, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Abort()

	if s.State() != Aborted {
		t.Errorf("state = %s, want aborted", s.State())
	}
	if len(tr.Calls()) != 0 {
		t.Error("transcriber must not be called after abort")
	}

	captures := actx.Captures()
	if len(captures) != 1 || !captures[0].Stopped() {
		t.Error("capture device not stopped")
	}

	// Commit after abort is rejected.
	if _, err := s.Commit(context.Background(), tr); err == nil {
		t.Error("expected error committing an aborted session")
	}
}

func TestCommitEmptyBuffer(t *testing.T) {
	actx := audio.NewFakeContext(nil)
	tr := &transcriber.Fake{Text: "x"}

	s, err := Start(actx, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	_, err = s.Commit(context.Background(), tr)
	if !errors.Is(err, ErrNoAudio) {
		t.Fatalf("err = %v, want ErrNoAudio", err)
	}
	if len(tr.Calls()) != 0 {
		t.Error("transcriber must not be called for empty audio")
	}
	if s.State() != Aborted {
		t.Errorf("state = %s, want aborted", s.State())
	}
}

func TestCommitTooShortBuffer(t *testing.T) {
	actx := audio.NewFakeContext(tonePCM(20 * time.Millisecond))
	tr := &transcriber.Fake{Text: "x"}

	s, err := Start(actx, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := s.Commit(context.Background(), tr); !errors.Is(err, ErrNoAudio) {
		t.Fatalf("err = %v, want ErrNoAudio", err)
	}
}

func TestCommitTranscriberError(t *testing.T) {
	actx := audio.NewFakeContext(tonePCM(time.Second))
	wantErr := errors.New("engine exploded")
	tr := &transcriber.Fake{Err: wantErr}

	s, err := Start(actx, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := s.Commit(context.Background(), tr); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if s.State() != Aborted {
		t.Errorf("state = %s, want aborted", s.State())
	}
}

func TestCommitCancelledContext(t *testing.T) {
	actx := audio.NewFakeContext(tonePCM(time.Second))
	tr := &transcriber.Fake{Text: "x"}

	s, err := Start(actx, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Commit(ctx, tr); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
