package main

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"murmur/audio"
	"murmur/config"
	"murmur/encoder"
	"murmur/hotkey"
	"murmur/inject"
	"murmur/notify"
	"murmur/textproc"
	"murmur/transcriber"
)

func speechPCM() []byte {
	n := encoder.SampleRate / 2 // half a second
	pcm := make([]byte, n*2)
	for i := 0; i < n; i++ {
		s := int16(8000 * math.Sin(2*math.Pi*440*float64(i)/encoder.SampleRate))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	return pcm
}

type testDaemon struct {
	signals chan hotkey.Signal
	actx    *audio.FakeContext
	inj     *inject.Fake
	done    chan struct{}
}

func startDaemon(t *testing.T, pcm []byte, trans transcriber.Transcriber) *testDaemon {
	t.Helper()
	cfg := config.Default()
	td := &testDaemon{
		signals: make(chan hotkey.Signal, 8),
		actx:    audio.NewFakeContext(pcm),
		inj:     &inject.Fake{},
		done:    make(chan struct{}),
	}
	d := newDaemon(cfg, td.actx, nil, trans,
		textproc.New(cfg.Processing), td.inj, notify.New(false), td.signals)
	go func() {
		defer close(td.done)
		d.run(nil)
	}()
	t.Cleanup(func() {
		select {
		case <-td.done:
		default:
			close(td.signals)
			<-td.done
		}
	})
	return td
}

func (td *testDaemon) finish(t *testing.T) {
	t.Helper()
	close(td.signals)
	select {
	case <-td.done:
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestCommitDeliversProcessedText(t *testing.T) {
	trans := &transcriber.Fake{Text: "um hello world"}
	td := startDaemon(t, speechPCM(), trans)

	td.signals <- hotkey.Signal{Kind: hotkey.SessionStart}
	td.signals <- hotkey.Signal{Kind: hotkey.SessionCommit, Held: 200 * time.Millisecond}

	waitFor(t, "delivery", func() bool { return len(td.inj.Delivered()) == 1 })
	if got := td.inj.Delivered()[0]; got != "Hello world" {
		t.Errorf("delivered %q, want %q", got, "Hello world")
	}
	td.finish(t)
}

// TestHoldHotkeyEndToEnd drives the whole pipeline through a real state
// machine: hold super+period for 200ms, release, and expect exactly one
// transcription and one injection.
func TestHoldHotkeyEndToEnd(t *testing.T) {
	cfg := config.Default()
	trans := &transcriber.Fake{Text: "hello there"}
	actx := audio.NewFakeContext(speechPCM())
	inj := &inject.Fake{}

	events := make(chan hotkey.KeyEvent, 16)
	machine := hotkey.NewMachine(
		cfg.Hotkey.ModifierCodes(), cfg.Hotkey.KeyCode(),
		cfg.Hotkey.MinDwell(), events,
	)

	d := newDaemon(cfg, actx, nil, trans,
		textproc.New(cfg.Processing), inj, notify.New(false), machine.Signals())
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.run(nil)
	}()

	super, period := cfg.Hotkey.ModifierCodes()[0][0], cfg.Hotkey.KeyCode()
	events <- hotkey.KeyEvent{Device: "kb0", Code: super, Value: hotkey.ValuePress, Time: time.Now()}
	events <- hotkey.KeyEvent{Device: "kb0", Code: period, Value: hotkey.ValuePress, Time: time.Now()}
	time.Sleep(200 * time.Millisecond)
	events <- hotkey.KeyEvent{Device: "kb0", Code: period, Value: hotkey.ValueRelease, Time: time.Now()}
	events <- hotkey.KeyEvent{Device: "kb0", Code: super, Value: hotkey.ValueRelease, Time: time.Now()}

	waitFor(t, "delivery", func() bool { return len(inj.Delivered()) == 1 })
	if got := inj.Delivered()[0]; got != "Hello there" {
		t.Errorf("delivered %q, want %q", got, "Hello there")
	}
	if n := len(trans.Calls()); n != 1 {
		t.Errorf("transcriber called %d times, want 1", n)
	}
	if n := len(actx.Captures()); n != 1 {
		t.Errorf("%d capture devices opened, want 1", n)
	}

	close(events)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

func TestAbortDeliversNothing(t *testing.T) {
	trans := &transcriber.Fake{Text: "should not appear"}
	td := startDaemon(t, speechPCM(), trans)

	td.signals <- hotkey.Signal{Kind: hotkey.SessionStart}
	td.signals <- hotkey.Signal{Kind: hotkey.SessionAbort, Reason: hotkey.ReasonModifierReleased}
	td.finish(t)

	if n := len(trans.Calls()); n != 0 {
		t.Errorf("transcriber called %d times, want 0", n)
	}
	if n := len(td.inj.Delivered()); n != 0 {
		t.Errorf("%d deliveries, want 0", n)
	}
	captures := td.actx.Captures()
	if len(captures) != 1 || !captures[0].Stopped() {
		t.Error("capture device not stopped after abort")
	}
}

// blockingTranscriber parks Transcribe until released.
type blockingTranscriber struct {
	release chan struct{}
	mu      sync.Mutex
	calls   int
}

func (b *blockingTranscriber) Name() string { return "blocking" }

func (b *blockingTranscriber) PreferredFormat() encoder.Format { return encoder.FormatWAV }

func (b *blockingTranscriber) Transcribe(ctx context.Context, _ []byte, _ encoder.Format) (*transcriber.Result, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	select {
	case <-b.release:
		return &transcriber.Result{Text: "done"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *blockingTranscriber) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func TestStartIgnoredWhileTranscribing(t *testing.T) {
	trans := &blockingTranscriber{release: make(chan struct{})}
	td := startDaemon(t, speechPCM(), trans)

	td.signals <- hotkey.Signal{Kind: hotkey.SessionStart}
	td.signals <- hotkey.Signal{Kind: hotkey.SessionCommit, Held: 200 * time.Millisecond}

	waitFor(t, "transcription start", func() bool { return trans.callCount() == 1 })

	// A new hold while the previous utterance is in flight is dropped.
	td.signals <- hotkey.Signal{Kind: hotkey.SessionStart}
	td.signals <- hotkey.Signal{Kind: hotkey.SessionCommit, Held: 200 * time.Millisecond}
	time.Sleep(50 * time.Millisecond)

	close(trans.release)
	waitFor(t, "delivery", func() bool { return len(td.inj.Delivered()) == 1 })

	if n := len(td.actx.Captures()); n != 1 {
		t.Errorf("%d capture devices opened, want 1 (second press must be ignored)", n)
	}
	td.finish(t)
}

// TestStopAbortsCapturingSession covers the shutdown path: closing the
// stop channel while a session is capturing must stop the capture device
// and never reach the transcriber.
func TestStopAbortsCapturingSession(t *testing.T) {
	cfg := config.Default()
	trans := &transcriber.Fake{Text: "should not appear"}
	actx := audio.NewFakeContext(speechPCM())
	inj := &inject.Fake{}
	signals := make(chan hotkey.Signal, 8)
	stop := make(chan struct{})

	d := newDaemon(cfg, actx, nil, trans,
		textproc.New(cfg.Processing), inj, notify.New(false), signals)
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.run(stop)
	}()

	signals <- hotkey.Signal{Kind: hotkey.SessionStart}
	waitFor(t, "capture start", func() bool { return len(actx.Captures()) == 1 })

	close(stop)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop")
	}

	if !actx.Captures()[0].Stopped() {
		t.Error("capture device not stopped on shutdown")
	}
	if n := len(trans.Calls()); n != 0 {
		t.Errorf("transcriber called %d times, want 0", n)
	}
	if n := len(inj.Delivered()); n != 0 {
		t.Errorf("%d deliveries, want 0", n)
	}
}

// blockingInjector parks Deliver until released, recording what arrived.
type blockingInjector struct {
	release chan struct{}
	mu      sync.Mutex
	texts   []string
}

func (b *blockingInjector) Deliver(ctx context.Context, text string) error {
	b.mu.Lock()
	b.texts = append(b.texts, text)
	b.mu.Unlock()
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *blockingInjector) received() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.texts)
}

// TestDeliveryBacklogDoesNotStallLoop pushes utterances through faster
// than a stuck injector drains them. The event loop must keep consuming
// signals, dropping texts once the delivery backlog is full.
func TestDeliveryBacklogDoesNotStallLoop(t *testing.T) {
	cfg := config.Default()
	trans := &transcriber.Fake{Text: "hello"}
	actx := audio.NewFakeContext(speechPCM())
	inj := &blockingInjector{release: make(chan struct{})}
	signals := make(chan hotkey.Signal, 32)

	d := newDaemon(cfg, actx, nil, trans,
		textproc.New(cfg.Processing), inj, notify.New(false), signals)
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.run(nil)
	}()

	const utterances = 8
	for i := 0; i < utterances; i++ {
		signals <- hotkey.Signal{Kind: hotkey.SessionStart}
		signals <- hotkey.Signal{Kind: hotkey.SessionCommit, Held: 200 * time.Millisecond}
		want := i + 1
		waitFor(t, "transcription", func() bool { return len(trans.Calls()) == want })
	}

	close(inj.release)
	close(signals)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop")
	}

	// One text in flight plus the channel buffer; the rest were dropped.
	if n := inj.received(); n > cap(d.deliveries)+1 {
		t.Errorf("injector received %d texts, want at most %d", n, cap(d.deliveries)+1)
	}
}

func TestEmptyTranscriptionSkipsDelivery(t *testing.T) {
	// Filler-only text processes down to nothing.
	trans := &transcriber.Fake{Text: "um uh"}
	td := startDaemon(t, speechPCM(), trans)

	td.signals <- hotkey.Signal{Kind: hotkey.SessionStart}
	td.signals <- hotkey.Signal{Kind: hotkey.SessionCommit, Held: 200 * time.Millisecond}

	waitFor(t, "transcription", func() bool { return len(trans.Calls()) == 1 })
	time.Sleep(50 * time.Millisecond)
	if n := len(td.inj.Delivered()); n != 0 {
		t.Errorf("%d deliveries, want 0", n)
	}
	td.finish(t)
}

func TestNoAudioSkipsTranscription(t *testing.T) {
	trans := &transcriber.Fake{Text: "x"}
	td := startDaemon(t, nil, trans) // empty capture buffer

	td.signals <- hotkey.Signal{Kind: hotkey.SessionStart}
	td.signals <- hotkey.Signal{Kind: hotkey.SessionCommit, Held: 200 * time.Millisecond}
	time.Sleep(50 * time.Millisecond)
	td.finish(t)

	if n := len(trans.Calls()); n != 0 {
		t.Errorf("transcriber called %d times, want 0", n)
	}
}

func TestTranscriberErrorIsNotFatal(t *testing.T) {
	trans := &transcriber.Fake{Err: errors.New("engine exploded")}
	td := startDaemon(t, speechPCM(), trans)

	td.signals <- hotkey.Signal{Kind: hotkey.SessionStart}
	td.signals <- hotkey.Signal{Kind: hotkey.SessionCommit, Held: 200 * time.Millisecond}

	waitFor(t, "failed transcription", func() bool { return len(trans.Calls()) == 1 })

	// The daemon must accept the next session.
	trans.SetErr(nil)
	trans.SetText("recovered")
	waitFor(t, "slot release", func() bool {
		td.signals <- hotkey.Signal{Kind: hotkey.SessionStart}
		td.signals <- hotkey.Signal{Kind: hotkey.SessionCommit, Held: 200 * time.Millisecond}
		return len(td.inj.Delivered()) > 0
	})
	td.finish(t)
}

func TestInjectionFailureIsNotFatal(t *testing.T) {
	trans := &transcriber.Fake{Text: "hello"}
	td := startDaemon(t, speechPCM(), trans)
	td.inj.SetErr(errors.New("uinput gone"))

	td.signals <- hotkey.Signal{Kind: hotkey.SessionStart}
	td.signals <- hotkey.Signal{Kind: hotkey.SessionCommit, Held: 200 * time.Millisecond}

	waitFor(t, "transcription", func() bool { return len(trans.Calls()) == 1 })

	// Next utterance still works once injection recovers.
	td.inj.SetErr(nil)
	waitFor(t, "recovered delivery", func() bool {
		td.signals <- hotkey.Signal{Kind: hotkey.SessionStart}
		td.signals <- hotkey.Signal{Kind: hotkey.SessionCommit, Held: 200 * time.Millisecond}
		return len(td.inj.Delivered()) > 0
	})
	td.finish(t)
}
