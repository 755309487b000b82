package transcriber

import (
	"context"
	"sync"

	"murmur/encoder"
)

// Fake returns canned results and records what it was asked to transcribe.
// Text and Err may be swapped between utterances via the setters.
type Fake struct {
	Text string
	Err  error

	mu    sync.Mutex
	calls []FakeCall
}

type FakeCall struct {
	Audio  []byte
	Format encoder.Format
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) PreferredFormat() encoder.Format { return encoder.FormatWAV }

func (f *Fake) SetText(text string) {
	f.mu.Lock()
	f.Text = text
	f.mu.Unlock()
}

func (f *Fake) SetErr(err error) {
	f.mu.Lock()
	f.Err = err
	f.mu.Unlock()
}

func (f *Fake) Transcribe(ctx context.Context, audio []byte, format encoder.Format) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.calls = append(f.calls, FakeCall{Audio: audio, Format: format})
	text, err := f.Text, f.Err
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &Result{Text: text}, nil
}

func (f *Fake) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeCall(nil), f.calls...)
}
