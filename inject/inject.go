// Package inject delivers transcribed text into the focused window. Mode
// "type" replays the text as per-character keystrokes from a virtual
// keyboard; mode "paste" goes through the clipboard and a Ctrl+V chord,
// restoring the previous clipboard contents afterwards.
package inject

import (
	"context"
	"sync"
	"time"

	"murmur/config"
)

type Injector interface {
	// Deliver waits out the focus delay and then injects text. It returns
	// early with ctx.Err() when the context is cancelled; text already
	// injected stays injected.
	Deliver(ctx context.Context, text string) error
}

// New builds the injector for the configured mode on this platform.
func New(cfg config.InjectConfig) (Injector, error) {
	return newPlatform(cfg)
}

// sleepCtx waits d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fake records deliveries for tests.
type Fake struct {
	Err error

	mu    sync.Mutex
	texts []string
}

func (f *Fake) SetErr(err error) {
	f.mu.Lock()
	f.Err = err
	f.mu.Unlock()
}

func (f *Fake) Deliver(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.texts = append(f.texts, text)
	return nil
}

func (f *Fake) Delivered() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}
