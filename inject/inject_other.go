//go:build !linux

package inject

import (
	"context"
	"fmt"
	"sync"
	"time"

	cb "github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"

	"murmur/config"
)

// Non-Linux platforms have no uinput, so both modes deliver through the
// clipboard and a synthesized paste chord.
func newPlatform(cfg config.InjectConfig) (Injector, error) {
	return &chordInjector{focusDelay: cfg.FocusDelay()}, nil
}

type chordInjector struct {
	focusDelay time.Duration

	once sync.Once
	kb   keybd_event.KeyBonding
	err  error
}

func (c *chordInjector) init() error {
	c.once.Do(func() {
		c.kb, c.err = keybd_event.NewKeyBonding()
	})
	return c.err
}

func (c *chordInjector) Deliver(ctx context.Context, text string) error {
	if err := c.init(); err != nil {
		return err
	}

	saved, savedErr := cb.ReadAll()

	if err := cb.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard write: %w", err)
	}
	if err := sleepCtx(ctx, c.focusDelay); err != nil {
		return err
	}

	c.kb.SetKeys(keybd_event.VK_V)
	c.kb.HasCTRL(true)
	if err := c.kb.Launching(); err != nil {
		return fmt.Errorf("paste chord: %w", err)
	}

	if savedErr == nil {
		sleepCtx(ctx, 300*time.Millisecond)
		cb.WriteAll(saved)
	}
	return nil
}
