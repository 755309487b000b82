//go:build linux

package inject

import (
	"context"
	"fmt"
	"time"

	cb "github.com/atotto/clipboard"

	"murmur/config"
)

func newPlatform(cfg config.InjectConfig) (Injector, error) {
	kb := &keyboard{}
	switch cfg.Mode {
	case "paste":
		return &pasteInjector{kb: kb, focusDelay: cfg.FocusDelay()}, nil
	default:
		return &typeInjector{kb: kb, focusDelay: cfg.FocusDelay()}, nil
	}
}

// typeInjector replays text as individual keystrokes. Characters without a
// key on the US layout are skipped rather than failing the whole delivery.
type typeInjector struct {
	kb         *keyboard
	focusDelay time.Duration
}

func (t *typeInjector) Deliver(ctx context.Context, text string) error {
	if err := sleepCtx(ctx, t.focusDelay); err != nil {
		return err
	}
	if _, err := t.kb.get(); err != nil {
		return err
	}
	for i, r := range text {
		if err := ctx.Err(); err != nil {
			return err
		}
		code, shift, ok := charToKey(r)
		if !ok {
			continue
		}
		if err := t.kb.keyTap(code, shift); err != nil {
			return fmt.Errorf("typing at offset %d: %w", i, err)
		}
	}
	return nil
}

// pasteInjector copies the text, sends Ctrl+V and puts the previous
// clipboard contents back once the target application has had a moment to
// read the selection.
type pasteInjector struct {
	kb         *keyboard
	focusDelay time.Duration
}

func (p *pasteInjector) Deliver(ctx context.Context, text string) error {
	if _, err := p.kb.get(); err != nil {
		return err
	}

	saved, savedErr := cb.ReadAll()

	if err := cb.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard write: %w", err)
	}
	if err := sleepCtx(ctx, p.focusDelay); err != nil {
		return err
	}
	if err := p.kb.pasteChord(); err != nil {
		return fmt.Errorf("paste chord: %w", err)
	}

	// Restore is best effort; skip it when the old contents were unreadable
	// so we don't clobber the clipboard with an empty string.
	if savedErr == nil {
		sleepCtx(ctx, 300*time.Millisecond)
		cb.WriteAll(saved)
	}
	return nil
}
