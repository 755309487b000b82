//go:build !linux

package main

import (
	"murmur/config"
	"murmur/hotkey"
)

// Without evdev the hotkey comes from the OS registration facility, which
// never reports injected keystrokes in the first place.
type keySources struct {
	src *hotkey.XSource
}

func startKeySources(cfg config.Config, out chan<- hotkey.KeyEvent) (*keySources, error) {
	src, err := hotkey.NewXSource(
		cfg.Hotkey.Modifiers, cfg.Hotkey.Key,
		cfg.Hotkey.ModifierCodes(), cfg.Hotkey.KeyCode(),
		out,
	)
	if err != nil {
		return nil, err
	}
	return &keySources{src: src}, nil
}

func (s *keySources) Close() {
	s.src.Close()
}
