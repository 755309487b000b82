//go:build !linux

package hotkey

import (
	"fmt"
	"time"

	xhotkey "golang.design/x/hotkey"
)

// XSource registers the combination with the OS hotkey facility and feeds
// equivalent key events into the machine's stream. Raw device access (and
// with it device filtering) is Linux-only; other platforms get the OS-level
// registration, which by construction never sees injected events.
type XSource struct {
	hk     *xhotkey.Hotkey
	out    chan<- KeyEvent
	mods   []uint16
	target uint16
	stop   chan struct{}
}

var xModifiers = map[string]xhotkey.Modifier{
	"ctrl":  xhotkey.ModCtrl,
	"shift": xhotkey.ModShift,
}

var xKeys = map[string]xhotkey.Key{
	"space": xhotkey.KeySpace,
}

// NewXSource maps the configured names onto golang.design/x/hotkey and
// starts forwarding. Combinations outside the portable subset are rejected;
// configure ctrl/shift + space on non-Linux hosts.
func NewXSource(modifiers []string, key string, modCodes [][]uint16, keyCode uint16, out chan<- KeyEvent) (*XSource, error) {
	var mods []xhotkey.Modifier
	var firstCodes []uint16
	for i, name := range modifiers {
		m, ok := xModifiers[name]
		if !ok {
			return nil, fmt.Errorf("modifier %q not supported on this platform", name)
		}
		mods = append(mods, m)
		firstCodes = append(firstCodes, modCodes[i][0])
	}
	k, ok := xKeys[key]
	if !ok {
		return nil, fmt.Errorf("key %q not supported on this platform", key)
	}

	s := &XSource{
		hk:     xhotkey.New(mods, k),
		out:    out,
		mods:   firstCodes,
		target: keyCode,
		stop:   make(chan struct{}),
	}
	if err := s.hk.Register(); err != nil {
		return nil, err
	}
	go s.forward()
	return s, nil
}

func (s *XSource) forward() {
	const device = "xhotkey"
	for {
		select {
		case <-s.stop:
			return
		case <-s.hk.Keydown():
			now := time.Now()
			for _, code := range s.mods {
				s.out <- KeyEvent{Device: device, Code: code, Value: ValuePress, Time: now}
			}
			s.out <- KeyEvent{Device: device, Code: s.target, Value: ValuePress, Time: now}
		}

		select {
		case <-s.stop:
			return
		case <-s.hk.Keyup():
			now := time.Now()
			s.out <- KeyEvent{Device: device, Code: s.target, Value: ValueRelease, Time: now}
			for _, code := range s.mods {
				s.out <- KeyEvent{Device: device, Code: code, Value: ValueRelease, Time: now}
			}
		}
	}
}

func (s *XSource) Close() {
	close(s.stop)
	s.hk.Unregister()
}
