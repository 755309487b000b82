// Package hotkey turns raw multi-device key events into push-to-talk
// session signals. One reader goroutine per monitored device feeds a single
// channel; the Machine consumes it and tracks the press/hold/release state.
package hotkey

import "time"

// Key event values as reported by evdev.
const (
	ValueRelease int32 = 0
	ValuePress   int32 = 1
	ValueRepeat  int32 = 2
)

// KeyEvent is one key transition from one device. Gone marks the loss of
// the device itself: everything it was reporting counts as released.
type KeyEvent struct {
	Device string
	Code   uint16
	Value  int32
	Gone   bool
	Time   time.Time
}
