// Package device enumerates input devices and decides which ones the daemon
// may monitor. Devices created by software (including the daemon's own
// injection backend) must never be monitored: the daemon would otherwise
// detect its own injected keystrokes as a fresh hotkey press.
package device

// Class is the filter's verdict for one device.
type Class int

const (
	Unknown Class = iota
	Physical
	Synthetic
)

func (c Class) String() string {
	switch c {
	case Physical:
		return "physical"
	case Synthetic:
		return "synthetic"
	default:
		return "unknown"
	}
}

// InputDevice describes one enumerated input device.
type InputDevice struct {
	// EventPath is the evdev node, e.g. /dev/input/event3.
	EventPath string
	Name      string
	// Bus is the four-digit hex bus code from the kernel (0003 = USB,
	// 0006 = virtual).
	Bus string
	// HasLetterKeys and HasModifierKeys report whether the key capability
	// bitmap covers letters and at least one hotkey modifier. Devices
	// without both are power buttons, lid switches and the like.
	HasLetterKeys   bool
	HasModifierKeys bool
}

// EventType describes a hot-plug change.
type EventType int

const (
	Added EventType = iota
	Removed
)

// Event is one hot-plug notification.
type Event struct {
	Type   EventType
	Device InputDevice
}
