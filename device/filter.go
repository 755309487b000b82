package device

import (
	"strings"
	"sync"
)

const busVirtual = "0006"

// Filter classifies devices as physical or synthetic. The verdict for a
// device is computed once and cached for as long as the device is present;
// Remove must be called when it unplugs so a later device reusing the same
// event node is classified afresh.
type Filter struct {
	patterns []string

	mu    sync.Mutex
	cache map[string]Class
}

// NewFilter builds a filter from the configured synthetic name patterns.
// Matching is lowercase substring, same as the pattern list semantics the
// injection tools themselves advertise (ydotoold, xdotool, uinput, ...).
func NewFilter(patterns []string) *Filter {
	lowered := make([]string, len(patterns))
	for i, p := range patterns {
		lowered[i] = strings.ToLower(p)
	}
	return &Filter{
		patterns: lowered,
		cache:    make(map[string]Class),
	}
}

// Classify returns the device's class, computing and caching it on first use.
func (f *Filter) Classify(dev InputDevice) Class {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.cache[dev.EventPath]; ok {
		return c
	}
	c := f.classify(dev)
	f.cache[dev.EventPath] = c
	return c
}

func (f *Filter) classify(dev InputDevice) Class {
	name := strings.ToLower(dev.Name)
	for _, p := range f.patterns {
		if strings.Contains(name, p) {
			return Synthetic
		}
	}
	if dev.Bus == busVirtual {
		return Synthetic
	}
	return Physical
}

// Monitorable reports whether the hotkey reader should open this device:
// it must be physical and carry full keyboard capabilities.
func (f *Filter) Monitorable(dev InputDevice) bool {
	return f.Classify(dev) == Physical && dev.HasLetterKeys && dev.HasModifierKeys
}

// Remove drops the cached verdict for an unplugged device.
func (f *Filter) Remove(eventPath string) {
	f.mu.Lock()
	delete(f.cache, eventPath)
	f.mu.Unlock()
}
