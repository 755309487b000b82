//go:build linux

package device

import (
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay gives the kernel time to finish publishing a freshly plugged
// device before we re-enumerate.
const settleDelay = 100 * time.Millisecond

// Watcher reports device hot-plug as Added/Removed events by re-enumerating
// whenever /dev/input changes. It falls back to polling when inotify is
// unavailable.
type Watcher struct {
	events    chan Event
	stop      chan struct{}
	once      sync.Once
	enumerate func() ([]InputDevice, error)
}

// Watch starts watching and returns the event channel. initial seeds the
// known set so devices present at startup are not re-announced.
func Watch(initial []InputDevice) (*Watcher, error) {
	w := &Watcher{
		events:    make(chan Event, 8),
		stop:      make(chan struct{}),
		enumerate: Enumerate,
	}

	known := make(map[string]InputDevice, len(initial))
	for _, d := range initial {
		known[d.EventPath] = d
	}

	fsw, err := fsnotify.NewWatcher()
	if err == nil {
		err = fsw.Add("/dev/input")
	}
	if err != nil {
		if fsw != nil {
			fsw.Close()
		}
		go w.pollLoop(known)
		return w, nil
	}

	go w.notifyLoop(fsw, known)
	return w, nil
}

func (w *Watcher) Events() <-chan Event { return w.events }

func (w *Watcher) Close() {
	w.once.Do(func() { close(w.stop) })
}

func (w *Watcher) notifyLoop(fsw *fsnotify.Watcher, known map[string]InputDevice) {
	defer fsw.Close()
	for {
		select {
		case <-w.stop:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !strings.Contains(ev.Name, "event") {
				continue
			}
			time.Sleep(settleDelay)
			w.diff(known)
		case _, ok := <-fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) pollLoop(known map[string]InputDevice) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.diff(known)
		}
	}
}

func (w *Watcher) diff(known map[string]InputDevice) {
	current, err := w.enumerate()
	if err != nil {
		return
	}

	seen := make(map[string]InputDevice, len(current))
	for _, d := range current {
		seen[d.EventPath] = d
		if _, ok := known[d.EventPath]; !ok {
			known[d.EventPath] = d
			w.emit(Event{Type: Added, Device: d})
		}
	}
	for path, d := range known {
		if _, ok := seen[path]; !ok {
			delete(known, path)
			w.emit(Event{Type: Removed, Device: d})
		}
	}
}

func (w *Watcher) emit(ev Event) {
	select {
	case w.events <- ev:
	case <-w.stop:
	}
}
