//go:build linux

package main

import (
	"fmt"

	"murmur/config"
	"murmur/device"
	"murmur/hotkey"
	"murmur/log"
)

// keySources owns one evdev reader per monitorable keyboard and keeps the
// set current as devices come and go. All readers feed the same event
// channel; the injection device and other synthetic keyboards are filtered
// out before a reader is ever opened.
type keySources struct {
	filter  *device.Filter
	watcher *device.Watcher
	readers map[string]*hotkey.Reader
	out     chan<- hotkey.KeyEvent
	stop    chan struct{}
}

func startKeySources(cfg config.Config, out chan<- hotkey.KeyEvent) (*keySources, error) {
	devices, err := device.Enumerate()
	if err != nil {
		return nil, fmt.Errorf("enumerating input devices: %w", err)
	}

	s := &keySources{
		filter:  device.NewFilter(cfg.Devices.SyntheticPatterns),
		readers: make(map[string]*hotkey.Reader),
		out:     out,
		stop:    make(chan struct{}),
	}

	for _, d := range devices {
		s.open(d)
	}
	if len(s.readers) == 0 {
		return nil, fmt.Errorf("no readable keyboards found (is your user in the input group?)")
	}

	watcher, err := device.Watch(devices)
	if err != nil {
		log.Warnf("device hotplug watch unavailable: %v", err)
	} else {
		s.watcher = watcher
		go s.watchLoop()
	}
	return s, nil
}

func (s *keySources) open(d device.InputDevice) {
	if !s.filter.Monitorable(d) {
		return
	}
	if _, ok := s.readers[d.EventPath]; ok {
		return
	}
	r, err := hotkey.OpenReader(d.EventPath, s.out)
	if err != nil {
		log.Warnf("cannot monitor %s (%s): %v", d.Name, d.EventPath, err)
		return
	}
	s.readers[d.EventPath] = r
	log.Infof("monitoring %s (%s)", d.Name, d.EventPath)
}

func (s *keySources) watchLoop() {
	for {
		select {
		case <-s.stop:
			return
		case ev, ok := <-s.watcher.Events():
			if !ok {
				return
			}
			switch ev.Type {
			case device.Added:
				s.open(ev.Device)
			case device.Removed:
				// The reader's own read error already reported the loss;
				// here we just drop the handle and the cached class.
				s.filter.Remove(ev.Device.EventPath)
				if r, ok := s.readers[ev.Device.EventPath]; ok {
					r.Close()
					delete(s.readers, ev.Device.EventPath)
					log.Infof("stopped monitoring %s", ev.Device.EventPath)
				}
			}
		}
	}
}

func (s *keySources) Close() {
	close(s.stop)
	if s.watcher != nil {
		s.watcher.Close()
	}
	for _, r := range s.readers {
		r.Close()
	}
}
