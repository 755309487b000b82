//go:build linux

package hotkey

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"
)

const evKey = 1

// input_event is 24 bytes on 64-bit Linux:
// timeval (16 bytes) + type (2) + code (2) + value (4)
const inputEventSize = 24

// Reader blocking-reads one device's event stream and forwards key events
// to the shared channel. Events from a single device keep their original
// order; interleaving across devices is arrival order.
type Reader struct {
	device string
	f      *os.File
	out    chan<- KeyEvent
	stop   chan struct{}
	once   sync.Once
}

// OpenReader opens the evdev node and starts forwarding. Requires the user
// to be in the 'input' group.
func OpenReader(path string, out chan<- KeyEvent) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	r := &Reader{
		device: path,
		f:      f,
		out:    out,
		stop:   make(chan struct{}),
	}
	go r.readEvents()
	return r, nil
}

// Device returns the event node path this reader was opened on.
func (r *Reader) Device() string { return r.device }

func (r *Reader) readEvents() {
	buf := make([]byte, inputEventSize*16)

	for {
		select {
		case <-r.stop:
			return
		default:
		}

		n, err := r.f.Read(buf)
		if err != nil {
			// Device unplugged or revoked: everything it reported is
			// implicitly released.
			r.send(KeyEvent{Device: r.device, Gone: true, Time: time.Now()})
			return
		}

		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[i+16:])
			evCode := binary.LittleEndian.Uint16(buf[i+18:])
			evValue := int32(binary.LittleEndian.Uint32(buf[i+20:]))

			if evType != evKey {
				continue
			}
			r.send(KeyEvent{
				Device: r.device,
				Code:   evCode,
				Value:  evValue,
				Time:   time.Now(),
			})
		}
	}
}

func (r *Reader) send(ev KeyEvent) {
	select {
	case r.out <- ev:
	case <-r.stop:
	}
}

// Close stops forwarding and releases the device handle. The Gone event for
// a deliberately closed reader is suppressed by closing stop first.
func (r *Reader) Close() {
	r.once.Do(func() {
		close(r.stop)
		r.f.Close()
	})
}
