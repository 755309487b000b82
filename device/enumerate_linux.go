//go:build linux

package device

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
)

// Key codes checked against the capability bitmap. A device that can report
// letters and at least one modifier is a real keyboard for our purposes.
const (
	keyA         = 30
	keyLeftCtrl  = 29
	keyLeftMeta  = 125
	keyRightMeta = 126
)

// Enumerate lists input devices by parsing /proc/bus/input/devices.
// Each block describes one device: identity (I:), name (N:), handlers (H:)
// including the eventN node, and capability bitmaps (B:).
func Enumerate() ([]InputDevice, error) {
	f, err := os.Open("/proc/bus/input/devices")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseDevices(f)
}

func parseDevices(r io.Reader) ([]InputDevice, error) {
	var devices []InputDevice
	var cur InputDevice
	var hasEvent bool

	flush := func() {
		if hasEvent {
			devices = append(devices, cur)
		}
		cur = InputDevice{}
		hasEvent = false
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "I:"):
			for _, part := range strings.Fields(line) {
				if v, ok := strings.CutPrefix(part, "Bus="); ok {
					cur.Bus = v
				}
			}
		case strings.HasPrefix(line, "N: Name="):
			cur.Name = strings.Trim(strings.TrimPrefix(line, "N: Name="), `"`)
		case strings.HasPrefix(line, "H: Handlers="):
			for _, h := range strings.Fields(strings.TrimPrefix(line, "H: Handlers=")) {
				if strings.HasPrefix(h, "event") {
					cur.EventPath = "/dev/input/" + h
					hasEvent = true
				}
			}
		case strings.HasPrefix(line, "B: KEY="):
			words := strings.Fields(strings.TrimPrefix(line, "B: KEY="))
			cur.HasLetterKeys = hasKeyBit(words, keyA)
			cur.HasModifierKeys = hasKeyBit(words, keyLeftMeta) ||
				hasKeyBit(words, keyRightMeta) ||
				hasKeyBit(words, keyLeftCtrl)
		case line == "":
			flush()
		}
	}
	flush()
	return devices, scanner.Err()
}

// hasKeyBit tests one bit of the kernel's KEY capability bitmap. The bitmap
// is printed as 64-bit hex words, highest word first, so the last word holds
// bits 0-63.
func hasKeyBit(words []string, bit uint) bool {
	idx := int(bit / 64)
	if idx >= len(words) {
		return false
	}
	word, err := strconv.ParseUint(words[len(words)-1-idx], 16, 64)
	if err != nil {
		return false
	}
	return word>>(bit%64)&1 == 1
}
