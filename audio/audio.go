// Package audio captures microphone input as 16-bit little-endian PCM.
// The backend is PulseAudio on Linux and miniaudio elsewhere; both deliver
// raw sample data through a swappable callback so a capture device can be
// opened once and reused across dictation sessions.
package audio

import (
	"fmt"
	"strings"
)

// DataCallback receives raw PCM as it arrives from the device.
type DataCallback func(data []byte, frameCount uint32)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
}

// FindDevice resolves the configured capture device name to a device.
// Empty name means the system default (nil). Matching is a case-insensitive
// substring match against the device name; no match is an error so a typo
// in the config does not silently record from the wrong microphone.
func FindDevice(ctx Context, name string) (*DeviceInfo, error) {
	if name == "" {
		return nil, nil
	}
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating capture devices: %w", err)
	}
	needle := strings.ToLower(name)
	for i := range devices {
		if strings.Contains(strings.ToLower(devices[i].Name), needle) {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("no capture device matching %q (have %d devices)", name, len(devices))
}

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"jabra", "galaxy buds", "pixel buds",
	"bluetooth", " bt ", " bt)",
}

// IsBluetooth guesses whether a capture device is a Bluetooth headset.
// Bluetooth mics often run a low-bitrate telephony profile that hurts
// transcription accuracy, so the health check warns about them.
func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
