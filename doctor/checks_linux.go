//go:build linux

package doctor

import (
	"fmt"
	"os"
	"syscall"

	"murmur/config"
	"murmur/device"
)

func platformChecks(cfg config.Config) []result {
	return []result{
		checkInputDevices(cfg),
		checkUinput(),
	}
}

// checkInputDevices verifies that at least one physical keyboard exists and
// that its event node is readable by this user.
func checkInputDevices(cfg config.Config) result {
	r := result{name: "input devices"}

	devices, err := device.Enumerate()
	if err != nil {
		r.detail = fmt.Sprintf("cannot enumerate input devices: %v", err)
		return r
	}

	filter := device.NewFilter(cfg.Devices.SyntheticPatterns)
	var monitorable []device.InputDevice
	for _, d := range devices {
		if filter.Monitorable(d) {
			monitorable = append(monitorable, d)
		}
	}
	if len(monitorable) == 0 {
		r.detail = "no physical keyboards found"
		return r
	}

	f, err := os.Open(monitorable[0].EventPath)
	if err != nil {
		r.detail = fmt.Sprintf("cannot read %s: %v (add your user to the input group)",
			monitorable[0].EventPath, err)
		return r
	}
	f.Close()

	r.ok = true
	r.detail = fmt.Sprintf("%d physical keyboard(s), %s readable",
		len(monitorable), monitorable[0].EventPath)
	return r
}

// checkUinput verifies the virtual keyboard device can be created.
func checkUinput() result {
	r := result{name: "uinput"}

	path := "/dev/uinput"
	if _, err := os.Stat(path); err != nil {
		path = "/dev/input/uinput"
		if _, err := os.Stat(path); err != nil {
			r.detail = "uinput device not found, try: sudo modprobe uinput"
			return r
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|syscall.O_NONBLOCK, os.ModeDevice)
	if err != nil {
		r.detail = fmt.Sprintf("cannot open %s: %v (check udev permissions)", path, err)
		return r
	}
	f.Close()

	r.ok = true
	r.detail = path + " writable"
	return r
}
