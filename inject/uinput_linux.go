//go:build linux

package inject

import (
	"encoding/binary"
	"errors"
	"os"
	"sync"
	"syscall"
	"time"

	"murmur/config"
)

// ioctl constants from linux/uinput.h
const (
	uiSetEvbit  = 0x40045564 // UI_SET_EVBIT
	uiSetKeybit = 0x40045565 // UI_SET_KEYBIT
	uiDevCreate = 0x5501     // UI_DEV_CREATE
)

// input event types from linux/input-event-codes.h
const (
	evSyn = 0x00
	evKey = 0x01
)

const busUSB = 0x03

const (
	keyLeftCtrl  = 29
	keyLeftShift = 42
	keyV         = 47
)

type inputEvent struct {
	Time  syscall.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

type uinputUserDev struct {
	Name         [80]byte
	ID           inputID
	FfEffectsMax uint32
	Absmax       [64]int32
	Absmin       [64]int32
	Absfuzz      [64]int32
	Absflat      [64]int32
}

// keyboard is the lazily created uinput device. Its name is part of the
// default synthetic device patterns, so the hotkey side never monitors it.
type keyboard struct {
	once sync.Once
	fd   *os.File
	err  error
}

func (k *keyboard) get() (*os.File, error) {
	k.once.Do(k.create)
	return k.fd, k.err
}

func (k *keyboard) create() {
	path := "/dev/uinput"
	if _, err := os.Stat(path); err != nil {
		path = "/dev/input/uinput"
		if _, err := os.Stat(path); err != nil {
			k.err = errors.New("uinput device not found, try: sudo modprobe uinput")
			return
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|syscall.O_NONBLOCK, os.ModeDevice)
	if err != nil {
		k.err = err
		return
	}
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), uiSetEvbit, evKey); errno != 0 {
		k.err = errno
		f.Close()
		return
	}
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), uiSetEvbit, evSyn); errno != 0 {
		k.err = errno
		f.Close()
		return
	}
	// Register all standard keys so udev classifies this as a keyboard
	for i := uintptr(0); i < 256; i++ {
		if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), uiSetKeybit, i); errno != 0 {
			k.err = errno
			f.Close()
			return
		}
	}
	dev := uinputUserDev{}
	copy(dev.Name[:], config.InjectDeviceName)
	dev.ID.Bustype = busUSB
	dev.ID.Vendor = 0x1234
	dev.ID.Product = 0x5678
	dev.ID.Version = 1
	if err := binary.Write(f, binary.LittleEndian, &dev); err != nil {
		k.err = err
		f.Close()
		return
	}
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), uiDevCreate, 0); errno != 0 {
		k.err = errno
		f.Close()
		return
	}
	k.fd = f
	// Give compositor time to recognize the new input device
	time.Sleep(200 * time.Millisecond)
}

func (k *keyboard) writeEvent(typ, code uint16, value int32) error {
	ev := inputEvent{Type: typ, Code: code, Value: value}
	return binary.Write(k.fd, binary.LittleEndian, &ev)
}

func (k *keyboard) syn() error {
	return k.writeEvent(evSyn, 0, 0)
}

func (k *keyboard) keyTap(code uint16, shift bool) error {
	if shift {
		if err := k.writeEvent(evKey, keyLeftShift, 1); err != nil {
			return err
		}
		if err := k.syn(); err != nil {
			return err
		}
	}
	if err := k.writeEvent(evKey, code, 1); err != nil {
		return err
	}
	if err := k.syn(); err != nil {
		return err
	}
	if err := k.writeEvent(evKey, code, 0); err != nil {
		return err
	}
	if err := k.syn(); err != nil {
		return err
	}
	if shift {
		if err := k.writeEvent(evKey, keyLeftShift, 0); err != nil {
			return err
		}
		if err := k.syn(); err != nil {
			return err
		}
	}
	return nil
}

// pasteChord sends Ctrl+V with small settle pauses so the compositor
// registers the modifier state.
func (k *keyboard) pasteChord() error {
	if err := k.writeEvent(evKey, keyLeftCtrl, 1); err != nil {
		return err
	}
	if err := k.syn(); err != nil {
		return err
	}
	time.Sleep(5 * time.Millisecond)
	if err := k.writeEvent(evKey, keyV, 1); err != nil {
		return err
	}
	if err := k.syn(); err != nil {
		return err
	}
	time.Sleep(5 * time.Millisecond)
	if err := k.writeEvent(evKey, keyV, 0); err != nil {
		return err
	}
	if err := k.syn(); err != nil {
		return err
	}
	time.Sleep(5 * time.Millisecond)
	if err := k.writeEvent(evKey, keyLeftCtrl, 0); err != nil {
		return err
	}
	return k.syn()
}
