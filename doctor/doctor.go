// Package doctor runs environment checks and reports why dictation would
// not work on this machine: input device access, the uinput injection
// device, audio capture, and the transcription engine.
package doctor

import (
	"fmt"
	"os"

	"murmur/audio"
	"murmur/config"
	"murmur/transcriber"
)

type result struct {
	name   string
	ok     bool
	warn   bool
	detail string
}

func (r result) print() {
	status := "PASS"
	if r.warn {
		status = "WARN"
	} else if !r.ok {
		status = "FAIL"
	}
	fmt.Printf("  [%s] %-18s %s\n", status, r.name, r.detail)
}

// Run executes all checks and returns the process exit code: 0 when every
// check passed (warnings allowed), 1 otherwise.
func Run(cfg config.Config) int {
	fmt.Println("murmur doctor - environment diagnostics")
	fmt.Println()

	var results []result
	results = append(results, platformChecks(cfg)...)
	results = append(results, checkAudio(cfg))
	results = append(results, checkEngine(cfg))

	allPass := true
	for _, r := range results {
		r.print()
		if !r.ok && !r.warn {
			allPass = false
		}
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed.")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkAudio(cfg config.Config) result {
	r := result{name: "audio capture"}

	actx, err := audio.NewContext()
	if err != nil {
		r.detail = fmt.Sprintf("cannot connect to audio backend: %v", err)
		return r
	}
	defer actx.Close()

	devices, err := actx.Devices()
	if err != nil {
		r.detail = fmt.Sprintf("cannot list capture devices: %v", err)
		return r
	}
	if len(devices) == 0 {
		r.detail = "no capture devices found"
		return r
	}

	device, err := audio.FindDevice(actx, cfg.Audio.Device)
	if err != nil {
		r.detail = err.Error()
		return r
	}

	r.ok = true
	name := "system default"
	if device != nil {
		name = device.Name
	}
	r.detail = fmt.Sprintf("%d devices, using %s", len(devices), name)

	if device != nil && audio.IsBluetooth(device.Name) {
		r.warn = true
		r.detail += " (Bluetooth mic, expect lower transcription quality)"
	}
	return r
}

func checkEngine(cfg config.Config) result {
	r := result{name: "engine"}

	groqKey := os.Getenv("GROQ_API_KEY")
	engine := cfg.Transcriber.Engine
	if engine == "auto" {
		if groqKey != "" {
			engine = "groq"
		} else {
			engine = "whisper-cli"
		}
	}

	switch engine {
	case "groq":
		if groqKey == "" {
			r.detail = "engine groq selected but GROQ_API_KEY is not set"
			return r
		}
		r.ok = true
		r.detail = "groq (API key set)"
	case "whisper-cli":
		w, err := transcriber.NewWhisperCLI(cfg.Transcriber)
		if err != nil {
			r.detail = err.Error()
			return r
		}
		r.ok = true
		r.detail = fmt.Sprintf("whisper-cli at %s, model %s", w.BinaryPath(), w.ModelPath())
	}
	return r
}
