// Package config loads and validates the daemon configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the full daemon configuration. It is immutable for the
// daemon's running lifetime; changing the hotkey requires a restart.
type Config struct {
	Hotkey      HotkeyConfig      `toml:"hotkey"`
	Devices     DeviceConfig      `toml:"devices"`
	Transcriber TranscriberConfig `toml:"transcriber"`
	Audio       AudioConfig       `toml:"audio"`
	Processing  ProcessingConfig  `toml:"processing"`
	Inject      InjectConfig      `toml:"inject"`
	Notify      NotifyConfig      `toml:"notify"`
}

// HotkeyConfig is the push-to-talk combination: all modifiers must be held
// when the key goes down, and the key must stay down at least MinDwellMS
// before a release counts as a commit.
type HotkeyConfig struct {
	Modifiers  []string `toml:"modifiers"`
	Key        string   `toml:"key"`
	MinDwellMS int      `toml:"min_dwell_ms"`
}

func (h HotkeyConfig) MinDwell() time.Duration {
	return time.Duration(h.MinDwellMS) * time.Millisecond
}

// String returns the human-readable combination, e.g. "super+period".
func (h HotkeyConfig) String() string {
	s := ""
	for _, m := range h.Modifiers {
		s += m + "+"
	}
	return s + h.Key
}

// DeviceConfig controls which input devices are monitored.
// SyntheticPatterns is a lowercase substring list matched against device
// names; matching devices are classified synthetic and never monitored.
// The daemon's own injection device must always be covered by this list.
type DeviceConfig struct {
	SyntheticPatterns []string `toml:"synthetic_patterns"`
}

// TranscriberConfig selects and tunes the speech engine.
// Engine is "auto", "whisper-cli", or "groq". Language is an ISO code,
// or empty for engine-side auto-detection.
type TranscriberConfig struct {
	Engine     string `toml:"engine"`
	Language   string `toml:"language"`
	Model      string `toml:"model"`
	Threads    int    `toml:"threads"`
	TimeoutSec int    `toml:"timeout_sec"`
}

func (t TranscriberConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSec) * time.Second
}

// AudioConfig selects the capture device. Empty Device means system default.
type AudioConfig struct {
	Device string `toml:"device"`
}

// ProcessingConfig toggles the deterministic text transforms applied to raw
// transcription output before injection.
type ProcessingConfig struct {
	RemoveFillerWords bool     `toml:"remove_filler_words"`
	FillerWords       []string `toml:"filler_words"`
	AutoCapitalize    bool     `toml:"auto_capitalize"`
	AutoPunctuate     bool     `toml:"auto_punctuate"`
}

// InjectConfig controls text delivery. Mode "type" sends per-character
// keystrokes through the virtual keyboard; "paste" copies to the clipboard
// and sends Ctrl+V, restoring the previous clipboard afterwards.
type InjectConfig struct {
	Mode         string `toml:"mode"`
	FocusDelayMS int    `toml:"focus_delay_ms"`
	TimeoutSec   int    `toml:"timeout_sec"`
}

func (i InjectConfig) FocusDelay() time.Duration {
	return time.Duration(i.FocusDelayMS) * time.Millisecond
}

func (i InjectConfig) Timeout() time.Duration {
	return time.Duration(i.TimeoutSec) * time.Second
}

type NotifyConfig struct {
	Enabled bool `toml:"enabled"`
}

// Default returns the built-in configuration: super+period push-to-talk,
// local whisper-cli engine, filler removal and capitalization on.
func Default() Config {
	return Config{
		Hotkey: HotkeyConfig{
			Modifiers:  []string{"super"},
			Key:        "period",
			MinDwellMS: 50,
		},
		Devices: DeviceConfig{
			SyntheticPatterns: []string{
				InjectDeviceName,
				"virtual",
				"ydotoold",
				"xdotool",
				"uinput",
				"sleep button",
				"power button",
				"lid switch",
				"video bus",
			},
		},
		Transcriber: TranscriberConfig{
			Engine:     "auto",
			Language:   "en",
			Model:      "medium",
			Threads:    4,
			TimeoutSec: 60,
		},
		Processing: ProcessingConfig{
			RemoveFillerWords: true,
			FillerWords:       []string{"um", "uh", "like", "you know"},
			AutoCapitalize:    true,
			AutoPunctuate:     false,
		},
		Inject: InjectConfig{
			Mode:         "type",
			FocusDelayMS: 300,
			TimeoutSec:   10,
		},
		Notify: NotifyConfig{Enabled: true},
	}
}

// InjectDeviceName is the name the injection backend registers its virtual
// keyboard under. It is part of the default synthetic pattern list so the
// daemon never listens to its own keystrokes.
const InjectDeviceName = "murmur-inject"

// DefaultPath returns ~/.config/murmur/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "murmur", "config.toml"), nil
}

// Load reads the config at path, decoding over the defaults so absent keys
// keep their default values. A missing file yields the defaults and writes
// them to path for the user to edit. Any validation failure is fatal to
// daemon startup.
func Load(path string) (Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if werr := writeDefault(path, cfg); werr != nil {
			return cfg, nil // read-only config dir is not an error
		}
		return cfg, cfg.Validate()
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func writeDefault(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// Validate checks the parts of the config that would otherwise fail deep
// inside the daemon: the hotkey combination, timeouts, and inject mode.
func (c Config) Validate() error {
	if len(c.Hotkey.Modifiers) == 0 {
		return fmt.Errorf("hotkey: at least one modifier is required")
	}
	for _, m := range c.Hotkey.Modifiers {
		if _, ok := modifierCodes[m]; !ok {
			return fmt.Errorf("hotkey: unknown modifier %q", m)
		}
	}
	if _, ok := keyCodes[c.Hotkey.Key]; !ok {
		return fmt.Errorf("hotkey: unknown key %q", c.Hotkey.Key)
	}
	if c.Hotkey.MinDwellMS < 0 {
		return fmt.Errorf("hotkey: min_dwell_ms must not be negative")
	}
	switch c.Inject.Mode {
	case "type", "paste":
	default:
		return fmt.Errorf("inject: unknown mode %q (use type or paste)", c.Inject.Mode)
	}
	switch c.Transcriber.Engine {
	case "auto", "whisper-cli", "groq":
	default:
		return fmt.Errorf("transcriber: unknown engine %q", c.Transcriber.Engine)
	}
	if c.Transcriber.TimeoutSec <= 0 {
		return fmt.Errorf("transcriber: timeout_sec must be positive")
	}
	return nil
}
