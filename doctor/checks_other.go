//go:build !linux

package doctor

import "murmur/config"

// Non-Linux platforms register the hotkey with the OS at startup, so there
// is nothing to probe ahead of time.
func platformChecks(cfg config.Config) []result {
	return []result{{
		name:   "hotkey",
		ok:     true,
		detail: "OS-level registration (" + cfg.Hotkey.String() + ")",
	}}
}
