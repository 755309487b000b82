//go:build linux

package inject

import "testing"

func TestCharToKey(t *testing.T) {
	cases := []struct {
		c     rune
		code  uint16
		shift bool
		ok    bool
	}{
		{'a', 30, false, true},
		{'z', 44, false, true},
		{'A', 30, true, true},
		{'0', 11, false, true},
		{'9', 10, false, true},
		{' ', 57, false, true},
		{'\n', 28, false, true},
		{'.', 52, false, true},
		{'?', 53, true, true},
		{'"', 40, true, true},
		// Runes without a US-layout key are skipped whole, never split
		// into bytes.
		{'é', 0, false, false},
		{'→', 0, false, false},
		{'あ', 0, false, false},
	}
	for _, tc := range cases {
		code, shift, ok := charToKey(tc.c)
		if code != tc.code || shift != tc.shift || ok != tc.ok {
			t.Errorf("charToKey(%q) = (%d, %v, %v), want (%d, %v, %v)",
				tc.c, code, shift, ok, tc.code, tc.shift, tc.ok)
		}
	}
}
