package config

// Linux evdev key codes from linux/input-event-codes.h. Each modifier name
// maps to both its left and right variant; holding either satisfies it.
var modifierCodes = map[string][]uint16{
	"super": {125, 126}, // KEY_LEFTMETA, KEY_RIGHTMETA
	"ctrl":  {29, 97},   // KEY_LEFTCTRL, KEY_RIGHTCTRL
	"alt":   {56, 100},  // KEY_LEFTALT, KEY_RIGHTALT
	"shift": {42, 54},   // KEY_LEFTSHIFT, KEY_RIGHTSHIFT
}

var keyCodes = map[string]uint16{
	"period":    52, // KEY_DOT
	"comma":     51, // KEY_COMMA
	"space":     57, // KEY_SPACE
	"slash":     53, // KEY_SLASH
	"semicolon": 39, // KEY_SEMICOLON
	"minus":     12, // KEY_MINUS
	"equal":     13, // KEY_EQUAL
	"grave":     41, // KEY_GRAVE
}

// ModifierCodes returns, per configured modifier, the set of key codes that
// satisfy it. The order matches the Modifiers slice.
func (h HotkeyConfig) ModifierCodes() [][]uint16 {
	out := make([][]uint16, 0, len(h.Modifiers))
	for _, m := range h.Modifiers {
		if codes, ok := modifierCodes[m]; ok {
			out = append(out, codes)
		}
	}
	return out
}

// KeyCode returns the evdev code of the configured target key.
func (h HotkeyConfig) KeyCode() uint16 {
	return keyCodes[h.Key]
}
