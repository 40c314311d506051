package hotkey

import (
	"fmt"
	"strings"

	"inputmacro/internal/macro"
)

var keyNames = map[uint16]string{
	0x08: "BACKSPACE",
	0x09: "TAB",
	0x0D: "ENTER",
	0x13: "PAUSE",
	0x14: "CAPSLOCK",
	0x1B: "ESC",
	0x20: "SPACE",
	0x21: "PAGEUP",
	0x22: "PAGEDOWN",
	0x23: "END",
	0x24: "HOME",
	0x25: "LEFT",
	0x26: "UP",
	0x27: "RIGHT",
	0x28: "DOWN",
	0x2C: "PRINTSCREEN",
	0x2D: "INSERT",
	0x2E: "DELETE",
	0x91: "SCROLLLOCK",
}

var keyCodes = func() map[string]uint16 {
	m := make(map[string]uint16, len(keyNames)+24)
	for vk, name := range keyNames {
		m[name] = vk
	}
	m["ESCAPE"] = 0x1B
	m["RETURN"] = 0x0D
	m["DEL"] = 0x2E
	m["INS"] = 0x2D
	return m
}()

var modifierNames = map[string]Modifiers{
	"CTRL":    ModCtrl,
	"CONTROL": ModCtrl,
	"ALT":     ModAlt,
	"SHIFT":   ModShift,
	"WIN":     ModWin,
	"CMD":     ModWin,
	"SUPER":   ModWin,
}

// KeyName returns the display name of a virtual key, or "" if unknown.
func KeyName(vk uint16) string {
	if name, ok := keyNames[vk]; ok {
		return name
	}
	// Letters and digits share their ASCII codes.
	if (vk >= 0x41 && vk <= 0x5A) || (vk >= 0x30 && vk <= 0x39) {
		return string(rune(vk))
	}
	if vk >= 0x70 && vk <= 0x87 {
		return fmt.Sprintf("F%d", vk-0x6F)
	}
	return ""
}

func keyCode(name string) (uint16, bool) {
	if vk, ok := keyCodes[name]; ok {
		return vk, true
	}
	if len(name) == 1 {
		c := name[0]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			return uint16(c), true
		}
	}
	var n int
	if _, err := fmt.Sscanf(name, "F%d", &n); err == nil && n >= 1 && n <= 24 && name == fmt.Sprintf("F%d", n) {
		return uint16(0x6F + n), true
	}
	return 0, false
}

// ParseCombo parses a combination such as "Ctrl+Shift+R" into modifiers and a
// virtual key. Exactly one non-modifier key is required.
func ParseCombo(s string) (Modifiers, uint16, error) {
	if strings.TrimSpace(s) == "" {
		return 0, 0, fmt.Errorf("%w: empty hotkey", macro.ErrValidation)
	}

	var mods Modifiers
	var key uint16
	var haveKey bool
	for _, part := range strings.Split(strings.ToUpper(s), "+") {
		part = strings.TrimSpace(part)
		if m, ok := modifierNames[part]; ok {
			mods |= m
			continue
		}
		vk, ok := keyCode(part)
		if !ok {
			return 0, 0, fmt.Errorf("%w: unknown key %q in hotkey %q", macro.ErrValidation, part, s)
		}
		if haveKey {
			return 0, 0, fmt.Errorf("%w: hotkey %q has more than one key", macro.ErrValidation, s)
		}
		key, haveKey = vk, true
	}
	if !haveKey {
		return 0, 0, fmt.Errorf("%w: hotkey %q has no key", macro.ErrValidation, s)
	}
	return mods, key, nil
}

// FormatCombo renders modifiers and key as "Ctrl+Alt+Shift+Win+KEY".
func FormatCombo(mods Modifiers, key uint16) string {
	var parts []string
	if mods&ModCtrl != 0 {
		parts = append(parts, "Ctrl")
	}
	if mods&ModAlt != 0 {
		parts = append(parts, "Alt")
	}
	if mods&ModShift != 0 {
		parts = append(parts, "Shift")
	}
	if mods&ModWin != 0 {
		parts = append(parts, "Win")
	}
	name := KeyName(key)
	if name == "" {
		name = fmt.Sprintf("0x%02X", key)
	}
	return strings.Join(append(parts, name), "+")
}
