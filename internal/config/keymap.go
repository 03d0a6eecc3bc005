package config

import (
	"fmt"
	"strings"
)

// Chord is a parsed key binding such as "ctrl+shift+z".
type Chord struct {
	Key   string
	Ctrl  bool
	Alt   bool
	Shift bool
}

func (c Chord) String() string {
	var parts []string
	if c.Ctrl {
		parts = append(parts, "ctrl")
	}
	if c.Alt {
		parts = append(parts, "alt")
	}
	if c.Shift {
		parts = append(parts, "shift")
	}
	return strings.Join(append(parts, c.Key), "+")
}

// ParseChord parses modifiers joined to a key with "+". Modifier names are
// case-insensitive; "cmd" and "meta" are aliases of "ctrl". A single
// character key is lowercased.
func ParseChord(s string) (Chord, error) {
	var c Chord
	parts := strings.Split(s, "+")
	key := parts[len(parts)-1]
	if strings.TrimSpace(key) == "" {
		return c, fmt.Errorf("chord %q has no key", s)
	}
	for _, mod := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(mod)) {
		case "ctrl", "control", "cmd", "meta":
			c.Ctrl = true
		case "alt", "option":
			c.Alt = true
		case "shift":
			c.Shift = true
		default:
			return c, fmt.Errorf("chord %q: unknown modifier %q", s, mod)
		}
	}
	if len([]rune(key)) == 1 {
		key = strings.ToLower(key)
	}
	c.Key = key
	return c, nil
}

// Bindings parses the keymap into chords, skipping invalid entries.
func (c *Config) Bindings() map[Chord]string {
	out := make(map[Chord]string, len(c.Keymap))
	for chord, command := range c.Keymap {
		parsed, err := ParseChord(chord)
		if err != nil {
			continue
		}
		out[parsed] = command
	}
	return out
}
