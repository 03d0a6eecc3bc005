package folio

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ctrl(key string) KeymapState {
	return KeymapState{Key: key, Ctrl: true}
}

func TestKeyboardNewestShortcutWins(t *testing.T) {
	f := newFixture(t, Options{}, document(t, "hello"))
	f.editor.Selection().SetPosition(f.block(0), 0)
	k := f.editor.Keyboard()

	var calls []string
	shortcut := func(name string, handled bool) Shortcut {
		return Shortcut{
			Keymap: Keymap{Match: Key("z"), Ctrl: true},
			Action: func(string) bool {
				calls = append(calls, name)
				return handled
			},
		}
	}
	k.AddShortcut(shortcut("A", true))
	removeB := k.AddShortcut(shortcut("B", true))

	require.True(t, k.Exec(ctrl("z")))
	assert.Equal(t, []string{"B"}, calls)

	removeB()
	calls = nil
	require.True(t, k.Exec(ctrl("z")))
	assert.Equal(t, []string{"A"}, calls)

	k.AddShortcut(shortcut("C", false))
	calls = nil
	require.True(t, k.Exec(ctrl("z")))
	assert.Equal(t, []string{"C", "A"}, calls, "an unhandled key falls through")
}

func TestKeyboardModifiersMatchExactly(t *testing.T) {
	f := newFixture(t, Options{}, document(t, "hello"))
	f.editor.Selection().SetPosition(f.block(0), 0)
	k := f.editor.Keyboard()
	hits := 0
	k.AddShortcut(Shortcut{
		Keymap: Keymap{Match: Key("b"), Ctrl: true},
		Action: func(string) bool { hits++; return true },
	})

	tests := []struct {
		name  string
		state KeymapState
		want  bool
	}{
		{"exact", ctrl("b"), true},
		{"case insensitive", ctrl("B"), true},
		{"extra shift", KeymapState{Key: "b", Ctrl: true, Shift: true}, false},
		{"missing ctrl", KeymapState{Key: "b"}, false},
		{"extra alt", KeymapState{Key: "b", Ctrl: true, Alt: true}, false},
		{"other key", ctrl("i"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := hits
			assert.Equal(t, tt.want, k.Exec(tt.state))
			if tt.want {
				assert.Equal(t, before+1, hits)
			} else {
				assert.Equal(t, before, hits)
			}
		})
	}
}

func TestKeyboardComponentShortcutsFirst(t *testing.T) {
	f := newFixture(t, Options{}, document(t, "hello", "world"))
	k := f.editor.Keyboard()
	var calls []string
	k.AddShortcut(Shortcut{
		Keymap: Keymap{Match: Key("k"), Ctrl: true},
		Action: func(string) bool { calls = append(calls, "global"); return true },
	})
	para := f.block(0).Parent()
	para.AddShortcut(Shortcut{
		Keymap: Keymap{Match: Key("k"), Ctrl: true},
		Action: func(string) bool { calls = append(calls, "paragraph"); return true },
	})

	f.editor.Selection().SetPosition(f.block(0), 1)
	require.True(t, k.Exec(ctrl("k")))
	f.editor.Selection().SetPosition(f.block(1), 1)
	require.True(t, k.Exec(ctrl("k")))
	assert.Equal(t, []string{"paragraph", "global"}, calls)
}

func TestKeyboardNeedsSelection(t *testing.T) {
	f := newFixture(t, Options{}, document(t, "hello"))
	called := false
	f.editor.Keyboard().AddShortcut(Shortcut{
		Keymap: Keymap{Match: Key("a")},
		Action: func(string) bool { called = true; return true },
	})
	assert.False(t, f.editor.Keyboard().Exec(KeymapState{Key: "a"}))
	assert.False(t, called)
}

func TestKeyMatchers(t *testing.T) {
	assert.True(t, Keys("Delete", "Backspace")("backspace"))
	assert.False(t, Keys("Delete", "Backspace")("Enter"))
	digits := KeyPattern(regexp.MustCompile(`^[0-9]$`))
	assert.True(t, digits("7"))
	assert.False(t, digits("77"))
	assert.True(t, KeyFunc(func(k string) bool { return len(k) == 1 })("x"))
	assert.False(t, Keymap{}.Matches(KeymapState{Key: "x"}), "no matcher matches nothing")
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name     string
		platform Platform
		raw      RawKey
		want     KeymapState
	}{
		{"linux ctrl", PlatformLinux, RawKey{Key: "z", Ctrl: true}, KeymapState{Key: "z", Ctrl: true}},
		{"linux meta ignored", PlatformLinux, RawKey{Key: "z", Meta: true}, KeymapState{Key: "z"}},
		{"mac command", PlatformMac, RawKey{Key: "z", Meta: true, Shift: true}, KeymapState{Key: "z", Ctrl: true, Shift: true}},
		{"mac control ignored", PlatformMac, RawKey{Key: "z", Ctrl: true}, KeymapState{Key: "z"}},
		{"windows alt", PlatformWindows, RawKey{Key: "x", Alt: true}, KeymapState{Key: "x", Alt: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKey(tt.platform, tt.raw))
		})
	}
}

func TestEditorExecNormalizes(t *testing.T) {
	f := newFixture(t, Options{Platform: PlatformMac}, document(t, "hello"))
	f.editor.Selection().SetPosition(f.block(0), 0)
	hits := 0
	f.editor.Keyboard().AddShortcut(Shortcut{
		Keymap: Keymap{Match: Key("s"), Ctrl: true},
		Action: func(string) bool { hits++; return true },
	})
	assert.True(t, f.editor.Exec(RawKey{Key: "s", Meta: true}))
	assert.False(t, f.editor.Exec(RawKey{Key: "s", Ctrl: true}))
	assert.Equal(t, 1, hits)
}
