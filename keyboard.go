package folio

import (
	"regexp"
	"strings"
)

// Platform names the host platform for key normalization.
type Platform string

const (
	PlatformLinux   Platform = "linux"
	PlatformMac     Platform = "mac"
	PlatformWindows Platform = "windows"
)

// RawKey is a key event as delivered by the platform.
type RawKey struct {
	Key   string
	Ctrl  bool
	Alt   bool
	Shift bool
	Meta  bool
}

// KeymapState is a platform-neutral key chord.
type KeymapState struct {
	Key   string
	Ctrl  bool
	Alt   bool
	Shift bool
}

// NormalizeKey converts a raw key event into a KeymapState. On macOS the
// command key plays the role of ctrl.
func NormalizeKey(p Platform, k RawKey) KeymapState {
	ctrl := k.Ctrl
	if p == PlatformMac {
		ctrl = k.Meta
	}
	return KeymapState{Key: k.Key, Ctrl: ctrl, Alt: k.Alt, Shift: k.Shift}
}

// KeyMatcher reports whether a key name matches.
type KeyMatcher func(key string) bool

// Key matches a single key name, ignoring case.
func Key(name string) KeyMatcher {
	return func(key string) bool {
		return strings.EqualFold(key, name)
	}
}

// Keys matches any of the key names, ignoring case.
func Keys(names ...string) KeyMatcher {
	return func(key string) bool {
		for _, name := range names {
			if strings.EqualFold(key, name) {
				return true
			}
		}
		return false
	}
}

// KeyPattern matches key names against re.
func KeyPattern(re *regexp.Regexp) KeyMatcher {
	return re.MatchString
}

// KeyFunc adapts a predicate into a KeyMatcher.
func KeyFunc(fn func(key string) bool) KeyMatcher {
	return fn
}

// Keymap is the chord a shortcut responds to. Modifiers must match exactly.
type Keymap struct {
	Match KeyMatcher
	Ctrl  bool
	Alt   bool
	Shift bool
}

// Matches reports whether s triggers the keymap.
func (k Keymap) Matches(s KeymapState) bool {
	return k.Match != nil && k.Match(s.Key) &&
		k.Ctrl == s.Ctrl && k.Alt == s.Alt && k.Shift == s.Shift
}

// Shortcut binds a keymap to an action. An action returning false has not
// handled the key and dispatch moves on to the next shortcut.
type Shortcut struct {
	Keymap Keymap
	Action func(key string) bool
}

type shortcutEntry struct {
	id int
	sc Shortcut
}

// shortcutList keeps shortcuts newest first.
type shortcutList struct {
	next    int
	entries []shortcutEntry
}

func (l *shortcutList) add(sc Shortcut) func() {
	l.next++
	id := l.next
	l.entries = append([]shortcutEntry{{id: id, sc: sc}}, l.entries...)
	return func() {
		for i, e := range l.entries {
			if e.id == id {
				l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
				return
			}
		}
	}
}

func (l *shortcutList) list() []Shortcut {
	out := make([]Shortcut, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.sc
	}
	return out
}

// Keyboard dispatches key chords to zen-coding interceptors and shortcuts.
// Each editor owns its own Keyboard.
type Keyboard struct {
	selection    *Selection
	commander    *Commander
	zenCoding    bool
	shortcuts    shortcutList
	interceptors interceptorList
}

func newKeyboard(selection *Selection, commander *Commander, defs []*Definition, zenCoding bool) *Keyboard {
	k := &Keyboard{
		selection: selection,
		commander: commander,
		zenCoding: zenCoding,
	}
	for _, d := range defs {
		if d.ZenCoding != nil {
			k.interceptors.push(k.definitionInterceptor(d))
		}
	}
	return k
}

// AddShortcut registers a global shortcut. Later registrations are tried
// first. The returned function removes it.
func (k *Keyboard) AddShortcut(s Shortcut) func() {
	return k.shortcuts.add(s)
}

// AddZenCodingInterceptor registers an interceptor ahead of existing ones.
func (k *Keyboard) AddZenCodingInterceptor(i ZenCodingInterceptor) func() {
	return k.interceptors.add(i)
}

// Exec dispatches a key chord. It returns true when something handled it.
func (k *Keyboard) Exec(s KeymapState) bool {
	if !k.selection.IsSelected() {
		return false
	}
	if k.execZenCoding(s) {
		return true
	}
	if c := k.selection.CommonAncestorComponent(); c != nil {
		if handleShortcuts(s, c.Shortcuts()) {
			return true
		}
	}
	return handleShortcuts(s, k.shortcuts.list())
}

func (k *Keyboard) execZenCoding(s KeymapState) bool {
	if !k.zenCoding || s.Ctrl || s.Alt || s.Shift || !k.selection.IsCollapsed() {
		return false
	}
	slot := k.selection.CommonAncestorSlot()
	if slot == nil || slot != k.selection.StartSlot() || slot != k.selection.EndSlot() {
		return false
	}
	for _, i := range k.interceptors.list() {
		if i.Key == nil || !i.Key(s.Key) {
			continue
		}
		items := slot.Items()
		if len(items) != 1 {
			continue
		}
		text, ok := items[0].(Text)
		if !ok {
			continue
		}
		content := strings.TrimSuffix(string(text), "\n")
		if i.Match == nil || !i.Match(content) {
			continue
		}
		return i.Action(content)
	}
	return false
}

func handleShortcuts(s KeymapState, list []Shortcut) bool {
	for _, sc := range list {
		if !sc.Keymap.Matches(s) || sc.Action == nil {
			continue
		}
		if sc.Action(s.Key) {
			return true
		}
	}
	return false
}
