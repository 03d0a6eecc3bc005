package folio

// RegisterDefaultShortcuts installs the standard editing keys on e and
// returns a function that removes them again.
func RegisterDefaultShortcuts(e *Editor) func() {
	k, cmd, sel := e.Keyboard(), e.Commander(), e.Selection()
	shortcuts := []Shortcut{
		{
			Keymap: Keymap{Match: Key("Enter")},
			Action: func(string) bool {
				cmd.Enter()
				return true
			},
		},
		{
			Keymap: Keymap{Match: Key("Enter"), Shift: true},
			Action: func(string) bool {
				slot, off := sel.StartSlot(), sel.StartOffset()
				toEnd := off == slot.Len() || slot.IsEmpty()
				content := Text("\n")
				if toEnd {
					content = "\n\n"
				}
				if cmd.Insert(content) && toEnd {
					sel.SetPosition(slot, off+1)
				}
				return true
			},
		},
		{
			Keymap: Keymap{Match: Keys("Delete", "Backspace")},
			Action: func(key string) bool {
				cmd.Delete(key == "Backspace")
				return true
			},
		},
		{
			Keymap: Keymap{Match: Keys("ArrowLeft", "ArrowRight")},
			Action: func(key string) bool {
				if key == "ArrowLeft" {
					sel.ToPrevious()
				} else {
					sel.ToNext()
				}
				return true
			},
		},
		{
			Keymap: Keymap{Match: Key("a"), Ctrl: true},
			Action: func(string) bool {
				sel.SelectAll()
				return true
			},
		},
		{
			Keymap: Keymap{Match: Key("x"), Ctrl: true},
			Action: func(string) bool {
				cmd.Cut()
				return true
			},
		},
		{
			Keymap: Keymap{Match: Key("z"), Ctrl: true},
			Action: func(string) bool {
				if h := e.History(); h != nil {
					h.Back()
				}
				return true
			},
		},
		{
			Keymap: Keymap{Match: Key("z"), Ctrl: true, Shift: true},
			Action: func(string) bool {
				if h := e.History(); h != nil {
					h.Forward()
				}
				return true
			},
		},
	}

	removers := make([]func(), 0, len(shortcuts))
	for _, s := range shortcuts {
		removers = append(removers, k.AddShortcut(s))
	}
	return func() {
		for _, remove := range removers {
			remove()
		}
	}
}
