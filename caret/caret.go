// Package caret moves a collapsed selection to the start or end of its
// visual line by stepping one position at a time and watching where the
// caret lands.
package caret

import (
	"math"

	"github.com/phroun/folio"
)

// Tolerance is the largest change of the caret's bottom edge still counted
// as the same line.
const Tolerance = 5.0

// MaxSteps bounds a single walk.
const MaxSteps = 1 << 16

// Mover steps the caret by one position. *folio.Selection implements it.
type Mover interface {
	ToPrevious() bool
	ToNext() bool
}

// RectProvider reports the caret rectangle in view coordinates. It returns
// false when the caret is not laid out.
type RectProvider interface {
	CaretRect() (folio.Rect, bool)
}

// RectFunc adapts a function into a RectProvider.
type RectFunc func() (folio.Rect, bool)

// CaretRect calls f.
func (f RectFunc) CaretRect() (folio.Rect, bool) { return f() }

func bottom(r folio.Rect) float64 { return r.Top + r.Height }

// LineStart moves the caret to the first position of its line. It returns
// the number of positions moved.
func LineStart(m Mover, r RectProvider) int {
	return walk(r, m.ToPrevious, m.ToNext)
}

// LineEnd moves the caret to the last position of its line.
func LineEnd(m Mover, r RectProvider) int {
	return walk(r, m.ToNext, m.ToPrevious)
}

func walk(r RectProvider, step, back func() bool) int {
	current, ok := r.CaretRect()
	if !ok {
		return 0
	}
	moved := 0
	for i := 0; i < MaxSteps; i++ {
		if !step() {
			return moved
		}
		next, ok := r.CaretRect()
		if !ok {
			back()
			return moved
		}
		if math.Abs(bottom(current)-bottom(next)) > Tolerance {
			back()
			return moved
		}
		// Same spot after a step: the document edge.
		if next.Left == current.Left && next.Top == current.Top {
			return moved + 1
		}
		moved++
		current = next
	}
	return moved
}

// Install adds Home and End shortcuts to the editor's keyboard and returns
// a function removing them.
func Install(e *folio.Editor, r RectProvider) func() {
	sel := e.Selection()
	removeHome := e.Keyboard().AddShortcut(folio.Shortcut{
		Keymap: folio.Keymap{Match: folio.Key("Home")},
		Action: func(string) bool {
			LineStart(sel, r)
			return true
		},
	})
	removeEnd := e.Keyboard().AddShortcut(folio.Shortcut{
		Keymap: folio.Keymap{Match: folio.Key("End")},
		Action: func(string) bool {
			LineEnd(sel, r)
			return true
		},
	})
	return func() {
		removeHome()
		removeEnd()
	}
}
