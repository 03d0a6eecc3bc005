package main

import (
	"fmt"
	"strings"

	"github.com/phroun/folio"
)

const (
	cellWidth  = 8.0
	lineHeight = 16.0
)

// textView renders the document as numbered lines of plain text and acts as
// the selection bridge and caret layout for the REPL.
type textView struct {
	editor  *folio.Editor
	lines   []string
	renders int
	last    *folio.AbstractSelection
}

func (v *textView) Render(root *folio.Component) error {
	v.renders++
	v.lines = v.lines[:0]
	body := root.FirstSlot()
	if body == nil {
		return fmt.Errorf("render: %s has no body", root.Name())
	}
	for i, item := range body.Items() {
		block, ok := item.(*folio.Component)
		if !ok {
			continue
		}
		for j, line := range strings.Split(blockText(block), "\n") {
			prefix := "   "
			if j == 0 {
				prefix = fmt.Sprintf("%2d ", i)
			}
			v.lines = append(v.lines, prefix+"│ "+line)
		}
	}
	return nil
}

func (v *textView) Restore(sel *folio.AbstractSelection, fromLocalUpdate bool) {
	v.last = sel
}

func (v *textView) PositionByRange(sel folio.AbstractSelection) (anchor, focus *folio.NativePosition) {
	return &folio.NativePosition{Node: sel.AnchorSlot.Path(), Offset: sel.AnchorOffset},
		&folio.NativePosition{Node: sel.FocusSlot.Path(), Offset: sel.FocusOffset}
}

// CaretRect places the caret on a grid of fixed-size cells.
func (v *textView) CaretRect() (folio.Rect, bool) {
	if v.editor == nil {
		return folio.Rect{}, false
	}
	sel := v.editor.Selection()
	slot, off := sel.FocusSlot(), sel.FocusOffset()
	if slot == nil {
		return folio.Rect{}, false
	}
	row, col := v.locate(slot, off)
	return folio.Rect{
		Left:   float64(col) * cellWidth,
		Top:    float64(row) * lineHeight,
		Width:  1,
		Height: lineHeight,
	}, true
}

// locate returns the row and column of a position counted over the whole
// document.
func (v *textView) locate(slot *folio.Slot, off int) (row, col int) {
	body := v.editor.Root().FirstSlot()
	path := slot.Path()
	block := off
	if len(path) >= 3 {
		block = path[1]
	}
	for _, item := range body.SliceContent(0, block) {
		if c, ok := item.(*folio.Component); ok {
			row += strings.Count(blockText(c), "\n") + 1
		}
	}
	if slot == body {
		return row, 0
	}

	blockSlot := folio.FindSlotByPath(v.editor.Root(), path[:3])
	end, extra := off, 0
	if len(path) > 3 {
		end, extra = path[3], off
	}
	prefix := itemsText(blockSlot.SliceContent(0, end))
	row += strings.Count(prefix, "\n")
	if i := strings.LastIndex(prefix, "\n"); i >= 0 {
		prefix = prefix[i+1:]
	}
	return row, len([]rune(prefix)) + extra
}

func itemsText(items []folio.Item) string {
	var sb strings.Builder
	for _, item := range items {
		switch v := item.(type) {
		case folio.Text:
			sb.WriteString(string(v))
		case *folio.Component:
			sb.WriteString(inlineText(v))
		}
	}
	return sb.String()
}

func inlineText(c *folio.Component) string {
	if c.Name() == "image" {
		return fmt.Sprintf("[img:%v]", c.State()["src"])
	}
	return c.String()
}

func blockText(c *folio.Component) string {
	var text string
	if slot := c.FirstSlot(); slot != nil {
		text = itemsText(slot.Items())
	}
	switch c.Name() {
	case "heading":
		return strings.Repeat("#", max(headingLevel(c), 1)) + " " + text
	case "todo":
		if done, _ := c.State()["done"].(bool); done {
			return "[x] " + text
		}
		return "[ ] " + text
	case "rule":
		return "────────"
	}
	return text
}

// headingLevel reads the level of a heading. State decoded from the
// operation log holds JSON numbers.
func headingLevel(c *folio.Component) int {
	switch v := c.State()["level"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
