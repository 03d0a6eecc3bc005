package folio

import "log/slog"

// Commander performs editing commands at the current selection. Every
// command returns false when it changed nothing, including every mutation
// attempted on a read-only editor.
type Commander struct {
	selection *Selection
	readOnly  bool
	logger    *slog.Logger
}

func newCommander(selection *Selection, readOnly bool, logger *slog.Logger) *Commander {
	return &Commander{selection: selection, readOnly: readOnly, logger: logger}
}

func (c *Commander) writable() bool {
	if c.readOnly {
		c.logger.Debug("command refused", "error", ErrReadOnly)
		return false
	}
	return c.selection.IsSelected()
}

// Insert places item at the caret, replacing any selected range, and moves
// the caret after it.
func (c *Commander) Insert(item Item, formats ...Format) bool {
	if !c.writable() || isEmptyItem(item) {
		return false
	}
	if !c.selection.IsCollapsed() {
		c.deleteRange()
	}
	slot, off := c.selection.StartSlot(), c.selection.StartOffset()
	if slot == nil {
		return false
	}
	index := slot.CorrectIndex(off, false)
	if !slot.Insert(index, item, formats...) {
		return false
	}
	if comp, ok := item.(*Component); ok {
		index = comp.Index()
	}
	c.selection.SetPosition(slot, index+ItemLen(item))
	return true
}

// Delete removes the selected range. With a collapsed selection it removes
// the grapheme before the caret when backward is true, otherwise the one
// after it.
func (c *Commander) Delete(backward bool) bool {
	if !c.writable() {
		return false
	}
	if !c.selection.IsCollapsed() {
		return c.deleteRange()
	}
	slot, off := c.selection.StartSlot(), c.selection.StartOffset()
	if backward {
		if off > 0 {
			prev := slot.content.previousBoundary(off)
			if len(slot.Cut(prev, off)) == 0 {
				return false
			}
			c.selection.SetPosition(slot, prev)
			return true
		}
		return c.removeEmptyBlock(slot)
	}
	if off < slot.Len() {
		next := slot.content.nextBoundary(off)
		if len(slot.Cut(off, next)) == 0 {
			return false
		}
		c.selection.SetPosition(slot, off)
		return true
	}
	return false
}

// removeEmptyBlock deletes a single-slot component whose only slot is the
// empty slot the caret sits in, leaving the caret where it was.
func (c *Commander) removeEmptyBlock(slot *Slot) bool {
	comp := slot.Parent()
	if comp == nil || !slot.IsEmpty() || len(comp.slots) != 1 || comp.Parent() == nil {
		return false
	}
	parent, i := comp.Parent(), comp.Index()
	parent.Cut(i, i+1)
	c.selection.SetPosition(parent, i)
	return true
}

// deleteRange removes everything between the start and end of a range
// selection and collapses the caret at the start.
func (c *Commander) deleteRange() bool {
	start, so := c.selection.StartSlot(), c.selection.StartOffset()
	end, eo := c.selection.EndSlot(), c.selection.EndOffset()
	if start == nil || end == nil {
		return false
	}
	if start == end {
		removed := start.Cut(so, eo)
		c.selection.SetPosition(start, so)
		return len(removed) > 0
	}

	common := c.selection.CommonAncestorSlot()
	if common == nil {
		// The ends lie in different slots of the root.
		root := c.selection.Root()
		si, ei := rootSlotIndex(root, start), rootSlotIndex(root, end)
		trimAfter(start, so, nil)
		trimBefore(end, eo, nil)
		for i := si + 1; i < ei; i++ {
			root.slots[i].Cut(0, root.slots[i].Len())
		}
		c.selection.SetPosition(start, so)
		return true
	}

	lo, hi := so, eo
	if start != common {
		lo = childIndexIn(common, start) + 1
		trimAfter(start, so, common)
	}
	if end != common {
		hi = childIndexIn(common, end)
		trimBefore(end, eo, common)
	}
	common.Cut(lo, hi)
	c.selection.SetPosition(start, so)
	return true
}

// trimAfter removes the content of slot from off onward, and at every level
// up to stop, whatever follows the component on the way.
func trimAfter(slot *Slot, off int, stop *Slot) {
	slot.Cut(off, slot.Len())
	for s := slot; ; {
		comp := s.Parent()
		if comp == nil {
			return
		}
		p := comp.Parent()
		if p == nil || p == stop {
			return
		}
		p.Cut(comp.Index()+1, p.Len())
		s = p
	}
}

// trimBefore removes the content of slot up to off, and at every level up
// to stop, whatever precedes the component on the way.
func trimBefore(slot *Slot, off int, stop *Slot) {
	slot.Cut(0, off)
	for s := slot; ; {
		comp := s.Parent()
		if comp == nil {
			return
		}
		p := comp.Parent()
		if p == nil || p == stop {
			return
		}
		p.Cut(0, comp.Index())
		s = p
	}
}

// childIndexIn returns the offset within ancestor of the component whose
// subtree holds s.
func childIndexIn(ancestor, s *Slot) int {
	for comp := s.Parent(); comp != nil; comp = comp.ParentComponent() {
		if comp.Parent() == ancestor {
			return comp.Index()
		}
	}
	return -1
}

func rootSlotIndex(root *Component, s *Slot) int {
	for cur := s; cur != nil; {
		owner := cur.Parent()
		if owner == root {
			return root.slotIndex(cur)
		}
		if owner == nil {
			return -1
		}
		cur = owner.Parent()
	}
	return -1
}

// Copy returns the selected content when both ends share a slot.
func (c *Commander) Copy() []Item {
	start, end := c.selection.StartSlot(), c.selection.EndSlot()
	if start == nil || start != end {
		return nil
	}
	return start.SliceContent(c.selection.StartOffset(), c.selection.EndOffset())
}

// Cut removes the selected range and returns the content it held when both
// ends share a slot.
func (c *Commander) Cut() ([]Item, bool) {
	if c.selection.IsCollapsed() {
		return nil, false
	}
	items := c.Copy()
	if !c.Delete(false) {
		return nil, false
	}
	return items, true
}

// Paste inserts items at the caret in order, replacing any selected range.
// Items the slot does not accept are skipped.
func (c *Commander) Paste(items []Item) bool {
	if !c.writable() {
		return false
	}
	if !c.selection.IsCollapsed() {
		c.deleteRange()
	}
	inserted := false
	for _, item := range items {
		if c.Insert(item) {
			inserted = true
		}
	}
	return inserted
}

// Enter offers the key to the EnterHook of the component holding the caret
// and inserts a line break when no hook handles it.
func (c *Commander) Enter() bool {
	if !c.writable() {
		return false
	}
	if !c.selection.IsCollapsed() {
		c.deleteRange()
	}
	slot, off := c.selection.StartSlot(), c.selection.StartOffset()
	if comp := slot.Parent(); comp != nil {
		if h, ok := comp.Behavior().(EnterHook); ok {
			ev := &Event{Target: comp, Slot: slot, Offset: off}
			h.OnEnter(ev)
			if ev.IsPrevented() {
				return true
			}
		}
	}
	return c.Insert(Text("\n"))
}

// slotRange is a span of one slot covered by the selection.
type slotRange struct {
	slot       *Slot
	start, end int
}

// selectedRanges returns every slot span covered by the selection: the
// partial ends, and every slot nested inside components fully selected
// between them.
func (c *Commander) selectedRanges() []slotRange {
	start, so := c.selection.StartSlot(), c.selection.StartOffset()
	end, eo := c.selection.EndSlot(), c.selection.EndOffset()
	if start == nil || end == nil {
		return nil
	}
	if start == end {
		return []slotRange{{start, so, eo}}
	}
	var out []slotRange
	common := c.selection.CommonAncestorSlot()
	if common == nil {
		root := c.selection.Root()
		si, ei := rootSlotIndex(root, start), rootSlotIndex(root, end)
		out = append(out, slotRange{start, so, start.Len()}, slotRange{end, 0, eo})
		for i := si + 1; i < ei; i++ {
			out = appendSubtree(out, root.slots[i], 0, root.slots[i].Len())
		}
		return out
	}
	lo, hi := so, eo
	if start != common {
		lo = childIndexIn(common, start) + 1
		out = append(out, slotRange{start, so, start.Len()})
	}
	if end != common {
		hi = childIndexIn(common, end)
		out = append(out, slotRange{end, 0, eo})
	}
	return appendSubtree(out, common, lo, hi)
}

// appendSubtree adds slot's span and the full content of every slot nested
// in components within it.
func appendSubtree(out []slotRange, slot *Slot, start, end int) []slotRange {
	if start < end {
		out = append(out, slotRange{slot, start, end})
	}
	for _, item := range slot.SliceContent(start, end) {
		comp, ok := item.(*Component)
		if !ok {
			continue
		}
		for _, child := range comp.slots {
			out = appendSubtree(out, child, 0, child.Len())
		}
	}
	return out
}

// ApplyFormat sets f over the selection.
func (c *Commander) ApplyFormat(f Format) bool {
	if !c.writable() || c.selection.IsCollapsed() {
		return false
	}
	for _, r := range c.selectedRanges() {
		r.slot.ApplyFormat(f, r.start, r.end)
	}
	return true
}

// RemoveFormat clears the named format over the selection.
func (c *Commander) RemoveFormat(name string) bool {
	if !c.writable() || c.selection.IsCollapsed() {
		return false
	}
	for _, r := range c.selectedRanges() {
		r.slot.RemoveFormat(name, r.start, r.end)
	}
	return true
}

// Replace swaps old for replacement in old's parent slot.
func (c *Commander) Replace(old, replacement *Component) bool {
	if c.readOnly || old == nil || replacement == nil {
		return false
	}
	parent := old.Parent()
	if parent == nil || replacement == old || !parent.Accepts(replacement.Type()) || replacement.contains(parent) {
		return false
	}
	i := old.Index()
	parent.Cut(i, i+1)
	return parent.Insert(i, replacement)
}
