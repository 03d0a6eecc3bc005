package folio

// NativePosition is a point in the rendered view, as understood by the
// SelectionBridge.
type NativePosition struct {
	Node   any
	Offset int
}

// AbstractSelection is a selection expressed as live slots and offsets.
type AbstractSelection struct {
	AnchorSlot   *Slot
	AnchorOffset int
	FocusSlot    *Slot
	FocusOffset  int
}

// SelectionBridge maps model selections onto the platform's native
// selection.
type SelectionBridge interface {
	// Restore shows sel in the view. A nil sel clears the native selection.
	Restore(sel *AbstractSelection, fromLocalUpdate bool)

	// PositionByRange maps sel to native positions. Either result is nil
	// when it cannot be mapped.
	PositionByRange(sel AbstractSelection) (anchor, focus *NativePosition)
}

// Selection is the editor's anchor and focus. Both ends are kept as paths
// and resolved against the tree on every access, so a selection whose slot
// has left the document reads as not selected rather than pointing into a
// detached subtree.
type Selection struct {
	root   *Component
	bridge SelectionBridge

	anchor Path
	focus  Path

	emitted  SelectionPaths
	onChange event[SelectionPaths]
	unsub    func()
}

// NewSelection creates an empty selection that reports to bridge.
func NewSelection(bridge SelectionBridge) *Selection {
	return &Selection{bridge: bridge}
}

// attach binds the selection to root and starts rebasing through its changes.
func (s *Selection) attach(root *Component) {
	s.detach()
	s.root = root
	s.unsub = root.Marker().OnChange(s.rebase)
}

func (s *Selection) detach() {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
}

// Root returns the component the selection resolves against.
func (s *Selection) Root() *Component {
	return s.root
}

func (s *Selection) rebase(op Operation) {
	if !op.IsSlotOperation() || s.anchor == nil {
		return
	}
	for _, a := range op.Apply {
		s.anchor = transformPoints(s.anchor, op.Path, a)
		s.focus = transformPoints(s.focus, op.Path, a)
	}
}

// OnChange registers fn to receive the selection paths whenever they change.
func (s *Selection) OnChange(fn func(SelectionPaths)) func() {
	return s.onChange.subscribe(fn)
}

func (s *Selection) notify() {
	p := s.Paths()
	if p.Anchor.Equal(s.emitted.Anchor) && p.Focus.Equal(s.emitted.Focus) {
		return
	}
	s.emitted = p
	s.onChange.emit(p)
}

// FindSlotByPath resolves path against the selection's root.
func (s *Selection) FindSlotByPath(path Path) *Slot {
	return FindSlotByPath(s.root, path)
}

// pointsOf returns the flat position of offset in slot, or false when slot
// is not in the document.
func (s *Selection) pointsOf(slot *Slot, offset int) (Path, bool) {
	if slot == nil || s.root == nil {
		return nil, false
	}
	path := slot.Path()
	if path == nil || FindSlotByPath(s.root, path) != slot {
		return nil, false
	}
	offset = max(0, min(offset, slot.Len()))
	offset = slot.CorrectIndex(offset, false)
	return Position{Path: path, Offset: offset}.Points(), true
}

func (s *Selection) resolve(points Path) (*Slot, int, bool) {
	pos, ok := PositionFromPoints(points)
	if !ok {
		return nil, 0, false
	}
	slot := FindSlotByPath(s.root, pos.Path)
	if slot == nil {
		return nil, 0, false
	}
	return slot, max(0, min(pos.Offset, slot.Len())), true
}

// SetBaseAndExtent selects from the anchor to the focus. It returns false
// and leaves the selection unchanged when either slot is not in the document.
func (s *Selection) SetBaseAndExtent(anchorSlot *Slot, anchorOffset int, focusSlot *Slot, focusOffset int) bool {
	a, ok := s.pointsOf(anchorSlot, anchorOffset)
	if !ok {
		return false
	}
	f, ok := s.pointsOf(focusSlot, focusOffset)
	if !ok {
		return false
	}
	s.anchor, s.focus = a, f
	s.notify()
	return true
}

// SetPosition collapses the selection at offset in slot.
func (s *Selection) SetPosition(slot *Slot, offset int) bool {
	return s.SetBaseAndExtent(slot, offset, slot, offset)
}

// SelectSlot selects the whole content of slot.
func (s *Selection) SelectSlot(slot *Slot) bool {
	if slot == nil {
		return false
	}
	return s.SetBaseAndExtent(slot, 0, slot, slot.Len())
}

// SelectComponent selects c. With contentOnly the selection spans c's slots;
// otherwise it covers c itself within its parent slot.
func (s *Selection) SelectComponent(c *Component, contentOnly bool) bool {
	if c == nil {
		return false
	}
	if contentOnly || c.parent == nil {
		first, last := c.FirstSlot(), c.Slot(len(c.slots)-1)
		if first == nil {
			return false
		}
		return s.SetBaseAndExtent(first, 0, last, last.Len())
	}
	i := c.Index()
	return s.SetBaseAndExtent(c.parent, i, c.parent, i+1)
}

// SelectAll selects the whole document.
func (s *Selection) SelectAll() bool {
	if s.root == nil {
		return false
	}
	return s.SelectComponent(s.root, true)
}

// Unselect clears the selection.
func (s *Selection) Unselect() {
	s.anchor, s.focus = nil, nil
	s.notify()
}

// SetPaths restores the selection from transport form. The paths are not
// checked until they are next resolved.
func (s *Selection) SetPaths(p SelectionPaths) {
	if len(p.Anchor) == 0 || len(p.Focus) == 0 {
		s.Unselect()
		return
	}
	s.anchor, s.focus = p.Anchor.Clone(), p.Focus.Clone()
	s.notify()
}

// Paths returns the selection in transport form. Both paths are empty when
// nothing is selected.
func (s *Selection) Paths() SelectionPaths {
	if !s.IsSelected() {
		return SelectionPaths{Anchor: Path{}, Focus: Path{}}
	}
	return SelectionPaths{Anchor: s.anchor.Clone(), Focus: s.focus.Clone()}
}

// IsSelected reports whether both ends resolve to slots in the document.
func (s *Selection) IsSelected() bool {
	_, _, a := s.resolve(s.anchor)
	_, _, f := s.resolve(s.focus)
	return a && f
}

// IsCollapsed reports whether anchor and focus are the same position.
func (s *Selection) IsCollapsed() bool {
	as, ao, ok1 := s.resolve(s.anchor)
	fs, fo, ok2 := s.resolve(s.focus)
	return ok1 && ok2 && as == fs && ao == fo
}

// AnchorSlot returns the anchor's slot, or nil.
func (s *Selection) AnchorSlot() *Slot {
	slot, _, _ := s.resolve(s.anchor)
	return slot
}

// AnchorOffset returns the anchor's offset.
func (s *Selection) AnchorOffset() int {
	_, off, _ := s.resolve(s.anchor)
	return off
}

// FocusSlot returns the focus's slot, or nil.
func (s *Selection) FocusSlot() *Slot {
	slot, _, _ := s.resolve(s.focus)
	return slot
}

// FocusOffset returns the focus's offset.
func (s *Selection) FocusOffset() int {
	_, off, _ := s.resolve(s.focus)
	return off
}

// ordered returns the ends of the selection in document order.
func (s *Selection) ordered() (start, end Path) {
	if ComparePaths(s.anchor, s.focus) <= 0 {
		return s.anchor, s.focus
	}
	return s.focus, s.anchor
}

// StartSlot returns the slot of whichever end comes first.
func (s *Selection) StartSlot() *Slot {
	start, _ := s.ordered()
	slot, _, _ := s.resolve(start)
	return slot
}

// StartOffset returns the offset of whichever end comes first.
func (s *Selection) StartOffset() int {
	start, _ := s.ordered()
	_, off, _ := s.resolve(start)
	return off
}

// EndSlot returns the slot of whichever end comes last.
func (s *Selection) EndSlot() *Slot {
	_, end := s.ordered()
	slot, _, _ := s.resolve(end)
	return slot
}

// EndOffset returns the offset of whichever end comes last.
func (s *Selection) EndOffset() int {
	_, end := s.ordered()
	_, off, _ := s.resolve(end)
	return off
}

// commonPrefix returns the number of leading path segments the start and
// end slots share.
func (s *Selection) commonPrefix() (Path, int, bool) {
	if !s.IsSelected() {
		return nil, 0, false
	}
	start, end := s.ordered()
	sp, ep := start[:len(start)-1], end[:len(end)-1]
	n := 0
	for n < len(sp) && n < len(ep) && sp[n] == ep[n] {
		n++
	}
	return sp, n, true
}

// CommonAncestorSlot returns the deepest slot containing both ends, or nil
// when the ends lie in different top-level slots.
func (s *Selection) CommonAncestorSlot() *Slot {
	p, n, ok := s.commonPrefix()
	if !ok {
		return nil
	}
	if n%2 == 0 {
		n--
	}
	if n < 1 {
		return nil
	}
	return FindSlotByPath(s.root, p[:n])
}

// CommonAncestorComponent returns the deepest component containing both ends.
func (s *Selection) CommonAncestorComponent() *Component {
	p, n, ok := s.commonPrefix()
	if !ok {
		return nil
	}
	if n%2 == 1 {
		n--
	}
	return FindComponentByPath(s.root, p[:n])
}

// GetCommonAncestorComponent returns the deepest component that is an
// ancestor of (or equal to) both a and b, or nil when they share no tree.
func GetCommonAncestorComponent(a, b *Component) *Component {
	seen := make(map[*Component]bool)
	for c := a; c != nil; c = c.ParentComponent() {
		seen[c] = true
	}
	for c := b; c != nil; c = c.ParentComponent() {
		if seen[c] {
			return c
		}
	}
	return nil
}

// Abstract returns the selection as live slots, or false when not selected.
func (s *Selection) Abstract() (AbstractSelection, bool) {
	as, ao, ok1 := s.resolve(s.anchor)
	fs, fo, ok2 := s.resolve(s.focus)
	if !ok1 || !ok2 {
		return AbstractSelection{}, false
	}
	return AbstractSelection{AnchorSlot: as, AnchorOffset: ao, FocusSlot: fs, FocusOffset: fo}, true
}

// Restore hands the current selection to the bridge.
func (s *Selection) Restore(fromLocalUpdate bool) {
	if s.bridge != nil {
		if abs, ok := s.Abstract(); ok {
			s.bridge.Restore(&abs, fromLocalUpdate)
		} else {
			s.bridge.Restore(nil, fromLocalUpdate)
		}
	}
	s.notify()
}

// NativePositions maps the selection through the bridge.
func (s *Selection) NativePositions() (anchor, focus *NativePosition) {
	abs, ok := s.Abstract()
	if !ok || s.bridge == nil {
		return nil, nil
	}
	return s.bridge.PositionByRange(abs)
}

// ToPrevious moves the caret one grapheme back, entering components and
// leaving slots as needed. A range collapses to its start.
func (s *Selection) ToPrevious() bool {
	if !s.IsSelected() {
		return false
	}
	if !s.IsCollapsed() {
		return s.SetPosition(s.StartSlot(), s.StartOffset())
	}
	slot, off := s.FocusSlot(), s.FocusOffset()
	slot, off, ok := previousCaret(slot, off)
	if !ok {
		return false
	}
	return s.SetPosition(slot, off)
}

// ToNext moves the caret one grapheme forward. A range collapses to its end.
func (s *Selection) ToNext() bool {
	if !s.IsSelected() {
		return false
	}
	if !s.IsCollapsed() {
		return s.SetPosition(s.EndSlot(), s.EndOffset())
	}
	slot, off := s.FocusSlot(), s.FocusOffset()
	slot, off, ok := nextCaret(slot, off)
	if !ok {
		return false
	}
	return s.SetPosition(slot, off)
}

func previousCaret(slot *Slot, off int) (*Slot, int, bool) {
	if off > 0 {
		prev := slot.content.previousBoundary(off)
		if c, ok := slot.content.ItemAt(prev).(*Component); ok && len(c.slots) > 0 {
			last := c.slots[len(c.slots)-1]
			return last, last.Len(), true
		}
		return slot, prev, true
	}
	comp := slot.parent
	if comp == nil {
		return nil, 0, false
	}
	if i := comp.slotIndex(slot); i > 0 {
		prev := comp.slots[i-1]
		return prev, prev.Len(), true
	}
	if comp.parent == nil {
		return nil, 0, false
	}
	return comp.parent, comp.Index(), true
}

func nextCaret(slot *Slot, off int) (*Slot, int, bool) {
	if off < slot.Len() {
		if c, ok := slot.content.ItemAt(off).(*Component); ok && len(c.slots) > 0 {
			return c.slots[0], 0, true
		}
		return slot, slot.content.nextBoundary(off), true
	}
	comp := slot.parent
	if comp == nil {
		return nil, 0, false
	}
	if i := comp.slotIndex(slot); i < len(comp.slots)-1 {
		return comp.slots[i+1], 0, true
	}
	if comp.parent == nil {
		return nil, 0, false
	}
	return comp.parent, comp.Index() + 1, true
}
