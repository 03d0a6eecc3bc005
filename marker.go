package folio

// ChangeMarker tracks whether a slot or component needs rendering and
// reports changes to listeners. Changes bubble from the mutated node up to the
// root, so a listener on the root marker observes every mutation in the tree.
type ChangeMarker struct {
	// dirty is set when the owner's own content or state changed.
	dirty bool

	// changed is set when the owner or any descendant changed.
	changed bool

	version int

	slot *Slot
	comp *Component

	onChange                event[Operation]
	onForceChange           event[struct{}]
	onChildComponentRemoved event[*Component]
}

func newSlotMarker(s *Slot) *ChangeMarker {
	return &ChangeMarker{slot: s, dirty: true, changed: true}
}

func newComponentMarker(c *Component) *ChangeMarker {
	return &ChangeMarker{comp: c, dirty: true, changed: true}
}

// Dirty reports whether the owner itself changed since the last render.
func (m *ChangeMarker) Dirty() bool {
	return m.dirty
}

// Changed reports whether the owner or a descendant changed since the last render.
func (m *ChangeMarker) Changed() bool {
	return m.changed
}

// Version increases on every change in the owner's subtree.
func (m *ChangeMarker) Version() int {
	return m.version
}

// Rendered clears the dirty and changed flags. Renderers call it once they
// have consumed the owner's current state.
func (m *ChangeMarker) Rendered() {
	m.dirty = false
	m.changed = false
}

// OnChange registers a listener for operations in the owner's subtree. The
// operation's path is relative to the owner.
func (m *ChangeMarker) OnChange(fn func(Operation)) func() {
	return m.onChange.subscribe(fn)
}

// OnForceChange registers a listener for forced re-renders.
func (m *ChangeMarker) OnForceChange(fn func()) func() {
	return m.onForceChange.subscribe(func(struct{}) { fn() })
}

// OnChildComponentRemoved registers a listener for components removed from
// the owner's subtree.
func (m *ChangeMarker) OnChildComponentRemoved(fn func(*Component)) func() {
	return m.onChildComponentRemoved.subscribe(fn)
}

// ForceMarkDirtied requests a render regardless of incremental state, for
// example after a schema change.
func (m *ChangeMarker) ForceMarkDirtied() {
	m.dirty = true
	m.forceMarkChanged()
}

func (m *ChangeMarker) forceMarkChanged() {
	m.changed = true
	m.version++
	m.onForceChange.emit(struct{}{})
	if parent, _, ok := m.parent(); ok {
		parent.forceMarkChanged()
	}
}

// markAsDirtied records a mutation of the owner itself.
func (m *ChangeMarker) markAsDirtied(op Operation) {
	m.dirty = true
	m.markAsChanged(op)
}

func (m *ChangeMarker) markAsChanged(op Operation) {
	m.changed = true
	m.version++
	m.onChange.emit(op)
	if parent, index, ok := m.parent(); ok {
		path := make(Path, 0, len(op.Path)+1)
		path = append(path, index)
		op.Path = append(path, op.Path...)
		parent.markAsChanged(op)
	}
}

func (m *ChangeMarker) recordComponentRemoved(c *Component) {
	m.onChildComponentRemoved.emit(c)
	if parent, _, ok := m.parent(); ok {
		parent.recordComponentRemoved(c)
	}
}

// parent returns the marker one level up and the owner's index within it.
func (m *ChangeMarker) parent() (*ChangeMarker, int, bool) {
	if m.slot != nil {
		comp := m.slot.parent
		if comp == nil {
			return nil, 0, false
		}
		return comp.marker, comp.slotIndex(m.slot), true
	}
	if m.comp != nil {
		slot := m.comp.parent
		if slot == nil {
			return nil, 0, false
		}
		return slot.marker, slot.content.IndexOf(m.comp), true
	}
	return nil, 0, false
}

func (m *ChangeMarker) clearListeners() {
	m.onChange.clear()
	m.onForceChange.clear()
	m.onChildComponentRemoved.clear()
}
