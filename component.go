package folio

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind is the structural variant of a component.
type Kind int

const (
	// Leaf components have no slots.
	Leaf Kind = iota

	// Branch components own exactly one slot.
	Branch

	// Backbone components own a fixed set of one or more slots.
	Backbone

	// Division components own exactly one slot that holds block content.
	Division
)

func (k Kind) String() string {
	switch k {
	case Leaf:
		return "leaf"
	case Branch:
		return "branch"
	case Backbone:
		return "backbone"
	case Division:
		return "division"
	}
	return "unknown"
}

// validSlots reports whether slots fit the kind.
func (k Kind) validSlots(slots []*Slot) bool {
	switch k {
	case Leaf:
		return len(slots) == 0
	case Branch:
		return len(slots) == 1
	case Backbone:
		return len(slots) >= 1
	case Division:
		return len(slots) == 1 && slots[0].Accepts(BlockComponentType)
	}
	return false
}

// State is the serializable key-value data of a component.
type State map[string]any

// Clone returns a deep copy of the state's maps and slices.
func (s State) Clone() State {
	if s == nil {
		return nil
	}
	return cloneValue(map[string]any(s)).(map[string]any)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case State:
		return State(cloneValue(map[string]any(t)).(map[string]any))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}

// InitData carries the initial state and slots of a new component.
type InitData struct {
	State State
	Slots []*Slot
}

// Definition describes a component type. It is a plain data and callback
// contract; components need no base type.
type Definition struct {
	Name string
	Kind Kind
	Type ContentType

	// Slots creates default slots when InitData carries none.
	Slots func() []*Slot

	// Setup runs once per instance. The returned value may implement
	// DestroyHook, EnterHook or CompositionHook.
	Setup func(c *Component) any

	// ZenCoding enables shorthand substitution for this component.
	ZenCoding *ZenCoding
}

// New creates an instance of the definition.
func (d *Definition) New(init InitData) (*Component, error) {
	slots := init.Slots
	if len(slots) == 0 && d.Slots != nil {
		slots = d.Slots()
	}
	if !d.Kind.validSlots(slots) {
		return nil, fmt.Errorf("%s (%s, %d slots): %w", d.Name, d.Kind, len(slots), ErrInvalidKind)
	}
	for _, s := range slots {
		if s.parent != nil {
			return nil, fmt.Errorf("%s: slot: %w", d.Name, ErrAttached)
		}
	}

	c := &Component{
		def:   d,
		state: init.State.Clone(),
		slots: append([]*Slot(nil), slots...),
	}
	c.marker = newComponentMarker(c)
	for _, s := range c.slots {
		s.parent = c
	}
	if d.Setup != nil {
		c.behavior = d.Setup(c)
	}
	return c, nil
}

// Component is a node of the document tree: typed state plus child slots.
type Component struct {
	def       *Definition
	state     State
	slots     []*Slot
	parent    *Slot
	marker    *ChangeMarker
	behavior  any
	shortcuts shortcutList
}

// Name returns the definition name.
func (c *Component) Name() string { return c.def.Name }

// Kind returns the structural variant.
func (c *Component) Kind() Kind { return c.def.Kind }

// Type returns the content type the component presents to its parent slot.
func (c *Component) Type() ContentType { return c.def.Type }

// Definition returns the component's definition.
func (c *Component) Definition() *Definition { return c.def }

// Behavior returns the value produced by the definition's Setup.
func (c *Component) Behavior() any { return c.behavior }

// Marker returns the component's change marker.
func (c *Component) Marker() *ChangeMarker { return c.marker }

func (c *Component) itemLen() int { return 1 }

// State returns a copy of the component's state.
func (c *Component) State() State {
	return c.state.Clone()
}

// UpdateState applies fn to a copy of the state and records the result as
// a single state transaction.
func (c *Component) UpdateState(fn func(State)) {
	next := c.state.Clone()
	if next == nil {
		next = State{}
	}
	fn(next)
	c.setState(next)
}

func (c *Component) setState(next State) {
	prev := c.state
	c.state = next.Clone()
	c.marker.markAsDirtied(Operation{
		Apply:   []Action{{Kind: ActionState, State: next.Clone()}},
		Unapply: []Action{{Kind: ActionState, State: prev.Clone()}},
	})
}

// Slots returns the component's slots.
func (c *Component) Slots() []*Slot {
	return append([]*Slot(nil), c.slots...)
}

// Slot returns the slot at i, or nil.
func (c *Component) Slot(i int) *Slot {
	if i < 0 || i >= len(c.slots) {
		return nil
	}
	return c.slots[i]
}

// FirstSlot returns the first slot, or nil for a leaf.
func (c *Component) FirstSlot() *Slot {
	return c.Slot(0)
}

func (c *Component) slotIndex(s *Slot) int {
	for i, slot := range c.slots {
		if slot == s {
			return i
		}
	}
	return -1
}

// Parent returns the slot holding the component, or nil.
func (c *Component) Parent() *Slot {
	return c.parent
}

// ParentComponent returns the component owning the parent slot, or nil.
func (c *Component) ParentComponent() *Component {
	if c.parent == nil {
		return nil
	}
	return c.parent.parent
}

// Index returns the component's offset in its parent slot, or -1.
func (c *Component) Index() int {
	if c.parent == nil {
		return -1
	}
	return c.parent.IndexOf(c)
}

// Path returns the component's path from the top of its tree.
func (c *Component) Path() Path {
	if c.parent == nil {
		return Path{}
	}
	parentPath := c.parent.Path()
	if parentPath == nil {
		return nil
	}
	return append(parentPath, c.parent.IndexOf(c))
}

// contains reports whether s lies in the component's subtree.
func (c *Component) contains(s *Slot) bool {
	for cur := s; cur != nil; {
		owner := cur.parent
		if owner == nil {
			return false
		}
		if owner == c {
			return true
		}
		cur = owner.parent
	}
	return false
}

// Root returns the top-most ancestor of the component.
func (c *Component) Root() *Component {
	cur := c
	for {
		parent := cur.ParentComponent()
		if parent == nil {
			return cur
		}
		cur = parent
	}
}

// AddShortcut registers a shortcut scoped to this component. It is tried
// before global shortcuts when the selection lies inside the component.
func (c *Component) AddShortcut(s Shortcut) func() {
	return c.shortcuts.add(s)
}

// Shortcuts returns the component-scoped shortcuts, newest first.
func (c *Component) Shortcuts() []Shortcut {
	return c.shortcuts.list()
}

// String returns the text of all slots.
func (c *Component) String() string {
	var sb strings.Builder
	for _, s := range c.slots {
		sb.WriteString(s.String())
	}
	return sb.String()
}

// clone copies the component and its subtree into a detached instance.
// Setup runs only when live is true; other copies are inert snapshots.
func (c *Component) clone(live bool) *Component {
	out := &Component{def: c.def, state: c.state.Clone()}
	out.slots = make([]*Slot, len(c.slots))
	for i, s := range c.slots {
		out.slots[i] = s.clone(live)
		out.slots[i].parent = out
	}
	out.marker = newComponentMarker(out)
	if live && c.def.Setup != nil {
		out.behavior = c.def.Setup(out)
	}
	return out
}

// snapshotItem freezes a component item as it is now.
func snapshotItem(item Item) Item {
	if c, ok := item.(*Component); ok {
		return c.clone(false)
	}
	return item
}

func snapshotItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i, item := range items {
		out[i] = snapshotItem(item)
	}
	return out
}

// ComponentLiteral is the serialized form of a component.
type ComponentLiteral struct {
	Name  string        `json:"name"`
	State State         `json:"state,omitempty"`
	Slots []SlotLiteral `json:"slots"`
}

// Literal returns the serialized form of the component.
func (c *Component) Literal() ComponentLiteral {
	slots := make([]SlotLiteral, len(c.slots))
	for i, s := range c.slots {
		slots[i] = s.Literal()
	}
	return ComponentLiteral{Name: c.def.Name, State: c.state.Clone(), Slots: slots}
}

// MarshalJSON encodes the component as a ComponentLiteral.
func (c *Component) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Literal())
}

// Event is passed to component hooks. A hook calls PreventDefault to stop the
// editor's default handling.
type Event struct {
	Target    *Component
	Slot      *Slot
	Offset    int
	prevented bool
}

// PreventDefault marks the event as handled.
func (e *Event) PreventDefault() { e.prevented = true }

// IsPrevented reports whether a hook handled the event.
func (e *Event) IsPrevented() bool { return e.prevented }

// DestroyHook is implemented by behaviors that release resources when their
// component leaves the document for good.
type DestroyHook interface {
	OnDestroy()
}

// EnterHook is implemented by behaviors that handle the Enter key inside
// their slots.
type EnterHook interface {
	OnEnter(ev *Event)
}

// CompositionHook is implemented by behaviors that react to IME composition
// inside their slots.
type CompositionHook interface {
	OnCompositionStart(ev *Event)
	OnCompositionEnd(ev *Event)
}
