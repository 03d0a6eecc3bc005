package folio

import (
	"encoding/json"
	"fmt"
	"slices"
)

// ContentType classifies what may be placed in a slot.
type ContentType int

const (
	// TextType is plain text.
	TextType ContentType = iota

	// InlineComponentType is a component that flows within text.
	InlineComponentType

	// BlockComponentType is a component that occupies its own block.
	BlockComponentType
)

func (t ContentType) String() string {
	switch t {
	case TextType:
		return "text"
	case InlineComponentType:
		return "inline"
	case BlockComponentType:
		return "block"
	}
	return "unknown"
}

// MarshalText encodes the content type by name.
func (t ContentType) MarshalText() ([]byte, error) {
	s := t.String()
	if s == "unknown" {
		return nil, fmt.Errorf("content type %d: %w", int(t), ErrInvalidDocument)
	}
	return []byte(s), nil
}

// UnmarshalText decodes a content type name.
func (t *ContentType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "text":
		*t = TextType
	case "inline":
		*t = InlineComponentType
	case "block":
		*t = BlockComponentType
	default:
		return fmt.Errorf("content type %q: %w", b, ErrInvalidDocument)
	}
	return nil
}

// Slot is a content container owned by a component. It holds a Content, the
// format ranges over it and the schema of content types it accepts.
type Slot struct {
	schema  []ContentType
	content *Content
	formats *formatMap
	parent  *Component
	marker  *ChangeMarker
}

// NewSlot creates an empty slot accepting the given content types.
func NewSlot(schema ...ContentType) *Slot {
	s := &Slot{
		schema:  slices.Clone(schema),
		content: &Content{},
		formats: newFormatMap(),
	}
	s.marker = newSlotMarker(s)
	return s
}

// Schema returns the accepted content types.
func (s *Slot) Schema() []ContentType {
	return slices.Clone(s.schema)
}

// Accepts reports whether content of type t may be inserted.
func (s *Slot) Accepts(t ContentType) bool {
	return slices.Contains(s.schema, t)
}

// Len returns the index length of the slot's content.
func (s *Slot) Len() int {
	return s.content.Len()
}

// IsEmpty reports whether the slot holds no content.
func (s *Slot) IsEmpty() bool {
	return s.content.Len() == 0
}

// Items returns the slot's entries.
func (s *Slot) Items() []Item {
	return s.content.Items()
}

// SliceContent returns the grapheme-correct entries between start and end.
func (s *Slot) SliceContent(start, end int) []Item {
	return s.content.Slice(start, end)
}

// IndexOf returns the offset of a child component, or -1.
func (s *Slot) IndexOf(c *Component) int {
	return s.content.IndexOf(c)
}

// CorrectIndex snaps an index to a grapheme cluster edge.
func (s *Slot) CorrectIndex(index int, toEnd bool) int {
	return s.content.CorrectIndex(index, toEnd)
}

// ToGrid returns the cumulative entry offsets of the slot's content.
func (s *Slot) ToGrid() []int {
	return s.content.ToGrid()
}

// Marker returns the slot's change marker.
func (s *Slot) Marker() *ChangeMarker {
	return s.marker
}

// Parent returns the owning component, or nil for a detached slot.
func (s *Slot) Parent() *Component {
	return s.parent
}

// Index returns the slot's position among its parent's slots, or -1.
func (s *Slot) Index() int {
	if s.parent == nil {
		return -1
	}
	return s.parent.slotIndex(s)
}

// Path returns the slot's path from the top of its tree.
func (s *Slot) Path() Path {
	if s.parent == nil {
		return nil
	}
	return append(s.parent.Path(), s.parent.slotIndex(s))
}

// Formats returns every format range in the slot.
func (s *Slot) Formats() []FormatRange {
	return s.formats.all()
}

// FormatsAt returns the formats covering index.
func (s *Slot) FormatsAt(index int) []Format {
	return s.formats.at(index)
}

// String returns the slot's content as text.
func (s *Slot) String() string {
	return s.content.String()
}

// Insert places item at index, applying formats to the inserted range. It
// returns false when the item is empty, not accepted by the schema, or is a
// component that contains this slot. A component attached elsewhere is moved.
func (s *Slot) Insert(index int, item Item, formats ...Format) bool {
	if isEmptyItem(item) || !s.Accepts(contentTypeOf(item)) {
		return false
	}
	comp, isComp := item.(*Component)
	if isComp {
		if comp.contains(s) {
			return false
		}
		if old := comp.parent; old != nil {
			i := old.content.IndexOf(comp)
			old.Cut(i, i+1)
			if old == s && i < index {
				index--
			}
		}
	}

	index = max(0, min(index, s.content.Len()))
	index = s.content.CorrectIndex(index, false)
	n := ItemLen(item)

	s.content.Insert(index, item)
	s.formats.shiftInsert(index, n)
	for _, f := range formats {
		s.formats.replace(f.Name, index, index+n, []FormatRange{{Start: index, End: index + n, Value: f.Value}})
	}
	if isComp {
		comp.parent = s
	}

	s.marker.markAsDirtied(Operation{
		Apply: []Action{{
			Kind:    ActionInsert,
			Offset:  index,
			Count:   n,
			Items:   []Item{snapshotItem(item)},
			Formats: slices.Clone(formats),
		}},
		Unapply: []Action{{Kind: ActionDelete, Offset: index, Count: n}},
	})
	return true
}

// Delete removes count items starting at index. It returns false when
// nothing was removed.
func (s *Slot) Delete(index, count int) bool {
	return len(s.Cut(index, index+count)) > 0
}

// Cut removes and returns the items between start and end. Components in the
// removed range are detached and reported to the change marker.
func (s *Slot) Cut(start, end int) []Item {
	start, end = max(0, start), min(end, s.content.Len())
	if end <= start {
		return []Item{}
	}
	start = s.content.CorrectIndex(start, false)
	end = s.content.CorrectIndex(end, true)
	count := end - start

	unapply := []Action{{Kind: ActionInsert, Offset: start, Count: count}}
	for _, name := range s.formatNames() {
		unapply = append(unapply, Action{
			Kind:   ActionFormat,
			Offset: start,
			Count:  count,
			Format: name,
			Ranges: s.formats.within(name, start, end),
		})
	}

	removed := s.content.Cut(start, end)
	unapply[0].Items = snapshotItems(removed)
	s.formats.shiftDelete(start, count)

	var detached []*Component
	for _, item := range removed {
		if c, ok := item.(*Component); ok {
			c.parent = nil
			detached = append(detached, c)
		}
	}

	s.marker.markAsDirtied(Operation{
		Apply:   []Action{{Kind: ActionDelete, Offset: start, Count: count}},
		Unapply: unapply,
	})
	for _, c := range detached {
		s.marker.recordComponentRemoved(c)
	}
	return removed
}

// ApplyFormat sets a format over [start, end).
func (s *Slot) ApplyFormat(f Format, start, end int) {
	s.replaceFormat(f.Name, start, end, []FormatRange{{Name: f.Name, Start: start, End: end, Value: f.Value}})
}

// RemoveFormat clears a format over [start, end).
func (s *Slot) RemoveFormat(name string, start, end int) {
	s.replaceFormat(name, start, end, nil)
}

// replaceFormat replaces the ranges of name within [start, end).
func (s *Slot) replaceFormat(name string, start, end int, ranges []FormatRange) {
	start, end = max(0, start), min(end, s.content.Len())
	if end <= start {
		return
	}
	clipped := make([]FormatRange, 0, len(ranges))
	for _, r := range ranges {
		lo, hi := max(r.Start, start), min(r.End, end)
		if lo < hi {
			clipped = append(clipped, FormatRange{Name: name, Start: lo, End: hi, Value: r.Value})
		}
	}
	prev := s.formats.within(name, start, end)
	s.formats.replace(name, start, end, clipped)
	s.marker.markAsDirtied(Operation{
		Apply:   []Action{{Kind: ActionFormat, Offset: start, Count: end - start, Format: name, Ranges: clipped}},
		Unapply: []Action{{Kind: ActionFormat, Offset: start, Count: end - start, Format: name, Ranges: prev}},
	})
}

func (s *Slot) formatNames() []string {
	names := make([]string, 0, len(s.formats.ranges))
	for name := range s.formats.ranges {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (s *Slot) clone(live bool) *Slot {
	out := NewSlot(s.schema...)
	for _, item := range s.content.Items() {
		if c, ok := item.(*Component); ok {
			cc := c.clone(live)
			cc.parent = out
			item = cc
		}
		out.content.Append(item)
	}
	for _, r := range s.formats.all() {
		out.formats.replace(r.Name, r.Start, r.End, []FormatRange{r})
	}
	return out
}

// SlotLiteral is the serialized form of a slot.
type SlotLiteral struct {
	Schema  []ContentType   `json:"schema"`
	Content json.RawMessage `json:"content"`
	Formats []FormatRange   `json:"formats,omitempty"`
}

// Literal returns the serialized form of the slot.
func (s *Slot) Literal() SlotLiteral {
	content, _ := s.content.MarshalJSON()
	schema := s.Schema()
	if schema == nil {
		schema = []ContentType{}
	}
	return SlotLiteral{
		Schema:  schema,
		Content: content,
		Formats: s.Formats(),
	}
}

// MarshalJSON encodes the slot as a SlotLiteral.
func (s *Slot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Literal())
}

func contentTypeOf(item Item) ContentType {
	if c, ok := item.(*Component); ok {
		return c.def.Type
	}
	return TextType
}
