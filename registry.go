package folio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Registry holds the component definitions known to one editor instance and
// turns serialized literals back into live components.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry creates a registry holding defs.
func NewRegistry(defs ...*Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]*Definition)}
	if err := r.Register(defs...); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds definitions. Names must be unique.
func (r *Registry) Register(defs ...*Definition) error {
	for _, d := range defs {
		if d == nil || d.Name == "" {
			return fmt.Errorf("register: unnamed definition: %w", ErrInvalidKind)
		}
		if _, exists := r.defs[d.Name]; exists {
			return fmt.Errorf("register %s: %w", d.Name, ErrDuplicateComponent)
		}
		r.defs[d.Name] = d
	}
	return nil
}

// Get returns the definition registered under name.
func (r *Registry) Get(name string) (*Definition, bool) {
	d, ok := r.defs[name]
	return d, ok
}

// Names returns the registered definition names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns the registered definitions sorted by name.
func (r *Registry) Definitions() []*Definition {
	names := r.Names()
	out := make([]*Definition, len(names))
	for i, name := range names {
		out[i] = r.defs[name]
	}
	return out
}

// Create instantiates the definition registered under name.
func (r *Registry) Create(name string, init InitData) (*Component, error) {
	d, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("create %s: %w", name, ErrUnknownComponent)
	}
	return d.New(init)
}

// FromLiteral rebuilds a component and its subtree from its serialized form.
func (r *Registry) FromLiteral(lit ComponentLiteral) (*Component, error) {
	slots := make([]*Slot, 0, len(lit.Slots))
	for i, sl := range lit.Slots {
		s, err := r.SlotFromLiteral(sl)
		if err != nil {
			return nil, fmt.Errorf("%s slot %d: %w", lit.Name, i, err)
		}
		slots = append(slots, s)
	}
	return r.Create(lit.Name, InitData{State: lit.State, Slots: slots})
}

// SlotFromLiteral rebuilds a detached slot from its serialized form.
func (r *Registry) SlotFromLiteral(lit SlotLiteral) (*Slot, error) {
	s := NewSlot(lit.Schema...)
	items, err := r.DecodeItems(lit.Content)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if !s.Insert(s.Len(), item) {
			return nil, fmt.Errorf("%s content in %v: %w", contentTypeOf(item), lit.Schema, ErrSchemaMismatch)
		}
	}
	for _, f := range lit.Formats {
		s.formats.replace(f.Name, f.Start, f.End, []FormatRange{f})
	}
	return s, nil
}

// DecodeItems decodes a JSON array of strings and component literals.
func (r *Registry) DecodeItems(raw json.RawMessage) ([]Item, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("content: %w: %v", ErrInvalidDocument, err)
	}
	items := make([]Item, 0, len(elems))
	for i, el := range elems {
		el = bytes.TrimSpace(el)
		if len(el) > 0 && el[0] == '"' {
			var s string
			if err := json.Unmarshal(el, &s); err != nil {
				return nil, fmt.Errorf("content[%d]: %w: %v", i, ErrInvalidDocument, err)
			}
			items = append(items, Text(s))
			continue
		}
		var lit ComponentLiteral
		if err := json.Unmarshal(el, &lit); err != nil {
			return nil, fmt.Errorf("content[%d]: %w: %v", i, ErrInvalidDocument, err)
		}
		c, err := r.FromLiteral(lit)
		if err != nil {
			return nil, fmt.Errorf("content[%d]: %w", i, err)
		}
		items = append(items, c)
	}
	return items, nil
}
