package folio

import "fmt"

// ChangeOrigin classifies where a mutation came from.
type ChangeOrigin int

const (
	// Local marks mutations made by the local user.
	Local ChangeOrigin = iota

	// History marks mutations replayed by undo or redo.
	History

	// Remote marks mutations applied on behalf of a collaborator.
	Remote
)

func (o ChangeOrigin) String() string {
	switch o {
	case Local:
		return "local"
	case History:
		return "history"
	case Remote:
		return "remote"
	}
	return "unknown"
}

// MarshalText encodes the origin by name.
func (o ChangeOrigin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an origin name.
func (o *ChangeOrigin) UnmarshalText(b []byte) error {
	switch string(b) {
	case "local":
		*o = Local
	case "history":
		*o = History
	case "remote":
		*o = Remote
	default:
		return fmt.Errorf("change origin %q: %w", b, ErrInvalidAction)
	}
	return nil
}

// ActionKind identifies the kind of an Action.
type ActionKind int

const (
	// ActionInsert inserts Items at Offset, with optional Formats.
	ActionInsert ActionKind = iota

	// ActionDelete removes Count items at Offset.
	ActionDelete

	// ActionFormat replaces the ranges of Format within [Offset, Offset+Count).
	ActionFormat

	// ActionState replaces a component's state.
	ActionState
)

func (k ActionKind) String() string {
	switch k {
	case ActionInsert:
		return "insert"
	case ActionDelete:
		return "delete"
	case ActionFormat:
		return "format"
	case ActionState:
		return "state"
	}
	return "unknown"
}

// Action is one step of an Operation.
type Action struct {
	Kind   ActionKind
	Offset int
	Count  int

	// Items holds inserted content for ActionInsert.
	Items []Item

	// Formats holds the formats applied to inserted content for ActionInsert.
	Formats []Format

	// Format names the formatter for ActionFormat; Ranges are its new ranges.
	Format string
	Ranges []FormatRange

	// State is the replacement state for ActionState.
	State State
}

// Operation is a single recorded mutation. Path addresses the mutated slot
// (odd length) or component (even length) from the root component. Apply
// performs the mutation; Unapply reverses it.
type Operation struct {
	Path    Path
	Apply   []Action
	Unapply []Action
}

// IsSlotOperation reports whether the operation targets a slot.
func (op Operation) IsSlotOperation() bool {
	return len(op.Path)%2 == 1
}

// Inverse returns an operation that undoes op.
func (op Operation) Inverse() Operation {
	return Operation{
		Path:    op.Path.Clone(),
		Apply:   op.Unapply,
		Unapply: op.Apply,
	}
}

// ChangeItem is an operation tagged with exactly one origin.
type ChangeItem struct {
	From      ChangeOrigin
	Operation Operation
}

// ChangeBatch is a contiguous run of change items sharing one origin.
type ChangeBatch struct {
	From  ChangeOrigin
	Items []ChangeItem
}

// GroupByOrigin splits items into contiguous same-origin batches, preserving
// order. Items of different origins are never placed in the same batch.
func GroupByOrigin(items []ChangeItem) []ChangeBatch {
	var batches []ChangeBatch
	for _, item := range items {
		if n := len(batches); n > 0 && batches[n-1].From == item.From {
			batches[n-1].Items = append(batches[n-1].Items, item)
			continue
		}
		batches = append(batches, ChangeBatch{From: item.From, Items: []ChangeItem{item}})
	}
	return batches
}

// ApplyActions performs actions against the slot or component addressed by
// path under root. The mutations are recorded like any other edit. Inserted
// components are copied, so the same actions can be applied again.
func ApplyActions(root *Component, path Path, actions []Action) error {
	if len(path)%2 == 0 {
		c := FindComponentByPath(root, path)
		if c == nil {
			return ErrPathNotFound
		}
		for _, a := range actions {
			if a.Kind != ActionState {
				return ErrInvalidAction
			}
			c.setState(a.State)
		}
		return nil
	}
	slot := FindSlotByPath(root, path)
	if slot == nil {
		return ErrPathNotFound
	}
	for _, a := range actions {
		switch a.Kind {
		case ActionInsert:
			offset := a.Offset
			for _, item := range a.Items {
				if c, ok := item.(*Component); ok {
					item = c.clone(true)
				}
				if !slot.Insert(offset, item, a.Formats...) {
					return ErrSchemaMismatch
				}
				offset += ItemLen(item)
			}
		case ActionDelete:
			slot.Delete(a.Offset, a.Count)
		case ActionFormat:
			slot.replaceFormat(a.Format, a.Offset, a.Offset+a.Count, a.Ranges)
		default:
			return ErrInvalidAction
		}
	}
	return nil
}
