package folio

import (
	"encoding/json"
	"fmt"
)

// ActionLiteral is the serialized form of an Action. Inserted content is a
// JSON array of strings and component literals.
type ActionLiteral struct {
	Kind    string          `json:"kind"`
	Offset  int             `json:"offset,omitempty"`
	Count   int             `json:"count,omitempty"`
	Content json.RawMessage `json:"content,omitempty"`
	Formats []Format        `json:"formats,omitempty"`
	Format  string          `json:"format,omitempty"`
	Ranges  []FormatRange   `json:"ranges,omitempty"`
	State   State           `json:"state,omitempty"`
}

// OperationLiteral is the serialized form of an Operation.
type OperationLiteral struct {
	Path    Path            `json:"path"`
	Apply   []ActionLiteral `json:"apply"`
	Unapply []ActionLiteral `json:"unapply"`
}

// EncodeOperation converts op to its serialized form.
func EncodeOperation(op Operation) (OperationLiteral, error) {
	apply, err := encodeActions(op.Apply)
	if err != nil {
		return OperationLiteral{}, err
	}
	unapply, err := encodeActions(op.Unapply)
	if err != nil {
		return OperationLiteral{}, err
	}
	path := op.Path.Clone()
	if path == nil {
		path = Path{}
	}
	return OperationLiteral{Path: path, Apply: apply, Unapply: unapply}, nil
}

func encodeActions(actions []Action) ([]ActionLiteral, error) {
	out := make([]ActionLiteral, 0, len(actions))
	for _, a := range actions {
		lit := ActionLiteral{
			Kind:    a.Kind.String(),
			Offset:  a.Offset,
			Count:   a.Count,
			Formats: a.Formats,
			Format:  a.Format,
			Ranges:  a.Ranges,
			State:   a.State,
		}
		if a.Kind == ActionInsert {
			content, err := NewContent(a.Items...).MarshalJSON()
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", a.Kind, err)
			}
			lit.Content = content
		}
		out = append(out, lit)
	}
	return out, nil
}

// DecodeOperation rebuilds an Operation, creating inserted components
// through reg.
func DecodeOperation(reg *Registry, lit OperationLiteral) (Operation, error) {
	apply, err := decodeActions(reg, lit.Apply)
	if err != nil {
		return Operation{}, err
	}
	unapply, err := decodeActions(reg, lit.Unapply)
	if err != nil {
		return Operation{}, err
	}
	return Operation{Path: lit.Path.Clone(), Apply: apply, Unapply: unapply}, nil
}

func decodeActions(reg *Registry, lits []ActionLiteral) ([]Action, error) {
	out := make([]Action, 0, len(lits))
	for _, lit := range lits {
		a := Action{
			Offset:  lit.Offset,
			Count:   lit.Count,
			Formats: lit.Formats,
			Format:  lit.Format,
			Ranges:  lit.Ranges,
			State:   lit.State,
		}
		switch lit.Kind {
		case "insert":
			a.Kind = ActionInsert
			items, err := reg.DecodeItems(lit.Content)
			if err != nil {
				return nil, err
			}
			a.Items = items
		case "delete":
			a.Kind = ActionDelete
		case "format":
			a.Kind = ActionFormat
		case "state":
			a.Kind = ActionState
		default:
			return nil, fmt.Errorf("action %q: %w", lit.Kind, ErrInvalidAction)
		}
		out = append(out, a)
	}
	return out, nil
}
