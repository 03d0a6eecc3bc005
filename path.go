package folio

import "slices"

// Path addresses a node in the document tree from the root component. Its
// elements alternate between a slot index within a component and a content
// offset within a slot: [slot, offset, slot, offset, ...]. An odd-length path
// addresses a slot; an even-length path addresses a component (the empty
// path is the root itself).
type Path []int

// Clone returns a copy of the path.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	return slices.Clone(p)
}

// Equal reports whether two paths are identical.
func (p Path) Equal(other Path) bool {
	return slices.Equal(p, other)
}

// HasPrefix reports whether prefix is a (not necessarily strict) prefix of p.
func (p Path) HasPrefix(prefix Path) bool {
	return len(prefix) <= len(p) && slices.Equal(p[:len(prefix)], prefix)
}

// ComparePaths orders two paths segment by segment. A path that is a strict
// prefix of the other orders first. It returns -1, 0 or +1.
func ComparePaths(a, b Path) int {
	return slices.Compare(a, b)
}

// Position is a location inside a slot: the slot's path plus an offset.
type Position struct {
	Path   Path
	Offset int
}

// Points returns the position in flat form: the slot path with the offset
// appended.
func (p Position) Points() Path {
	out := make(Path, 0, len(p.Path)+1)
	out = append(out, p.Path...)
	return append(out, p.Offset)
}

// PositionFromPoints splits a flat path into slot path and offset. It returns
// false when points does not address a position inside a slot.
func PositionFromPoints(points Path) (Position, bool) {
	if len(points) < 2 || len(points)%2 != 0 {
		return Position{}, false
	}
	return Position{Path: points[:len(points)-1].Clone(), Offset: points[len(points)-1]}, true
}

// SelectionPaths is the transport form of a selection: anchor and focus as
// flat positions. Empty paths mean nothing is selected.
type SelectionPaths struct {
	Anchor Path `json:"anchor"`
	Focus  Path `json:"focus"`
}

// FindSlotByPath resolves a slot path against root. It returns nil when the
// path does not address a reachable slot.
func FindSlotByPath(root *Component, path Path) *Slot {
	if root == nil || len(path)%2 != 1 {
		return nil
	}
	comp := root
	for i := 0; ; i += 2 {
		slot := comp.Slot(path[i])
		if slot == nil {
			return nil
		}
		if i == len(path)-1 {
			return slot
		}
		next, ok := slot.content.ItemAt(path[i+1]).(*Component)
		if !ok {
			return nil
		}
		comp = next
	}
}

// FindComponentByPath resolves a component path against root. The empty
// path resolves to root.
func FindComponentByPath(root *Component, path Path) *Component {
	if root == nil || len(path)%2 != 0 {
		return nil
	}
	if len(path) == 0 {
		return root
	}
	slot := FindSlotByPath(root, path[:len(path)-1])
	if slot == nil {
		return nil
	}
	comp, _ := slot.content.ItemAt(path[len(path)-1]).(*Component)
	return comp
}
