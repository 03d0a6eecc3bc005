package folio

// insertedCount returns the number of indices an insert action occupies.
func insertedCount(a Action) int {
	if a.Count > 0 {
		return a.Count
	}
	n := 0
	for _, item := range a.Items {
		n += ItemLen(item)
	}
	return n
}

// TransformPosition rebases pos through op, which has already been applied
// to the tree. Offsets after an insertion move right, offsets inside a
// deletion collapse to its start, and a position inside a deleted component
// collapses to the point where the component was.
func TransformPosition(pos Position, op Operation) Position {
	if !op.IsSlotOperation() {
		return pos
	}
	points := pos.Points()
	for _, a := range op.Apply {
		points = transformPoints(points, op.Path, a)
	}
	out, _ := PositionFromPoints(points)
	return out
}

// transformPoints adjusts the segment of points that lies in the slot at
// slotPath for a single action.
func transformPoints(points, slotPath Path, a Action) Path {
	k := len(slotPath)
	if len(points) <= k || !points.HasPrefix(slotPath) {
		return points
	}
	final := len(points) == k+1
	v := points[k]
	switch a.Kind {
	case ActionInsert:
		if a.Offset <= v {
			v += insertedCount(a)
		}
	case ActionDelete:
		end := a.Offset + a.Count
		switch {
		case v >= end:
			v -= a.Count
		case v >= a.Offset && !final:
			// The component on the route was deleted.
			out := points[:k].Clone()
			return append(out, a.Offset)
		case v > a.Offset:
			v = a.Offset
		}
	default:
		return points
	}
	out := points.Clone()
	out[k] = v
	return out
}

// rebasePath moves the component offsets along path through a. It reports
// false when a deletes a component the path runs through.
func rebasePath(path, slotPath Path, a Action) (Path, bool) {
	k := len(slotPath)
	if len(path) <= k || !path.HasPrefix(slotPath) {
		return path, true
	}
	v := path[k]
	switch a.Kind {
	case ActionInsert:
		if a.Offset <= v {
			v += insertedCount(a)
		}
	case ActionDelete:
		end := a.Offset + a.Count
		switch {
		case v >= end:
			v -= a.Count
		case v >= a.Offset:
			return nil, false
		}
	default:
		return path, true
	}
	out := path.Clone()
	out[k] = v
	return out, true
}

// footprint is the region of its slot that a recorded operation occupies in
// the current document: a range for content that is present, a point for
// content that was removed.
type footprint struct {
	start, end int
	point      bool
}

func footprintOf(op Operation) (footprint, bool) {
	if len(op.Apply) == 0 {
		return footprint{}, false
	}
	a := op.Apply[0]
	switch a.Kind {
	case ActionInsert:
		return footprint{start: a.Offset, end: a.Offset + insertedCount(a)}, true
	case ActionDelete:
		return footprint{start: a.Offset, end: a.Offset, point: true}, true
	case ActionFormat:
		return footprint{start: a.Offset, end: a.Offset + a.Count}, true
	}
	return footprint{}, false
}

// shift returns how far f moves under a, or false when a overlaps it.
func (f footprint) shift(a Action) (int, bool) {
	switch a.Kind {
	case ActionInsert:
		n := insertedCount(a)
		switch {
		case a.Offset <= f.start:
			return n, true
		case !f.point && a.Offset < f.end:
			return 0, false
		}
	case ActionDelete:
		end := a.Offset + a.Count
		switch {
		case f.point && f.start <= a.Offset:
		case f.point && f.start >= end:
			return -a.Count, true
		case f.point:
			return 0, false
		case f.end <= a.Offset:
		case f.start >= end:
			return -a.Count, true
		default:
			return 0, false
		}
	}
	return 0, true
}

// transformOperation rebases a recorded operation through a concurrent
// operation that has already been applied. It fails with ErrConflict when
// the two touch the same content.
func transformOperation(rec, against Operation) (Operation, error) {
	if !against.IsSlotOperation() {
		if !rec.IsSlotOperation() && rec.Path.Equal(against.Path) {
			return Operation{}, ErrConflict
		}
		return rec, nil
	}
	if insertedAround(rec, against.Path) {
		return Operation{}, ErrConflict
	}
	for _, a := range against.Apply {
		path, ok := rebasePath(rec.Path, against.Path, a)
		if !ok {
			return Operation{}, ErrConflict
		}
		rec.Path = path

		if !rec.IsSlotOperation() || !rec.Path.Equal(against.Path) {
			continue
		}
		f, ok := footprintOf(rec)
		if !ok {
			continue
		}
		delta, ok := f.shift(a)
		if !ok {
			return Operation{}, ErrConflict
		}
		if delta != 0 {
			rec.Apply = shiftActions(rec.Apply, delta)
			rec.Unapply = shiftActions(rec.Unapply, delta)
		}
	}
	return rec, nil
}

func shiftActions(actions []Action, delta int) []Action {
	out := make([]Action, len(actions))
	for i, a := range actions {
		a.Offset += delta
		if len(a.Ranges) > 0 {
			ranges := make([]FormatRange, len(a.Ranges))
			for j, r := range a.Ranges {
				r.Start += delta
				r.End += delta
				ranges[j] = r
			}
			a.Ranges = ranges
		}
		out[i] = a
	}
	return out
}

// insertedAround reports whether path runs through content that rec
// inserted into its slot.
func insertedAround(rec Operation, path Path) bool {
	k := len(rec.Path)
	if !rec.IsSlotOperation() || len(path) <= k || !path.HasPrefix(rec.Path) {
		return false
	}
	f, ok := footprintOf(rec)
	if !ok || f.point || len(rec.Apply) == 0 || rec.Apply[0].Kind != ActionInsert {
		return false
	}
	return path[k] >= f.start && path[k] < f.end
}

// transformThrough rebases op past other, where both were made against the
// same document and do not overlap.
func transformThrough(op, other Operation) Operation {
	if !other.IsSlotOperation() {
		return op
	}
	for _, a := range other.Apply {
		if path, ok := rebasePath(op.Path, other.Path, a); ok {
			op.Path = path
		}
		if op.IsSlotOperation() && op.Path.Equal(other.Path) {
			op.Apply = moveActions(op.Apply, a)
			op.Unapply = moveActions(op.Unapply, a)
		}
	}
	return op
}

func moveOffset(v int, a Action) int {
	switch a.Kind {
	case ActionInsert:
		if a.Offset <= v {
			return v + insertedCount(a)
		}
	case ActionDelete:
		switch end := a.Offset + a.Count; {
		case v >= end:
			return v - a.Count
		case v > a.Offset:
			return a.Offset
		}
	}
	return v
}

func moveActions(actions []Action, through Action) []Action {
	out := make([]Action, len(actions))
	for i, a := range actions {
		a.Offset = moveOffset(a.Offset, through)
		if len(a.Ranges) > 0 {
			ranges := make([]FormatRange, len(a.Ranges))
			for j, r := range a.Ranges {
				r.Start = moveOffset(r.Start, through)
				r.End = moveOffset(r.End, through)
				ranges[j] = r
			}
			a.Ranges = ranges
		}
		out[i] = a
	}
	return out
}
