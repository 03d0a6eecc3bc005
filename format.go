package folio

import (
	"reflect"
	"sort"
)

// Format is a named formatting value applied to a range of a slot.
type Format struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// FormatRange is a formatting value covering [Start, End) of a slot.
type FormatRange struct {
	Name  string `json:"name"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Value any    `json:"value"`
}

// formatMap stores format ranges grouped by format name. Ranges of the same
// name never overlap and are kept sorted by Start.
type formatMap struct {
	ranges map[string][]FormatRange
}

func newFormatMap() *formatMap {
	return &formatMap{ranges: make(map[string][]FormatRange)}
}

// within returns the ranges of name clipped to [start, end).
func (m *formatMap) within(name string, start, end int) []FormatRange {
	var out []FormatRange
	for _, r := range m.ranges[name] {
		lo, hi := max(r.Start, start), min(r.End, end)
		if lo < hi {
			out = append(out, FormatRange{Name: name, Start: lo, End: hi, Value: r.Value})
		}
	}
	return out
}

// replace clears [start, end) for name and then adds the given ranges.
func (m *formatMap) replace(name string, start, end int, ranges []FormatRange) {
	var kept []FormatRange
	for _, r := range m.ranges[name] {
		if r.End <= start || r.Start >= end {
			kept = append(kept, r)
			continue
		}
		if r.Start < start {
			kept = append(kept, FormatRange{Name: name, Start: r.Start, End: start, Value: r.Value})
		}
		if r.End > end {
			kept = append(kept, FormatRange{Name: name, Start: end, End: r.End, Value: r.Value})
		}
	}
	for _, r := range ranges {
		if r.Start < r.End {
			r.Name = name
			kept = append(kept, r)
		}
	}
	m.set(name, kept)
}

func (m *formatMap) set(name string, ranges []FormatRange) {
	if len(ranges) == 0 {
		delete(m.ranges, name)
		return
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })
	merged := ranges[:1]
	for _, r := range ranges[1:] {
		last := &merged[len(merged)-1]
		if last.End == r.Start && reflect.DeepEqual(last.Value, r.Value) {
			last.End = r.End
			continue
		}
		merged = append(merged, r)
	}
	m.ranges[name] = merged
}

// shiftInsert moves ranges for an insertion of count items at index. A range
// containing index or ending at it is stretched; a range starting at index
// is pushed back, except at the very start of the slot.
func (m *formatMap) shiftInsert(index, count int) {
	for _, ranges := range m.ranges {
		for i := range ranges {
			r := &ranges[i]
			switch {
			case index < r.Start || (index == r.Start && index > 0):
				r.Start += count
				r.End += count
			case index <= r.End:
				r.End += count
			}
		}
	}
}

// shiftDelete shrinks ranges for a deletion of count items at index.
func (m *formatMap) shiftDelete(index, count int) {
	end := index + count
	for name, ranges := range m.ranges {
		var kept []FormatRange
		for _, r := range ranges {
			r.Start = collapse(r.Start, index, end, count)
			r.End = collapse(r.End, index, end, count)
			if r.Start < r.End {
				kept = append(kept, r)
			}
		}
		m.set(name, kept)
	}
}

func collapse(pos, start, end, count int) int {
	switch {
	case pos >= end:
		return pos - count
	case pos > start:
		return start
	}
	return pos
}

// at returns the formats covering index.
func (m *formatMap) at(index int) []Format {
	var out []Format
	for name, ranges := range m.ranges {
		for _, r := range ranges {
			if index >= r.Start && index < r.End {
				out = append(out, Format{Name: name, Value: r.Value})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// all returns every range sorted by name then start.
func (m *formatMap) all() []FormatRange {
	names := make([]string, 0, len(m.ranges))
	for name := range m.ranges {
		names = append(names, name)
	}
	sort.Strings(names)
	var out []FormatRange
	for _, name := range names {
		out = append(out, m.ranges[name]...)
	}
	return out
}
