package folio

import "github.com/rivo/uniseg"

// CorrectIndex moves an index that falls inside a grapheme cluster to the
// cluster's end when toEnd is true, otherwise to its start. Indices at 0, at
// Len() or on a cluster edge are returned unchanged.
func (c *Content) CorrectIndex(index int, toEnd bool) int {
	if index <= 0 || index >= c.length {
		return index
	}
	pos := 0
	for _, el := range c.data {
		n := el.itemLen()
		if t, ok := el.(Text); ok && index > pos && index < pos+n {
			return pos + snapToCluster(string(t), index-pos, toEnd)
		}
		pos += n
		if pos >= index {
			break
		}
	}
	return index
}

// snapToCluster returns the cluster edge nearest to the rune offset within s.
func snapToCluster(s string, offset int, toEnd bool) int {
	g := uniseg.NewGraphemes(s)
	start := 0
	for g.Next() {
		end := start + len(g.Runes())
		if offset > start && offset < end {
			if toEnd {
				return end
			}
			return start
		}
		if end >= offset {
			break
		}
		start = end
	}
	return offset
}

// clusterBoundaries returns the rune offsets of every cluster edge in s,
// including 0 and the rune length of s.
func clusterBoundaries(s string) []int {
	edges := []int{0}
	g := uniseg.NewGraphemes(s)
	pos := 0
	for g.Next() {
		pos += len(g.Runes())
		edges = append(edges, pos)
	}
	return edges
}

// previousBoundary returns the nearest cluster edge strictly before index.
func (c *Content) previousBoundary(index int) int {
	if index <= 0 {
		return 0
	}
	pos := 0
	for _, el := range c.data {
		n := el.itemLen()
		if t, ok := el.(Text); ok && index > pos && index <= pos+n {
			edges := clusterBoundaries(string(t))
			for i := len(edges) - 1; i >= 0; i-- {
				if pos+edges[i] < index {
					return pos + edges[i]
				}
			}
		}
		if index <= pos+n {
			return pos
		}
		pos += n
	}
	return index - 1
}

// nextBoundary returns the nearest cluster edge strictly after index.
func (c *Content) nextBoundary(index int) int {
	if index >= c.length {
		return c.length
	}
	pos := 0
	for _, el := range c.data {
		n := el.itemLen()
		if index >= pos && index < pos+n {
			if t, ok := el.(Text); ok {
				for _, edge := range clusterBoundaries(string(t)) {
					if pos+edge > index {
						return pos + edge
					}
				}
			}
			return pos + n
		}
		pos += n
	}
	return c.length
}
