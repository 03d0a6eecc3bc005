package folio

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// Item is a single entry of a Content: either a Text run or a *Component.
type Item interface {
	itemLen() int
}

// Text is a run of characters stored in a Content.
type Text string

func (t Text) itemLen() int {
	return utf8.RuneCountInString(string(t))
}

// ItemLen returns the index length of an item. Text counts runes; a component
// always counts as one.
func ItemLen(item Item) int {
	if item == nil {
		return 0
	}
	return item.itemLen()
}

// Content is an ordered run-length sequence of text runs and components.
// No two adjacent entries are ever both text.
type Content struct {
	data   []Item
	length int
}

// NewContent creates a Content holding the given items, merged as if appended.
func NewContent(items ...Item) *Content {
	c := &Content{}
	for _, item := range items {
		c.Append(item)
	}
	return c
}

// Len returns the total index length of the content.
func (c *Content) Len() int {
	return c.length
}

// Items returns a copy of the underlying entries.
func (c *Content) Items() []Item {
	out := make([]Item, len(c.data))
	copy(out, c.data)
	return out
}

// Append adds an item at the end, merging with a trailing text run.
func (c *Content) Append(item Item) {
	if isEmptyItem(item) {
		return
	}
	c.length += item.itemLen()
	if t, ok := item.(Text); ok && len(c.data) > 0 {
		if last, ok := c.data[len(c.data)-1].(Text); ok {
			c.data[len(c.data)-1] = last + t
			return
		}
	}
	c.data = append(c.data, item)
}

// Insert places an item at index. Indices past the end append; negative
// indices insert at the front. An index inside a grapheme cluster is moved to
// the start of that cluster.
func (c *Content) Insert(index int, item Item) {
	if isEmptyItem(item) {
		return
	}
	if index >= c.length {
		c.Append(item)
		return
	}
	if index < 0 {
		index = 0
	}
	index = c.CorrectIndex(index, false)

	text, isText := item.(Text)
	pos := 0
	for i, el := range c.data {
		n := el.itemLen()
		if t, ok := el.(Text); ok {
			if index >= pos && index < pos+n {
				split := runeOffset(string(t), index-pos)
				left, right := t[:split], t[split:]
				if isText {
					c.data[i] = left + text + right
				} else {
					parts := make([]Item, 0, 3)
					if left != "" {
						parts = append(parts, left)
					}
					parts = append(parts, item)
					if right != "" {
						parts = append(parts, right)
					}
					c.data = splice(c.data, i, 1, parts...)
				}
				c.length += item.itemLen()
				return
			}
		} else if index == pos {
			if prev, ok := previousText(c.data, i); ok && isText {
				c.data[i-1] = prev + text
			} else {
				c.data = splice(c.data, i, 0, item)
			}
			c.length += item.itemLen()
			return
		}
		pos += n
	}
	c.Append(item)
}

// Cut removes the items between start and end and returns them. The
// surviving items are re-appended so that text runs left adjacent by the
// removal merge again. It returns an empty slice when end <= start.
func (c *Content) Cut(start, end int) []Item {
	start, end = c.clampRange(start, end)
	if end <= start {
		return []Item{}
	}
	start = c.CorrectIndex(start, false)
	end = c.CorrectIndex(end, true)

	removed := c.sliceRaw(start, end)
	survivors := append(c.sliceRaw(0, start), c.sliceRaw(end, c.length)...)
	c.data = nil
	c.length = 0
	for _, item := range survivors {
		c.Append(item)
	}
	return removed
}

// Slice returns the items between start and end without modifying the
// content. A boundary inside a grapheme cluster is widened to the cluster
// edge: start moves to the cluster start, end to the cluster end.
func (c *Content) Slice(start, end int) []Item {
	start, end = c.clampRange(start, end)
	if start >= end {
		return []Item{}
	}
	start = c.CorrectIndex(start, false)
	end = c.CorrectIndex(end, true)
	return c.sliceRaw(start, end)
}

// sliceRaw slices on already-corrected indices.
func (c *Content) sliceRaw(start, end int) []Item {
	result := []Item{}
	if start >= end {
		return result
	}
	pos := 0
	for _, el := range c.data {
		n := el.itemLen()
		fragStart, fragEnd := pos, pos+n
		pos = fragEnd
		if start < fragEnd && end > fragStart {
			if t, ok := el.(Text); ok {
				lo := max(0, start-fragStart)
				hi := min(fragEnd, end) - fragStart
				s := string(t)
				result = append(result, Text(s[runeOffset(s, lo):runeOffset(s, hi)]))
			} else {
				result = append(result, el)
			}
		}
		if pos >= end {
			break
		}
	}
	return result
}

// ItemAt returns the item covering index, or nil when index is out of range.
// A text item is returned as the single grapheme cluster at index.
func (c *Content) ItemAt(index int) Item {
	items := c.Slice(index, index+1)
	if len(items) == 0 {
		return nil
	}
	return items[0]
}

// IndexOf returns the content offset of a component, or -1.
func (c *Content) IndexOf(component *Component) int {
	pos := 0
	for _, el := range c.data {
		if el == Item(component) {
			return pos
		}
		pos += el.itemLen()
	}
	return -1
}

// ToGrid returns the cumulative offsets of every entry boundary, starting at 0.
func (c *Content) ToGrid() []int {
	grid := make([]int, 0, len(c.data)+1)
	grid = append(grid, 0)
	pos := 0
	for _, el := range c.data {
		pos += el.itemLen()
		grid = append(grid, pos)
	}
	return grid
}

// String concatenates text runs and the string form of components.
func (c *Content) String() string {
	var sb strings.Builder
	for _, el := range c.data {
		switch v := el.(type) {
		case Text:
			sb.WriteString(string(v))
		case *Component:
			sb.WriteString(v.String())
		}
	}
	return sb.String()
}

// MarshalJSON encodes the content as an ordered array of strings and
// component literals.
func (c *Content) MarshalJSON() ([]byte, error) {
	out := make([]any, 0, len(c.data))
	for _, el := range c.data {
		switch v := el.(type) {
		case Text:
			out = append(out, string(v))
		case *Component:
			out = append(out, v.Literal())
		}
	}
	return json.Marshal(out)
}

func (c *Content) clampRange(start, end int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end > c.length {
		end = c.length
	}
	return start, end
}

func isEmptyItem(item Item) bool {
	switch v := item.(type) {
	case nil:
		return true
	case Text:
		return v == ""
	case *Component:
		return v == nil
	}
	return false
}

func previousText(data []Item, i int) (Text, bool) {
	if i == 0 {
		return "", false
	}
	t, ok := data[i-1].(Text)
	return t, ok
}

// splice replaces n entries at i with items.
func splice(data []Item, i, n int, items ...Item) []Item {
	out := make([]Item, 0, len(data)-n+len(items))
	out = append(out, data[:i]...)
	out = append(out, items...)
	return append(out, data[i+n:]...)
}

// runeOffset converts a rune offset within s to a byte offset.
func runeOffset(s string, runes int) int {
	if runes <= 0 {
		return 0
	}
	count := 0
	for i := range s {
		if count == runes {
			return i
		}
		count++
	}
	return len(s)
}
