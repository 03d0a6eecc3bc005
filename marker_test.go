package folio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkerBubblesPath(t *testing.T) {
	root := document(t, "one", "two")
	link := mustNew(t, linkDef(), InitData{})
	second := FindSlotByPath(root, Path{0, 1, 0})
	require.True(t, second.Insert(1, link))

	var ops []Operation
	root.Marker().OnChange(func(op Operation) { ops = append(ops, op) })

	require.True(t, link.FirstSlot().Insert(0, Text("go")))
	require.Len(t, ops, 1)
	assert.Equal(t, Path{0, 1, 0, 1, 0}, ops[0].Path)
	assert.True(t, ops[0].IsSlotOperation())

	link.UpdateState(func(s State) { s["href"] = "https://example.com" })
	require.Len(t, ops, 2)
	assert.Equal(t, Path{0, 1, 0, 1}, ops[1].Path)
	assert.False(t, ops[1].IsSlotOperation())
	assert.Equal(t, ActionState, ops[1].Apply[0].Kind)
	assert.Nil(t, ops[1].Unapply[0].State)
}

func TestMarkerFlags(t *testing.T) {
	root := document(t, "x")
	slot := FindSlotByPath(root, Path{0, 0, 0})
	para := slot.Parent()
	for _, m := range []*ChangeMarker{root.Marker(), root.FirstSlot().Marker(), para.Marker(), slot.Marker()} {
		m.Rendered()
	}

	v := root.Marker().Version()
	slot.Insert(1, Text("y"))
	assert.True(t, slot.Marker().Dirty())
	assert.True(t, slot.Marker().Changed())
	assert.False(t, para.Marker().Dirty(), "ancestors are changed, not dirty")
	assert.True(t, para.Marker().Changed())
	assert.True(t, root.Marker().Changed())
	assert.Equal(t, v+1, root.Marker().Version())
}

func TestMarkerForceChange(t *testing.T) {
	root := document(t, "x")
	slot := FindSlotByPath(root, Path{0, 0, 0})
	forced := 0
	root.Marker().OnForceChange(func() { forced++ })
	var ops []Operation
	root.Marker().OnChange(func(op Operation) { ops = append(ops, op) })

	slot.Marker().ForceMarkDirtied()
	assert.Equal(t, 1, forced)
	assert.Empty(t, ops, "a forced change carries no operation")
}

func TestMarkerComponentRemoved(t *testing.T) {
	root := document(t, "a", "b")
	var removed []*Component
	root.Marker().OnChildComponentRemoved(func(c *Component) { removed = append(removed, c) })

	para := FindComponentByPath(root, Path{0, 1})
	root.FirstSlot().Cut(1, 2)
	assert.Equal(t, []*Component{para}, removed)
	assert.Nil(t, para.Parent())
}

func TestMarkerUnsubscribe(t *testing.T) {
	s := NewSlot(TextType)
	n := 0
	unsub := s.Marker().OnChange(func(Operation) { n++ })
	s.Insert(0, Text("a"))
	unsub()
	s.Insert(0, Text("b"))
	assert.Equal(t, 1, n)
}
