package folio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionBasics(t *testing.T) {
	f := newFixture(t, Options{}, document(t, "hello", "world"))
	sel := f.editor.Selection()
	assert.False(t, sel.IsSelected())
	assert.Equal(t, SelectionPaths{Anchor: Path{}, Focus: Path{}}, sel.Paths())

	first, second := f.block(0), f.block(1)
	require.True(t, sel.SetBaseAndExtent(second, 2, first, 1))
	assert.True(t, sel.IsSelected())
	assert.False(t, sel.IsCollapsed())
	assert.Equal(t, second, sel.AnchorSlot())
	assert.Equal(t, 2, sel.AnchorOffset())
	assert.Equal(t, first, sel.StartSlot())
	assert.Equal(t, 1, sel.StartOffset())
	assert.Equal(t, second, sel.EndSlot())
	assert.Equal(t, 2, sel.EndOffset())
	assert.Equal(t, Path{0, 1, 0, 2}, sel.Paths().Anchor)
	assert.Equal(t, Path{0, 0, 0, 1}, sel.Paths().Focus)

	assert.Equal(t, f.editor.Root().FirstSlot(), sel.CommonAncestorSlot())
	assert.Equal(t, f.editor.Root(), sel.CommonAncestorComponent())

	require.True(t, sel.SetPosition(first, 99))
	assert.Equal(t, 5, sel.FocusOffset(), "offsets clamp to the slot")
	assert.True(t, sel.IsCollapsed())
	assert.Equal(t, first, sel.CommonAncestorSlot())
	assert.Equal(t, first.Parent(), sel.CommonAncestorComponent())

	detached := NewSlot(TextType)
	assert.False(t, sel.SetPosition(detached, 0))
	assert.Equal(t, first, sel.StartSlot(), "failed set leaves the selection")

	sel.Unselect()
	assert.False(t, sel.IsSelected())
	assert.Nil(t, sel.StartSlot())
}

func TestSelectionSelectHelpers(t *testing.T) {
	f := newFixture(t, Options{}, document(t, "ab", "cd"))
	sel := f.editor.Selection()

	require.True(t, sel.SelectSlot(f.block(1)))
	assert.Equal(t, 0, sel.StartOffset())
	assert.Equal(t, 2, sel.EndOffset())

	para := f.block(1).Parent()
	require.True(t, sel.SelectComponent(para, false))
	assert.Equal(t, f.editor.Root().FirstSlot(), sel.StartSlot())
	assert.Equal(t, 1, sel.StartOffset())
	assert.Equal(t, 2, sel.EndOffset())

	require.True(t, sel.SelectComponent(para, true))
	assert.Equal(t, f.block(1), sel.StartSlot())

	require.True(t, sel.SelectAll())
	assert.Equal(t, f.editor.Root().FirstSlot(), sel.StartSlot())
	assert.Equal(t, 0, sel.StartOffset())
	assert.Equal(t, 2, sel.EndOffset())

	assert.False(t, sel.SelectComponent(mustNew(t, imageDef(), InitData{}), true))
}

func TestSelectionRebasesThroughEdits(t *testing.T) {
	f := newFixture(t, Options{}, document(t, "hello", "world"))
	sel := f.editor.Selection()
	second := f.block(1)
	require.True(t, sel.SetPosition(second, 3))

	second.Insert(0, Text(">>"))
	assert.Equal(t, 5, sel.FocusOffset())

	// A block inserted ahead moves the path of the caret's slot.
	body := f.editor.Root().FirstSlot()
	require.True(t, body.Insert(0, paragraph(t, "new")))
	assert.Equal(t, Path{0, 2, 0, 5}, sel.Paths().Focus)
	assert.Equal(t, second, sel.FocusSlot())

	// Removing the block collapses the caret to where the block was.
	body.Cut(2, 3)
	assert.Equal(t, Path{0, 2}, sel.Paths().Focus)
	assert.Equal(t, body, sel.FocusSlot())
	assert.Equal(t, 2, sel.FocusOffset())
}

func TestSelectionOnChange(t *testing.T) {
	f := newFixture(t, Options{}, document(t, "hello"))
	sel := f.editor.Selection()
	var seen []SelectionPaths
	sel.OnChange(func(p SelectionPaths) { seen = append(seen, p) })

	sel.SetPosition(f.block(0), 1)
	sel.SetPosition(f.block(0), 1)
	require.Len(t, seen, 1, "unchanged paths are not re-emitted")
	assert.Equal(t, Path{0, 0, 0, 1}, seen[0].Anchor)

	f.block(0).Insert(0, Text("x"))
	f.editor.Flush()
	require.Len(t, seen, 2, "the flush reports the rebased caret")
	assert.Equal(t, Path{0, 0, 0, 2}, seen[1].Focus)
}

func TestSelectionSetPaths(t *testing.T) {
	f := newFixture(t, Options{}, document(t, "hello"))
	sel := f.editor.Selection()
	sel.SetPaths(SelectionPaths{Anchor: Path{0, 0, 0, 1}, Focus: Path{0, 0, 0, 4}})
	assert.Equal(t, 1, sel.StartOffset())
	assert.Equal(t, 4, sel.EndOffset())

	sel.SetPaths(SelectionPaths{Anchor: Path{0, 7, 0, 1}, Focus: Path{0, 7, 0, 1}})
	assert.False(t, sel.IsSelected(), "paths that do not resolve read as unselected")

	sel.SetPaths(SelectionPaths{})
	assert.False(t, sel.IsSelected())
}

func TestSelectionRestoreUsesBridge(t *testing.T) {
	f := newFixture(t, Options{}, document(t, "hello"))
	sel := f.editor.Selection()
	sel.SetPosition(f.block(0), 2)
	sel.Restore(true)

	last := f.bridge.restores[len(f.bridge.restores)-1]
	require.NotNil(t, last.sel)
	assert.True(t, last.fromLocal)
	assert.Equal(t, f.block(0), last.sel.FocusSlot)
	assert.Equal(t, 2, last.sel.FocusOffset)

	anchor, focus := sel.NativePositions()
	require.NotNil(t, anchor)
	assert.Equal(t, 2, focus.Offset)

	sel.Unselect()
	sel.Restore(false)
	assert.Nil(t, f.bridge.restores[len(f.bridge.restores)-1].sel)
	anchor, _ = sel.NativePositions()
	assert.Nil(t, anchor)
}

func TestSelectionCaretMotion(t *testing.T) {
	root := document(t, "a"+family, "b")
	link := mustNew(t, linkDef(), InitData{})
	require.True(t, link.FirstSlot().Insert(0, Text("go")))
	require.True(t, FindSlotByPath(root, Path{0, 1, 0}).Insert(1, link))
	// Blocks: ["a👨‍👩‍👧"], ["b", link("go")]
	f := newFixture(t, Options{}, root)
	sel := f.editor.Selection()
	first, second := f.block(0), f.block(1)

	sel.SetPosition(first, 1)
	require.True(t, sel.ToNext())
	assert.Equal(t, 6, sel.FocusOffset(), "steps over the whole cluster")
	require.True(t, sel.ToNext())
	assert.Equal(t, first.Parent().Parent(), sel.FocusSlot(), "leaves the block after it")
	assert.Equal(t, 1, sel.FocusOffset())

	sel.SetPosition(second, 1)
	require.True(t, sel.ToNext())
	assert.Equal(t, link.FirstSlot(), sel.FocusSlot(), "enters the component")
	assert.Equal(t, 0, sel.FocusOffset())

	require.True(t, sel.ToPrevious())
	assert.Equal(t, second, sel.FocusSlot(), "leaves before the component")
	assert.Equal(t, 1, sel.FocusOffset())

	sel.SetPosition(second, 2)
	require.True(t, sel.ToPrevious())
	assert.Equal(t, link.FirstSlot(), sel.FocusSlot())
	assert.Equal(t, 2, sel.FocusOffset())

	sel.SetPosition(first, 6)
	require.True(t, sel.ToPrevious())
	assert.Equal(t, 1, sel.FocusOffset())

	sel.SetBaseAndExtent(first, 0, first, 6)
	require.True(t, sel.ToNext())
	assert.True(t, sel.IsCollapsed())
	assert.Equal(t, 6, sel.FocusOffset())

	root2 := f.editor.Root().FirstSlot()
	sel.SetPosition(root2, 0)
	assert.False(t, sel.ToPrevious(), "start of the document")
}

func TestGetCommonAncestorComponent(t *testing.T) {
	root := document(t, "a", "b")
	link := mustNew(t, linkDef(), InitData{})
	require.True(t, FindSlotByPath(root, Path{0, 1, 0}).Insert(0, link))
	p0 := FindComponentByPath(root, Path{0, 0})
	p1 := FindComponentByPath(root, Path{0, 1})

	assert.Equal(t, root, GetCommonAncestorComponent(p0, link))
	assert.Equal(t, p1, GetCommonAncestorComponent(p1, link))
	assert.Nil(t, GetCommonAncestorComponent(p0, mustNew(t, imageDef(), InitData{})))
}
