package folio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingRenderer struct {
	renders int
	err     error
}

func (r *recordingRenderer) Render(root *Component) error {
	r.renders++
	return r.err
}

type restoreCall struct {
	sel       *AbstractSelection
	fromLocal bool
}

type recordingBridge struct {
	restores []restoreCall
}

func (b *recordingBridge) Restore(sel *AbstractSelection, fromLocalUpdate bool) {
	b.restores = append(b.restores, restoreCall{sel: sel, fromLocal: fromLocalUpdate})
}

func (b *recordingBridge) PositionByRange(sel AbstractSelection) (*NativePosition, *NativePosition) {
	return &NativePosition{Node: sel.AnchorSlot, Offset: sel.AnchorOffset},
		&NativePosition{Node: sel.FocusSlot, Offset: sel.FocusOffset}
}

type destroyRecorder struct {
	name string
	log  *[]string
}

func (d destroyRecorder) OnDestroy() {
	*d.log = append(*d.log, d.name)
}

func docDef() *Definition {
	return &Definition{
		Name: "doc",
		Kind: Division,
		Type: BlockComponentType,
		Slots: func() []*Slot {
			return []*Slot{NewSlot(BlockComponentType)}
		},
	}
}

func paragraphDef() *Definition {
	return &Definition{
		Name: "paragraph",
		Kind: Branch,
		Type: BlockComponentType,
		Slots: func() []*Slot {
			return []*Slot{NewSlot(TextType, InlineComponentType)}
		},
	}
}

func imageDef() *Definition {
	return &Definition{Name: "image", Kind: Leaf, Type: InlineComponentType}
}

func linkDef() *Definition {
	return &Definition{
		Name: "link",
		Kind: Branch,
		Type: InlineComponentType,
		Slots: func() []*Slot {
			return []*Slot{NewSlot(TextType)}
		},
	}
}

func columnsDef() *Definition {
	return &Definition{
		Name: "columns",
		Kind: Backbone,
		Type: BlockComponentType,
		Slots: func() []*Slot {
			return []*Slot{NewSlot(TextType), NewSlot(TextType)}
		},
	}
}

func testDefinitions() []*Definition {
	return []*Definition{docDef(), paragraphDef(), imageDef(), linkDef(), columnsDef()}
}

func mustNew(t *testing.T, d *Definition, init InitData) *Component {
	t.Helper()
	c, err := d.New(init)
	require.NoError(t, err)
	return c
}

// paragraph returns a detached paragraph holding text.
func paragraph(t *testing.T, text string) *Component {
	t.Helper()
	p := mustNew(t, paragraphDef(), InitData{})
	if text != "" {
		require.True(t, p.FirstSlot().Insert(0, Text(text)))
	}
	return p
}

// document returns a detached doc with one paragraph per text.
func document(t *testing.T, texts ...string) *Component {
	t.Helper()
	root := mustNew(t, docDef(), InitData{})
	for _, text := range texts {
		body := root.FirstSlot()
		require.True(t, body.Insert(body.Len(), paragraph(t, text)))
	}
	return root
}

type fixture struct {
	editor   *Editor
	renderer *recordingRenderer
	bridge   *recordingBridge
}

func newFixture(t *testing.T, opts Options, root *Component) *fixture {
	t.Helper()
	f := &fixture{renderer: &recordingRenderer{}, bridge: &recordingBridge{}}
	opts.Renderer = f.renderer
	opts.SelectionBridge = f.bridge
	if opts.Components == nil {
		opts.Components = testDefinitions()
	}
	e, err := New(opts)
	require.NoError(t, err)
	if root == nil {
		root = document(t, "")
	}
	require.NoError(t, e.Mount(root))
	t.Cleanup(e.Destroy)
	f.editor = e
	return f
}

// block returns the slot of the i-th paragraph of the root.
func (f *fixture) block(i int) *Slot {
	return FindSlotByPath(f.editor.Root(), Path{0, i, 0})
}

// changes collects every flushed change item.
func (f *fixture) changes() *[]ChangeItem {
	var items []ChangeItem
	f.editor.Scheduler().OnDocChanged(func(batch []ChangeItem) {
		items = append(items, batch...)
	})
	return &items
}

var errRender = errors.New("render failed")
