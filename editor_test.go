package folio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type composer struct {
	started, ended int
}

func (c *composer) OnCompositionStart(ev *Event) {
	c.started++
	ev.PreventDefault()
}

func (c *composer) OnCompositionEnd(*Event) { c.ended++ }

func TestNewEditorErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want error
	}{
		{"no renderer", Options{SelectionBridge: &recordingBridge{}}, ErrNoRenderer},
		{"no bridge", Options{Renderer: &recordingRenderer{}}, ErrNoSelectionBridge},
		{
			"duplicate component",
			Options{
				Renderer:        &recordingRenderer{},
				SelectionBridge: &recordingBridge{},
				Components:      []*Definition{paragraphDef(), paragraphDef()},
			},
			ErrDuplicateComponent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := New(tt.opts)
			assert.Nil(t, e)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEditorMount(t *testing.T) {
	e, err := New(Options{Renderer: &recordingRenderer{}, SelectionBridge: &recordingBridge{}})
	require.NoError(t, err)
	assert.False(t, e.Exec(RawKey{Key: "a"}), "nothing to dispatch to before mount")
	assert.Nil(t, e.Scheduler())
	assert.Nil(t, e.History())

	assert.ErrorIs(t, e.Mount(nil), ErrInvalidDocument)
	root := document(t, "attached")
	assert.ErrorIs(t, e.Mount(FindComponentByPath(root, Path{0, 0})), ErrAttached)

	require.NoError(t, e.Mount(root))
	assert.ErrorIs(t, e.Mount(document(t)), ErrAlreadyMounted)
	assert.Equal(t, root, e.Root())
	assert.NotNil(t, e.Scheduler())
	assert.NotNil(t, e.History())

	e.Destroy()
	e.Destroy()
	assert.True(t, e.Destroyed())

	fresh, err := New(Options{Renderer: &recordingRenderer{}, SelectionBridge: &recordingBridge{}})
	require.NoError(t, err)
	fresh.Destroy()
	assert.ErrorIs(t, fresh.Mount(document(t)), ErrEditorDestroyed)
}

func TestEditorMountRendersOnce(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	assert.Equal(t, 1, f.renderer.renders)
	assert.Zero(t, f.editor.Flush())
	assert.Equal(t, 1, f.renderer.renders)
}

func TestEditorPostAndCreate(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	done := make(chan struct{})
	go f.editor.Post(func() { close(done) })
	<-f.editor.Loop().wake
	f.editor.Flush()
	select {
	case <-done:
	default:
		t.Fatal("posted task did not run on Flush")
	}

	p, err := f.editor.Create("paragraph", InitData{})
	require.NoError(t, err)
	assert.Equal(t, BlockComponentType, p.Type())
	_, err = f.editor.Create("table", InitData{})
	assert.ErrorIs(t, err, ErrUnknownComponent)
}

func TestEditorComposition(t *testing.T) {
	hook := &composer{}
	boxDef := &Definition{
		Name: "box",
		Kind: Branch,
		Type: BlockComponentType,
		Slots: func() []*Slot {
			return []*Slot{NewSlot(TextType)}
		},
		Setup: func(*Component) any { return hook },
	}
	root := document(t, "plain")
	box := mustNew(t, boxDef, InitData{})
	require.True(t, box.FirstSlot().Insert(0, Text("typed")))
	require.True(t, root.FirstSlot().Insert(1, box))
	f := newFixture(t, Options{Components: append(testDefinitions(), boxDef)}, root)
	sel := f.editor.Selection()

	sel.SetPosition(f.block(0), 1)
	assert.False(t, f.editor.ComposeStart(), "paragraphs have no composition hook")

	sel.SetBaseAndExtent(box.FirstSlot(), 1, box.FirstSlot(), 4)
	assert.True(t, f.editor.ComposeStart())
	assert.Equal(t, "td", box.FirstSlot().String(), "the selected range is replaced")
	assert.False(t, f.editor.ComposeEnd())
	assert.Equal(t, 1, hook.started)
	assert.Equal(t, 1, hook.ended)

	sel.Unselect()
	assert.False(t, f.editor.ComposeEnd())
}

func TestDefaultShortcuts(t *testing.T) {
	f := newFixture(t, Options{}, document(t, "ab", "cd"))
	remove := RegisterDefaultShortcuts(f.editor)
	sel := f.editor.Selection()
	exec := func(s KeymapState) {
		t.Helper()
		require.True(t, f.editor.Keyboard().Exec(s))
	}

	sel.SetPosition(f.block(0), 1)
	exec(KeymapState{Key: "Enter"})
	assert.Equal(t, "a\nb", f.block(0).String())
	f.editor.Flush()

	sel.SetPosition(f.block(1), 2)
	exec(KeymapState{Key: "Enter", Shift: true})
	assert.Equal(t, "cd\n\n", f.block(1).String())
	assert.Equal(t, 3, sel.FocusOffset())
	f.editor.Flush()

	exec(KeymapState{Key: "Backspace"})
	assert.Equal(t, "cd\n", f.block(1).String())
	exec(KeymapState{Key: "ArrowLeft"})
	assert.Equal(t, 1, sel.FocusOffset())
	exec(KeymapState{Key: "ArrowRight"})
	assert.Equal(t, 2, sel.FocusOffset())
	exec(KeymapState{Key: "Delete"})
	assert.Equal(t, "cd", f.block(1).String())
	f.editor.Flush()

	exec(KeymapState{Key: "z", Ctrl: true})
	f.editor.Flush()
	assert.Equal(t, "a\nb", f.block(0).String())
	assert.Equal(t, "cd\n\n", f.block(1).String())
	exec(KeymapState{Key: "z", Ctrl: true, Shift: true})
	f.editor.Flush()
	assert.Equal(t, "cd", f.block(1).String())

	exec(KeymapState{Key: "a", Ctrl: true})
	assert.Equal(t, f.editor.Root().FirstSlot(), sel.StartSlot())
	assert.Equal(t, 2, sel.EndOffset())

	sel.SetBaseAndExtent(f.block(1), 0, f.block(1), 1)
	exec(KeymapState{Key: "x", Ctrl: true})
	assert.Equal(t, "d", f.block(1).String())

	remove()
	assert.False(t, f.editor.Keyboard().Exec(KeymapState{Key: "Enter"}))
}
