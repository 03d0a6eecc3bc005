package folio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerCoalescesLocalChanges(t *testing.T) {
	f := newFixture(t, Options{}, document(t, ""))
	changes := f.changes()
	s := f.editor.Scheduler()
	slot := f.block(0)
	rendersAfterMount := f.renderer.renders
	require.Equal(t, 1, rendersAfterMount)

	docChange := 0
	s.OnDocChange(func() { docChange++ })

	slot.Insert(0, Text("a"))
	assert.Equal(t, Changed, s.State())
	slot.Insert(1, Text("b"))
	slot.Insert(2, Text("c"))
	assert.Equal(t, 1, docChange, "docChange fires once per cycle")
	assert.Equal(t, rendersAfterMount, f.renderer.renders, "rendering waits for the loop")

	f.editor.Flush()
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, rendersAfterMount+1, f.renderer.renders)
	require.Len(t, *changes, 3)
	for _, item := range *changes {
		assert.Equal(t, Local, item.From)
	}
	assert.True(t, s.LastChangesHasLocalUpdate())
	assert.False(t, s.LastChangesHasRemoteUpdate())
}

func TestSchedulerRemoteTransactTagsEverything(t *testing.T) {
	f := newFixture(t, Options{}, document(t, ""))
	changes := f.changes()
	s := f.editor.Scheduler()
	slot := f.block(0)

	s.RemoteUpdateTransact(func() {
		for i := 0; i < 10; i++ {
			slot.Insert(slot.Len(), Text("x"))
		}
	})
	f.editor.Flush()

	require.Len(t, *changes, 10)
	for _, item := range *changes {
		assert.Equal(t, Remote, item.From)
	}
	batches := GroupByOrigin(*changes)
	require.Len(t, batches, 1)
	assert.Equal(t, Remote, batches[0].From)
	assert.False(t, s.LastChangesHasLocalUpdate())
	assert.True(t, s.LastChangesHasRemoteUpdate())

	last := f.bridge.restores[len(f.bridge.restores)-1]
	assert.False(t, last.fromLocal)
}

func TestSchedulerSeparatesOrigins(t *testing.T) {
	f := newFixture(t, Options{}, document(t, ""))
	changes := f.changes()
	s := f.editor.Scheduler()
	slot := f.block(0)

	slot.Insert(0, Text("a"))
	s.RemoteUpdateTransact(func() {
		slot.Insert(1, Text("b"))
		s.HistoryApplyTransact(func() { slot.Insert(2, Text("c")) })
	})
	s.HistoryApplyTransact(func() { slot.Insert(3, Text("d")) })
	slot.Insert(4, Text("e"))
	f.editor.Flush()

	var origins []ChangeOrigin
	for _, item := range *changes {
		origins = append(origins, item.From)
	}
	assert.Equal(t, []ChangeOrigin{Local, Remote, Remote, History, Local}, origins)

	batches := GroupByOrigin(*changes)
	require.Len(t, batches, 4)
	assert.Len(t, batches[1].Items, 2)
	assert.True(t, s.LastChangesHasLocalUpdate())
	assert.True(t, s.LastChangesHasRemoteUpdate())
}

func TestSchedulerForceRender(t *testing.T) {
	f := newFixture(t, Options{}, document(t, "x"))
	changes := f.changes()
	before := f.renderer.renders

	f.block(0).Marker().ForceMarkDirtied()
	f.block(0).Marker().ForceMarkDirtied()
	f.editor.Flush()
	assert.Equal(t, before+1, f.renderer.renders)
	assert.Empty(t, *changes)

	// A pending flush absorbs the forced render.
	f.block(0).Marker().ForceMarkDirtied()
	f.block(0).Insert(0, Text("y"))
	f.editor.Flush()
	assert.Equal(t, before+2, f.renderer.renders)
}

func TestSchedulerRenderErrorKeepsRunning(t *testing.T) {
	f := newFixture(t, Options{}, document(t, ""))
	changes := f.changes()
	f.renderer.err = errRender

	f.block(0).Insert(0, Text("a"))
	f.editor.Flush()
	assert.Len(t, *changes, 1)
	assert.Equal(t, Idle, f.editor.Scheduler().State())
}

func TestSchedulerDestroySweep(t *testing.T) {
	var destroyed []string
	hooked := func(name string) *Definition {
		return &Definition{
			Name: name,
			Kind: Leaf,
			Type: InlineComponentType,
			Setup: func(*Component) any {
				return destroyRecorder{name: name, log: &destroyed}
			},
		}
	}
	f := newFixture(t, Options{}, document(t, "ab"))
	gone := mustNew(t, hooked("gone"), InitData{})
	moved := mustNew(t, hooked("moved"), InitData{})
	slot := f.block(0)
	require.True(t, slot.Insert(1, gone))
	require.True(t, slot.Insert(2, moved))
	f.editor.Flush()

	slot.Cut(1, 2)
	i := moved.Index()
	slot.Cut(i, i+1)
	require.True(t, slot.Insert(0, moved))
	assert.Empty(t, destroyed, "hooks run at flush")
	f.editor.Flush()

	assert.Equal(t, []string{"gone"}, destroyed)
}

func TestSchedulerDestroyRunsHooksChildrenFirst(t *testing.T) {
	var destroyed []string
	withHook := func(d *Definition) *Definition {
		d.Setup = func(*Component) any { return destroyRecorder{name: d.Name, log: &destroyed} }
		return d
	}
	root := mustNew(t, withHook(docDef()), InitData{})
	para := mustNew(t, withHook(paragraphDef()), InitData{})
	require.True(t, root.FirstSlot().Insert(0, para))

	f := newFixture(t, Options{}, root)
	f.editor.Destroy()
	assert.Equal(t, []string{"paragraph", "doc"}, destroyed)
	assert.True(t, f.editor.Destroyed())

	f.editor.Destroy()
	assert.Len(t, destroyed, 2)
}

func TestSchedulerStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "changed", Changed.String())
	assert.Equal(t, "rendering", Rendering.String())
}

func TestSchedulerSweepSkipsDetachedTrees(t *testing.T) {
	var destroyed []string
	hooked := &Definition{
		Name: "hooked",
		Kind: Leaf,
		Type: InlineComponentType,
		Setup: func(*Component) any {
			return destroyRecorder{name: "hooked", log: &destroyed}
		},
	}
	f := newFixture(t, Options{}, document(t, "ab"))
	img := mustNew(t, hooked, InitData{})
	slot := f.block(0)
	require.True(t, slot.Insert(1, img))
	f.editor.Flush()

	holder := paragraph(t, "")
	slot.Cut(1, 2)
	require.True(t, holder.FirstSlot().Insert(0, img))
	f.editor.Flush()

	assert.Empty(t, destroyed, "a component kept in another tree is not destroyed")
	assert.Same(t, holder, img.ParentComponent())
}
