package folio

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishCall struct {
	from ChangeOrigin
	ops  []OperationLiteral
}

type recordingSink struct {
	calls []publishCall
	err   error
}

func (s *recordingSink) Publish(from ChangeOrigin, ops []OperationLiteral) error {
	s.calls = append(s.calls, publishCall{from: from, ops: ops})
	return s.err
}

type tableDelegate struct {
	commons []*Component
}

func (d *tableDelegate) Rects(common *Component, sel AbstractSelection) ([]Rect, bool) {
	d.commons = append(d.commons, common)
	if common.Name() != "paragraph" {
		return nil, false
	}
	return []Rect{{Left: float64(sel.AnchorOffset), Width: 1, Height: 1}}, true
}

func TestCollaboratorRequiresMount(t *testing.T) {
	e, err := New(Options{Renderer: &recordingRenderer{}, SelectionBridge: &recordingBridge{}})
	require.NoError(t, err)
	_, err = NewCollaborator(e, nil, nil)
	assert.ErrorIs(t, err, ErrNotMounted)
}

func TestCollaboratorPublishesLocalAndHistory(t *testing.T) {
	f := newFixture(t, Options{}, document(t, "hello"))
	sink := &recordingSink{}
	c, err := NewCollaborator(f.editor, sink, nil)
	require.NoError(t, err)
	defer c.Close()

	f.typeAt(f.block(0), 5, "!")
	require.Len(t, sink.calls, 1)
	assert.Equal(t, Local, sink.calls[0].from)
	require.Len(t, sink.calls[0].ops, 1)
	assert.Equal(t, Path{0, 0, 0}, sink.calls[0].ops[0].Path)
	assert.Equal(t, "insert", sink.calls[0].ops[0].Apply[0].Kind)

	applied, err := c.ApplyRemote([]OperationLiteral{{
		Path:  Path{0, 0, 0},
		Apply: []ActionLiteral{{Kind: "insert", Content: json.RawMessage(`[">"]`)}},
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	f.editor.Flush()
	assert.Equal(t, ">hello!", f.block(0).String())
	assert.Len(t, sink.calls, 1, "remote changes are not sent back")

	require.True(t, f.editor.History().Back())
	f.editor.Flush()
	require.Len(t, sink.calls, 2)
	assert.Equal(t, History, sink.calls[1].from)

	sink.err = errors.New("offline")
	f.typeAt(f.block(0), 0, "x")
	assert.Len(t, sink.calls, 3, "publish errors do not stop forwarding")

	c.Close()
	f.typeAt(f.block(0), 0, "y")
	assert.Len(t, sink.calls, 3)
}

func TestCollaboratorConverges(t *testing.T) {
	a := newFixture(t, Options{}, document(t, "shared"))
	b := newFixture(t, Options{}, document(t, "shared"))

	cb, err := NewCollaborator(b.editor, nil, nil)
	require.NoError(t, err)
	var deliverErr error
	_, err = NewCollaborator(a.editor, SinkFunc(func(_ ChangeOrigin, ops []OperationLiteral) error {
		_, deliverErr = cb.ApplyRemote(ops)
		return deliverErr
	}), nil)
	require.NoError(t, err)

	img := mustNew(t, imageDef(), InitData{})
	a.editor.Selection().SetPosition(a.block(0), 6)
	a.editor.Commander().Insert(Text(" doc"))
	a.editor.Commander().Insert(img)
	a.editor.Selection().SetBaseAndExtent(a.block(0), 0, a.block(0), 6)
	a.editor.Commander().ApplyFormat(Format{Name: "bold", Value: true})
	a.editor.Flush()
	require.NoError(t, deliverErr)
	b.editor.Flush()

	want, err := json.Marshal(a.block(0))
	require.NoError(t, err)
	got, err := json.Marshal(b.block(0))
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
	assert.Equal(t, "shared doc", b.block(0).String())
	assert.False(t, b.editor.History().CanBack())
}

func TestCollaboratorApplyRemoteErrors(t *testing.T) {
	f := newFixture(t, Options{}, document(t, "hello"))
	c, err := NewCollaborator(f.editor, nil, nil)
	require.NoError(t, err)

	applied, err := c.ApplyRemote([]OperationLiteral{
		{Path: Path{0, 9, 0}, Apply: []ActionLiteral{{Kind: "delete", Count: 1}}},
		{Path: Path{0, 0, 0}, Apply: []ActionLiteral{{Kind: "explode"}}},
		{Path: Path{0, 0, 0}, Apply: []ActionLiteral{{Kind: "delete", Offset: 0, Count: 1}}},
	})
	assert.Equal(t, 1, applied)
	assert.ErrorIs(t, err, ErrInvalidAction)
	assert.NotErrorIs(t, err, ErrPathNotFound, "unresolved paths are skipped quietly")
	f.editor.Flush()
	assert.Equal(t, "ello", f.block(0).String())

	f.editor.Destroy()
	_, err = c.ApplyRemote(nil)
	assert.ErrorIs(t, err, ErrEditorDestroyed)
}

func TestCollaboratorPeers(t *testing.T) {
	f := newFixture(t, Options{}, document(t, "hello", "world"))
	delegate := &tableDelegate{}
	c, err := NewCollaborator(f.editor, nil, delegate)
	require.NoError(t, err)

	var updates [][]PeerRange
	c.OnPeerRanges(func(r []PeerRange) { updates = append(updates, r) })

	ranges := c.SetPeers([]RemoteSelection{
		{ID: "ann", Color: "#f00", Paths: SelectionPaths{Anchor: Path{0, 0, 0, 1}, Focus: Path{0, 0, 0, 3}}},
		{ID: "bob", Paths: SelectionPaths{Anchor: Path{0, 0, 0, 0}, Focus: Path{0, 1, 0, 2}}},
		{ID: "gone", Paths: SelectionPaths{Anchor: Path{0, 5, 0, 0}, Focus: Path{0, 5, 0, 0}}},
		{ID: "odd", Paths: SelectionPaths{Anchor: Path{0, 0, 0}, Focus: Path{0, 0, 0}}},
	})
	require.Len(t, ranges, 2)
	require.Len(t, updates, 1)

	ann := ranges[0]
	assert.Equal(t, "ann", ann.Peer.ID)
	assert.Equal(t, f.block(0), ann.Selection.AnchorSlot)
	assert.Equal(t, 3, ann.Focus.Offset)
	assert.Equal(t, []Rect{{Left: 1, Width: 1, Height: 1}}, ann.Rects)

	bob := ranges[1]
	assert.Nil(t, bob.Rects, "the delegate declined the document root")
	assert.Equal(t, f.editor.Root(), delegate.commons[1])

	f.typeAt(f.block(0), 0, "x")
	require.Len(t, updates, 2, "document changes re-resolve peers")
	assert.Len(t, c.PeerRanges(), 2)
}

func TestCollaboratorSelectionBroadcast(t *testing.T) {
	f := newFixture(t, Options{}, document(t, "hello"))
	c, err := NewCollaborator(f.editor, nil, nil)
	require.NoError(t, err)
	var sent []SelectionPaths
	c.OnSelectionChange(func(p SelectionPaths) { sent = append(sent, p) })
	f.editor.Selection().SetPosition(f.block(0), 2)
	require.Len(t, sent, 1)
	assert.Equal(t, Path{0, 0, 0, 2}, sent[0].Focus)
}

func TestCollaboratorSendsComponentsAsInserted(t *testing.T) {
	a := newFixture(t, Options{}, document(t, "one"))
	b := newFixture(t, Options{}, document(t, "one"))

	cb, err := NewCollaborator(b.editor, nil, nil)
	require.NoError(t, err)
	var deliverErr error
	_, err = NewCollaborator(a.editor, SinkFunc(func(_ ChangeOrigin, ops []OperationLiteral) error {
		_, deliverErr = cb.ApplyRemote(ops)
		return deliverErr
	}), nil)
	require.NoError(t, err)

	para := paragraph(t, "")
	require.True(t, a.editor.Root().FirstSlot().Insert(1, para))
	require.True(t, para.FirstSlot().Insert(0, Text("x")))
	a.editor.Flush()
	require.NoError(t, deliverErr)
	b.editor.Flush()

	assert.Equal(t, "x", b.block(1).String())
	want, err := json.Marshal(a.editor.Root())
	require.NoError(t, err)
	got, err := json.Marshal(b.editor.Root())
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
}
