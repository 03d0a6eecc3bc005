package folio

import (
	"errors"
	"fmt"
	"log/slog"
)

// Sink receives the serialized operations of each local or history batch.
// It is the hand-off point to a transport the editor knows nothing about.
type Sink interface {
	Publish(from ChangeOrigin, ops []OperationLiteral) error
}

// SinkFunc adapts a function into a Sink.
type SinkFunc func(from ChangeOrigin, ops []OperationLiteral) error

// Publish calls f.
func (f SinkFunc) Publish(from ChangeOrigin, ops []OperationLiteral) error {
	return f(from, ops)
}

// RemoteSelection is a peer's selection as received from the awareness
// provider.
type RemoteSelection struct {
	ID       string         `json:"id"`
	Color    string         `json:"color"`
	Username string         `json:"username"`
	Paths    SelectionPaths `json:"paths"`
}

// Rect is an axis-aligned box in view coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PeerRange is a peer selection resolved against the local document.
type PeerRange struct {
	Peer      RemoteSelection
	Selection AbstractSelection
	Anchor    *NativePosition
	Focus     *NativePosition

	// Rects is set when a RectDelegate produced rectangles for the range.
	Rects []Rect
}

// RectDelegate computes highlight rectangles for a peer selection inside
// containers that lay out their content specially, such as tables. It
// returns false for containers it does not recognize.
type RectDelegate interface {
	Rects(common *Component, sel AbstractSelection) ([]Rect, bool)
}

// Collaborator connects an editor to a collaborative sync provider.
// Local and history batches flow out through the Sink; remote operations
// come in through ApplyRemote and are never sent back out.
type Collaborator struct {
	editor   *Editor
	sink     Sink
	delegate RectDelegate
	logger   *slog.Logger

	peers        []RemoteSelection
	onPeerRanges event[[]PeerRange]
	subs         []func()
}

// NewCollaborator attaches to a mounted editor. Either sink or delegate may
// be nil.
func NewCollaborator(e *Editor, sink Sink, delegate RectDelegate) (*Collaborator, error) {
	if e.Scheduler() == nil {
		return nil, fmt.Errorf("collaborator: %w", ErrNotMounted)
	}
	c := &Collaborator{
		editor:   e,
		sink:     sink,
		delegate: delegate,
		logger:   e.Logger().With("component", "collab"),
	}
	c.subs = append(c.subs, e.Scheduler().OnDocChanged(c.forward))
	return c, nil
}

func (c *Collaborator) forward(items []ChangeItem) {
	for _, batch := range GroupByOrigin(items) {
		if batch.From == Remote || c.sink == nil {
			continue
		}
		ops := make([]OperationLiteral, 0, len(batch.Items))
		for _, item := range batch.Items {
			lit, err := EncodeOperation(item.Operation)
			if err != nil {
				c.logger.Warn("encode operation", "path", item.Operation.Path, "error", err)
				continue
			}
			ops = append(ops, lit)
		}
		if err := c.sink.Publish(batch.From, ops); err != nil {
			c.logger.Warn("publish", "origin", batch.From, "operations", len(ops), "error", err)
		}
	}
	if len(c.peers) > 0 {
		c.onPeerRanges.emit(c.resolvePeers())
	}
}

// ApplyRemote applies operations received from peers. Every change is
// tagged Remote. Operations whose path no longer resolves are skipped. It
// returns the number of operations applied.
func (c *Collaborator) ApplyRemote(ops []OperationLiteral) (int, error) {
	if c.editor.Destroyed() {
		return 0, ErrEditorDestroyed
	}
	reg, root := c.editor.Registry(), c.editor.Root()
	applied := 0
	var errs []error
	c.editor.Scheduler().RemoteUpdateTransact(func() {
		for i, lit := range ops {
			op, err := DecodeOperation(reg, lit)
			if err != nil {
				errs = append(errs, fmt.Errorf("operation %d: %w", i, err))
				continue
			}
			if err := ApplyActions(root, op.Path, op.Apply); err != nil {
				if errors.Is(err, ErrPathNotFound) {
					c.logger.Warn("remote operation skipped", "path", op.Path, "error", err)
					continue
				}
				errs = append(errs, fmt.Errorf("operation %d: %w", i, err))
				continue
			}
			applied++
		}
	})
	return applied, errors.Join(errs...)
}

// OnSelectionChange registers fn to receive the local selection whenever it
// changes, for broadcasting to peers.
func (c *Collaborator) OnSelectionChange(fn func(SelectionPaths)) func() {
	return c.editor.Selection().OnChange(fn)
}

// OnPeerRanges registers fn to receive resolved peer ranges whenever the
// peers or the document change.
func (c *Collaborator) OnPeerRanges(fn func([]PeerRange)) func() {
	return c.onPeerRanges.subscribe(fn)
}

// SetPeers replaces the known peer selections and returns the ranges that
// resolve in the local document.
func (c *Collaborator) SetPeers(peers []RemoteSelection) []PeerRange {
	c.peers = append([]RemoteSelection(nil), peers...)
	ranges := c.resolvePeers()
	c.onPeerRanges.emit(ranges)
	return ranges
}

// PeerRanges resolves the current peers against the document.
func (c *Collaborator) PeerRanges() []PeerRange {
	return c.resolvePeers()
}

func (c *Collaborator) resolvePeers() []PeerRange {
	root := c.editor.Root()
	bridge := c.editor.opts.SelectionBridge
	var out []PeerRange
	for _, p := range c.peers {
		anchor, ok1 := PositionFromPoints(p.Paths.Anchor)
		focus, ok2 := PositionFromPoints(p.Paths.Focus)
		if !ok1 || !ok2 {
			continue
		}
		as, fs := FindSlotByPath(root, anchor.Path), FindSlotByPath(root, focus.Path)
		if as == nil || fs == nil {
			continue
		}
		abs := AbstractSelection{
			AnchorSlot:   as,
			AnchorOffset: max(0, min(anchor.Offset, as.Len())),
			FocusSlot:    fs,
			FocusOffset:  max(0, min(focus.Offset, fs.Len())),
		}
		na, nf := bridge.PositionByRange(abs)
		if na == nil || nf == nil {
			continue
		}
		r := PeerRange{Peer: p, Selection: abs, Anchor: na, Focus: nf}
		if c.delegate != nil {
			common := GetCommonAncestorComponent(as.Parent(), fs.Parent())
			if rects, ok := c.delegate.Rects(common, abs); ok {
				r.Rects = rects
			}
		}
		out = append(out, r)
	}
	return out
}

// Close detaches from the editor.
func (c *Collaborator) Close() {
	for _, unsub := range c.subs {
		unsub()
	}
	c.subs = nil
	c.onPeerRanges.clear()
}
