package folio

import (
	"context"
	"errors"
	"log/slog"
)

// DefaultHistoryStackSize is the number of revisions kept when Options
// leaves HistoryStackSize unset.
const DefaultHistoryStackSize = 500

// Revision is one undoable step: the local operations of one flushed batch
// plus the selection before and after them.
type Revision struct {
	Operations []Operation
	Before     SelectionPaths
	After      SelectionPaths
}

// UndoHistory records local changes and replays their inverses. Remote changes
// are not undoable; recorded revisions are rebased through them, and a
// revision that overlaps a remote edit is dropped together with everything
// older than it.
type UndoHistory struct {
	root      *Component
	scheduler *Scheduler
	selection *Selection
	logger    *slog.Logger
	size      int

	back    []Revision
	forward []Revision
	before  SelectionPaths

	onChange event[struct{}]
	subs     []func()
}

func newHistory(root *Component, scheduler *Scheduler, selection *Selection, size int, logger *slog.Logger) *UndoHistory {
	if size <= 0 {
		size = DefaultHistoryStackSize
	}
	return &UndoHistory{
		root:      root,
		scheduler: scheduler,
		selection: selection,
		logger:    logger,
		size:      size,
	}
}

// Listen starts recording.
func (h *UndoHistory) Listen() {
	h.before = h.selection.Paths()
	h.subs = append(h.subs,
		h.selection.OnChange(func(p SelectionPaths) {
			if h.scheduler.State() == Idle {
				h.before = p
			}
		}),
		h.scheduler.OnDocChanged(h.record),
	)
}

// OnChange registers fn to run whenever the stacks change.
func (h *UndoHistory) OnChange(fn func()) func() {
	return h.onChange.subscribe(func(struct{}) { fn() })
}

func (h *UndoHistory) record(items []ChangeItem) {
	changed := false
	for _, batch := range GroupByOrigin(items) {
		switch batch.From {
		case Local:
			ops := make([]Operation, len(batch.Items))
			for i, item := range batch.Items {
				ops[i] = item.Operation
			}
			h.back = append(h.back, Revision{
				Operations: ops,
				Before:     h.before,
				After:      h.selection.Paths(),
			})
			if len(h.back) > h.size {
				h.back = h.back[len(h.back)-h.size:]
			}
			h.forward = nil
			changed = true
		case Remote:
			for _, item := range batch.Items {
				if h.rebase(item.Operation) {
					changed = true
				}
			}
		case History:
		}
	}
	h.before = h.selection.Paths()
	if changed {
		h.onChange.emit(struct{}{})
	}
}

// rebase moves every recorded revision past a remote operation. It reports
// whether any revision was dropped.
func (h *UndoHistory) rebase(remote Operation) bool {
	var dropped bool
	h.back, dropped = rebaseStack(h.back, remote, false)
	var droppedForward bool
	h.forward, droppedForward = rebaseStack(h.forward, remote, true)
	if dropped || droppedForward {
		h.logger.Warn("history revisions dropped",
			"path", remote.Path,
			"undo", len(h.back),
			"redo", len(h.forward))
	}
	return dropped || droppedForward
}

// rebaseStack rebases a stack whose top is the last element. A conflicting
// revision is dropped with every revision below it. Undone revisions are
// rebased in their inverted form, which is what the current document holds.
func rebaseStack(stack []Revision, remote Operation, undone bool) ([]Revision, bool) {
	for i := len(stack) - 1; i >= 0; i-- {
		rev := stack[i]
		if undone {
			rev = rev.inverse()
		}
		rebased, below, err := rebaseRevision(rev, remote)
		if err != nil {
			return stack[i+1:], true
		}
		if undone {
			rebased = rebased.inverse()
		}
		stack[i] = rebased
		remote = below
	}
	return stack, false
}

// rebaseRevision rebases the applied revision rev through remote. Each
// operation is transformed in the document state right after it ran, so
// remote is carried back through the operations that followed. The returned
// operation is remote as seen before rev.
func rebaseRevision(rev Revision, remote Operation) (Revision, Operation, error) {
	ops := make([]Operation, len(rev.Operations))
	r := remote
	for i := len(rev.Operations) - 1; i >= 0; i-- {
		op := rev.Operations[i]
		t, err := transformOperation(op, r)
		if err != nil {
			return Revision{}, Operation{}, err
		}
		ops[i] = t
		r = transformThrough(r, op.Inverse())
	}
	return Revision{
		Operations: ops,
		Before:     rebasePaths(rev.Before, r),
		After:      rebasePaths(rev.After, remote),
	}, r, nil
}

// inverse returns the revision that undoes rev.
func (rev Revision) inverse() Revision {
	ops := make([]Operation, len(rev.Operations))
	for i, op := range rev.Operations {
		ops[len(ops)-1-i] = op.Inverse()
	}
	return Revision{Operations: ops, Before: rev.After, After: rev.Before}
}

func rebasePaths(p SelectionPaths, op Operation) SelectionPaths {
	if len(p.Anchor) == 0 || len(p.Focus) == 0 || !op.IsSlotOperation() {
		return p
	}
	anchor, focus := p.Anchor, p.Focus
	for _, a := range op.Apply {
		anchor = transformPoints(anchor, op.Path, a)
		focus = transformPoints(focus, op.Path, a)
	}
	return SelectionPaths{Anchor: anchor, Focus: focus}
}

// CanBack reports whether there is a revision to undo.
func (h *UndoHistory) CanBack() bool {
	return len(h.back) > 0
}

// CanForward reports whether there is a revision to redo.
func (h *UndoHistory) CanForward() bool {
	return len(h.forward) > 0
}

// Back undoes the most recent revision.
func (h *UndoHistory) Back() bool {
	if !h.CanBack() {
		return false
	}
	rev := h.back[len(h.back)-1]
	h.back = h.back[:len(h.back)-1]

	var err error
	h.scheduler.HistoryApplyTransact(func() {
		for i := len(rev.Operations) - 1; i >= 0 && err == nil; i-- {
			op := rev.Operations[i]
			err = ApplyActions(h.root, op.Path, op.Unapply)
		}
	})
	if err != nil {
		h.fail("undo", err)
		return false
	}
	h.selection.SetPaths(rev.Before)
	h.forward = append(h.forward, rev)
	h.onChange.emit(struct{}{})
	return true
}

// Forward redoes the most recently undone revision.
func (h *UndoHistory) Forward() bool {
	if !h.CanForward() {
		return false
	}
	rev := h.forward[len(h.forward)-1]
	h.forward = h.forward[:len(h.forward)-1]

	var err error
	h.scheduler.HistoryApplyTransact(func() {
		for i := 0; i < len(rev.Operations) && err == nil; i++ {
			op := rev.Operations[i]
			err = ApplyActions(h.root, op.Path, op.Apply)
		}
	})
	if err != nil {
		h.fail("redo", err)
		return false
	}
	h.selection.SetPaths(rev.After)
	h.back = append(h.back, rev)
	h.onChange.emit(struct{}{})
	return true
}

// fail clears both stacks after a replay error; their paths can no longer
// be trusted.
func (h *UndoHistory) fail(action string, err error) {
	level := slog.LevelError
	if errors.Is(err, ErrPathNotFound) {
		level = slog.LevelWarn
	}
	h.logger.Log(context.Background(), level, "history replay failed", "action", action, "error", err)
	h.back, h.forward = nil, nil
	h.onChange.emit(struct{}{})
}

// Clear discards every revision.
func (h *UndoHistory) Clear() {
	h.back, h.forward = nil, nil
	h.onChange.emit(struct{}{})
}

// Revisions returns the undo stack, oldest first.
func (h *UndoHistory) Revisions() []Revision {
	return append([]Revision(nil), h.back...)
}

// Destroy stops recording and clears the stacks.
func (h *UndoHistory) Destroy() {
	for _, unsub := range h.subs {
		unsub()
	}
	h.subs = nil
	h.back, h.forward = nil, nil
	h.onChange.clear()
}
