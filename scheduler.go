package folio

import (
	"log/slog"
)

// Renderer turns the document tree into a native view. Render is called
// with a consistent snapshot; it should consult each node's ChangeMarker and
// call Rendered once it has consumed a node.
type Renderer interface {
	Render(root *Component) error
}

// SchedulerState is the position of the scheduler in its render cycle.
type SchedulerState int

const (
	// Idle means every change has been rendered.
	Idle SchedulerState = iota

	// Changed means at least one change is waiting for the next flush.
	Changed

	// Rendering means a flush is in progress.
	Rendering
)

func (s SchedulerState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Changed:
		return "changed"
	case Rendering:
		return "rendering"
	}
	return "unknown"
}

// Scheduler batches document changes into render passes. Every change that
// happens before the loop next drains is delivered as one render, one
// selection restore and one OnDocChanged notification.
type Scheduler struct {
	loop      *Loop
	root      *Component
	renderer  Renderer
	selection *Selection
	logger    *slog.Logger

	state       SchedulerState
	pending     []ChangeItem
	flushQueued bool
	forceQueued bool
	removed     []*Component

	changeFromRemote  bool
	changeFromHistory bool
	lastLocal         bool
	lastRemote        bool

	onDocChange  event[struct{}]
	onDocChanged event[[]ChangeItem]
	subs         []func()
	running      bool
}

// NewScheduler creates a scheduler for root. It does nothing until Run.
func NewScheduler(loop *Loop, root *Component, renderer Renderer, selection *Selection, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = discardLogger()
	}
	return &Scheduler{
		loop:      loop,
		root:      root,
		renderer:  renderer,
		selection: selection,
		logger:    logger,
		lastLocal: true,
	}
}

// State returns the current cycle state.
func (s *Scheduler) State() SchedulerState {
	return s.state
}

// LastChangesHasLocalUpdate reports whether the last flushed batch contained
// local or history changes.
func (s *Scheduler) LastChangesHasLocalUpdate() bool {
	return s.lastLocal
}

// LastChangesHasRemoteUpdate reports whether the last flushed batch contained
// remote changes.
func (s *Scheduler) LastChangesHasRemoteUpdate() bool {
	return s.lastRemote
}

// OnDocChange registers fn to run on the first change after a render.
func (s *Scheduler) OnDocChange(fn func()) func() {
	return s.onDocChange.subscribe(func(struct{}) { fn() })
}

// OnDocChanged registers fn to receive each flushed batch of changes.
func (s *Scheduler) OnDocChanged(fn func([]ChangeItem)) func() {
	return s.onDocChanged.subscribe(fn)
}

// RemoteUpdateTransact runs task with every change it makes tagged Remote.
func (s *Scheduler) RemoteUpdateTransact(task func()) {
	prev := s.changeFromRemote
	s.changeFromRemote = true
	defer func() { s.changeFromRemote = prev }()
	task()
}

// HistoryApplyTransact runs task with every change it makes tagged History.
func (s *Scheduler) HistoryApplyTransact(task func()) {
	prev := s.changeFromHistory
	s.changeFromHistory = true
	defer func() { s.changeFromHistory = prev }()
	task()
}

// currentOrigin returns the origin for a change made now.
func (s *Scheduler) currentOrigin() ChangeOrigin {
	switch {
	case s.changeFromRemote:
		return Remote
	case s.changeFromHistory:
		return History
	}
	return Local
}

// Run renders the document once and starts listening for changes.
func (s *Scheduler) Run() {
	if s.running {
		return
	}
	s.running = true
	s.render()

	marker := s.root.Marker()
	s.subs = append(s.subs,
		marker.OnChange(s.handleChange),
		marker.OnForceChange(func() {
			if s.forceQueued {
				return
			}
			s.forceQueued = true
			s.loop.Defer(s.forceRender)
		}),
		marker.OnChildComponentRemoved(func(c *Component) {
			s.removed = append(s.removed, c)
		}),
	)
}

func (s *Scheduler) handleChange(op Operation) {
	if s.state == Idle {
		s.state = Changed
		s.onDocChange.emit(struct{}{})
	}
	s.pending = append(s.pending, ChangeItem{From: s.currentOrigin(), Operation: op})
	if !s.flushQueued {
		s.flushQueued = true
		s.loop.Defer(s.flush)
	}
}

func (s *Scheduler) forceRender() {
	s.forceQueued = false
	if !s.running || s.flushQueued {
		return
	}
	s.render()
}

func (s *Scheduler) flush() {
	s.flushQueued = false
	if !s.running {
		return
	}
	items := s.pending
	s.pending = nil

	s.state = Rendering
	s.render()
	s.sweep()

	s.lastLocal, s.lastRemote = false, false
	for _, item := range items {
		if item.From == Remote {
			s.lastRemote = true
		} else {
			s.lastLocal = true
		}
	}
	s.logger.Debug("flush",
		"changes", len(items),
		"local", s.lastLocal,
		"remote", s.lastRemote)

	s.state = Idle
	if s.selection != nil {
		s.selection.Restore(s.lastLocal)
	}
	s.onDocChanged.emit(items)
}

func (s *Scheduler) render() {
	if err := s.renderer.Render(s.root); err != nil {
		s.logger.Warn("render failed", "error", err)
	}
}

// sweep destroys removed components that did not come back into the tree.
func (s *Scheduler) sweep() {
	removed := s.removed
	s.removed = nil
	reported := make(map[*Component]bool, len(removed))
	for _, c := range removed {
		reported[c] = true
	}
	seen := make(map[*Component]bool)
	for _, c := range removed {
		top := c.Root()
		if top == s.root || seen[top] || !reported[top] {
			continue
		}
		seen[top] = true
		invokeDestroyHooks(top)
	}
}

// Destroy stops listening and runs the destroy hooks of the whole tree.
func (s *Scheduler) Destroy() {
	for _, unsub := range s.subs {
		unsub()
	}
	s.subs = nil
	s.running = false
	s.pending = nil
	s.removed = nil
	s.state = Idle
	invokeDestroyHooks(s.root)
	s.onDocChange.clear()
	s.onDocChanged.clear()
}

// invokeDestroyHooks calls OnDestroy depth-first, children before parents.
func invokeDestroyHooks(c *Component) {
	for _, slot := range c.slots {
		for _, item := range slot.content.Items() {
			if child, ok := item.(*Component); ok {
				invokeDestroyHooks(child)
			}
		}
	}
	if h, ok := c.behavior.(DestroyHook); ok {
		h.OnDestroy()
	}
}
