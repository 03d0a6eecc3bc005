package folio

import (
	"fmt"
	"log/slog"
)

// Options configures an Editor.
type Options struct {
	// Renderer draws the document. Required.
	Renderer Renderer

	// SelectionBridge maps selections onto the view. Required.
	SelectionBridge SelectionBridge

	// Components are the definitions this editor can create and decode.
	Components []*Definition

	// ZenCoding enables shorthand substitution.
	ZenCoding bool

	// HistoryStackSize caps the undo stack (default 500).
	HistoryStackSize int

	// ReadOnly refuses every editing command.
	ReadOnly bool

	// Platform selects key normalization.
	Platform Platform

	// Logger receives diagnostics. Nil discards them.
	Logger *slog.Logger

	// Loop runs deferred work. Nil creates a private loop.
	Loop *Loop
}

// Editor ties a document to its scheduler, selection, history and input
// handling. An editor and everything it owns must be used from the single
// goroutine that drains its Loop.
type Editor struct {
	opts      Options
	loop      *Loop
	logger    *slog.Logger
	registry  *Registry
	selection *Selection
	commander *Commander
	keyboard  *Keyboard

	root      *Component
	scheduler *Scheduler
	history   *UndoHistory

	mounted   bool
	destroyed bool
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// New creates an editor. It fails when a required collaborator is missing.
func New(opts Options) (*Editor, error) {
	if opts.Renderer == nil {
		return nil, fmt.Errorf("new editor: a Renderer must be supplied: %w", ErrNoRenderer)
	}
	if opts.SelectionBridge == nil {
		return nil, fmt.Errorf("new editor: a SelectionBridge must be supplied: %w", ErrNoSelectionBridge)
	}
	registry, err := NewRegistry(opts.Components...)
	if err != nil {
		return nil, fmt.Errorf("new editor: %w", err)
	}

	e := &Editor{
		opts:     opts,
		loop:     opts.Loop,
		logger:   opts.Logger,
		registry: registry,
	}
	if e.loop == nil {
		e.loop = NewLoop()
	}
	if e.logger == nil {
		e.logger = discardLogger()
	}
	e.selection = NewSelection(opts.SelectionBridge)
	e.commander = newCommander(e.selection, opts.ReadOnly, e.logger)
	e.keyboard = newKeyboard(e.selection, e.commander, opts.Components, opts.ZenCoding)
	return e, nil
}

// Mount attaches root, renders it and starts tracking changes.
func (e *Editor) Mount(root *Component) error {
	switch {
	case e.destroyed:
		return ErrEditorDestroyed
	case e.mounted:
		return ErrAlreadyMounted
	case root == nil:
		return fmt.Errorf("mount: nil root: %w", ErrInvalidDocument)
	case root.Parent() != nil:
		return fmt.Errorf("mount %s: %w", root.Name(), ErrAttached)
	}

	e.root = root
	e.selection.attach(root)
	e.scheduler = NewScheduler(e.loop, root, e.opts.Renderer, e.selection, e.logger)
	e.history = newHistory(root, e.scheduler, e.selection, e.opts.HistoryStackSize, e.logger)
	e.scheduler.Run()
	e.history.Listen()
	e.mounted = true
	e.logger.Debug("editor mounted", "root", root.Name(), "components", len(e.registry.defs))
	return nil
}

// Flush runs all pending work, including the render of any changes made so
// far. It returns the number of tasks run.
func (e *Editor) Flush() int {
	return e.loop.Drain()
}

// Post schedules fn on the editor's loop. It is safe to call from any
// goroutine.
func (e *Editor) Post(fn func()) {
	e.loop.Post(fn)
}

// Exec normalizes a raw key event and dispatches it.
func (e *Editor) Exec(k RawKey) bool {
	if !e.mounted {
		return false
	}
	return e.keyboard.Exec(NormalizeKey(e.opts.Platform, k))
}

// ComposeStart notifies the component holding the caret that IME
// composition began. A selected range is deleted first.
func (e *Editor) ComposeStart() bool {
	if !e.selection.IsCollapsed() {
		e.commander.Delete(false)
	}
	return e.compose(func(h CompositionHook, ev *Event) { h.OnCompositionStart(ev) })
}

// ComposeEnd notifies the component holding the caret that IME composition
// ended.
func (e *Editor) ComposeEnd() bool {
	return e.compose(func(h CompositionHook, ev *Event) { h.OnCompositionEnd(ev) })
}

func (e *Editor) compose(call func(CompositionHook, *Event)) bool {
	slot := e.selection.StartSlot()
	if slot == nil {
		return false
	}
	comp := slot.Parent()
	h, ok := comp.Behavior().(CompositionHook)
	if !ok {
		return false
	}
	ev := &Event{Target: comp, Slot: slot, Offset: e.selection.StartOffset()}
	call(h, ev)
	return ev.IsPrevented()
}

// Create instantiates a registered component.
func (e *Editor) Create(name string, init InitData) (*Component, error) {
	return e.registry.Create(name, init)
}

// Destroy tears the editor down and runs every component's destroy hook.
func (e *Editor) Destroy() {
	if e.destroyed {
		return
	}
	e.destroyed = true
	if !e.mounted {
		return
	}
	e.history.Destroy()
	e.selection.detach()
	e.scheduler.Destroy()
	e.logger.Debug("editor destroyed")
}

// Root returns the mounted root component.
func (e *Editor) Root() *Component { return e.root }

// Registry returns the editor's component registry.
func (e *Editor) Registry() *Registry { return e.registry }

// Selection returns the editor's selection.
func (e *Editor) Selection() *Selection { return e.selection }

// Commander returns the editor's command set.
func (e *Editor) Commander() *Commander { return e.commander }

// Keyboard returns the editor's key dispatcher.
func (e *Editor) Keyboard() *Keyboard { return e.keyboard }

// Scheduler returns the scheduler, or nil before Mount.
func (e *Editor) Scheduler() *Scheduler { return e.scheduler }

// History returns the undo history, or nil before Mount.
func (e *Editor) History() *UndoHistory { return e.history }

// Loop returns the editor's task loop.
func (e *Editor) Loop() *Loop { return e.loop }

// Logger returns the editor's logger.
func (e *Editor) Logger() *slog.Logger { return e.logger }

// ReadOnly reports whether editing commands are refused.
func (e *Editor) ReadOnly() bool { return e.opts.ReadOnly }

// Platform returns the configured platform.
func (e *Editor) Platform() Platform { return e.opts.Platform }

// Destroyed reports whether Destroy has been called.
func (e *Editor) Destroyed() bool { return e.destroyed }
