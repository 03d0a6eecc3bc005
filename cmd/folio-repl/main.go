package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/phroun/folio"
	"github.com/phroun/folio/caret"
	"github.com/phroun/folio/internal/config"
	"github.com/phroun/folio/internal/logging"
	"github.com/phroun/folio/oplog"
)

// REPL holds the state of the interactive session
type REPL struct {
	cfg      *config.Config
	loader   *config.Loader
	logger   *logging.Logger
	editor   *folio.Editor
	view     *textView
	store    oplog.Store
	recorder *oplog.Recorder
	bindings map[config.Chord]string
	reader   *bufio.Reader
}

func main() {
	fmt.Println("Folio REPL - Interactive Document Editor Demo")
	fmt.Println("Type 'help' for available commands, 'quit' to exit")
	fmt.Println()

	path := config.ConfigPath()
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	repl := &REPL{
		reader: bufio.NewReader(os.Stdin),
	}
	if err := repl.init(path); err != nil {
		fmt.Printf("Error starting editor: %v\n", err)
		os.Exit(1)
	}
	defer repl.close()

	// Main loop
	for {
		fmt.Print("folio> ")
		input, err := repl.reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nGoodbye!")
			break
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if !repl.handleCommand(input) {
			break
		}
		repl.editor.Flush()
	}
}

func (r *REPL) init(path string) error {
	r.loader = config.NewLoader(path)
	cfg, err := r.loader.Load()
	if err != nil {
		return err
	}
	r.cfg = cfg
	r.bindings = cfg.Bindings()

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	r.logger = logger

	r.view = &textView{}
	e, err := folio.New(folio.Options{
		Renderer:         r.view,
		SelectionBridge:  r.view,
		Components:       definitions(),
		ZenCoding:        cfg.Editor.ZenCoding,
		HistoryStackSize: cfg.Editor.HistoryStackSize,
		ReadOnly:         cfg.Editor.ReadOnly,
		Platform:         folio.Platform(cfg.Editor.Platform),
		Logger:           logger.Logger,
	})
	if err != nil {
		return err
	}
	r.editor = e
	r.view.editor = e

	root, err := newDocument(e)
	if err != nil {
		return err
	}
	if err := e.Mount(root); err != nil {
		return err
	}
	folio.RegisterDefaultShortcuts(e)
	caret.Install(e, r.view)

	if err := r.openLog(cfg.Storage); err != nil {
		return err
	}
	r.caretToEnd()

	r.loader.OnChange(func(c *config.Config) {
		e.Post(func() {
			r.cfg = c
			r.bindings = c.Bindings()
			r.logger.Info("keymap reloaded", "bindings", len(r.bindings))
		})
	})
	if err := r.loader.Watch(); err != nil {
		r.logger.Warn("config watch disabled", "path", path, "error", err)
	}
	go func() {
		for err := range r.loader.Errors() {
			r.logger.Warn("config reload", "error", err)
		}
	}()
	return nil
}

func newLogger(c config.LoggingConfig) (*logging.Logger, error) {
	level, err := logging.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(c.Format)
	if err != nil {
		return nil, err
	}
	return logging.New(&logging.Config{
		Level:     level,
		Format:    format,
		Output:    c.Output,
		FilePath:  c.FilePath,
		Component: "folio-repl",
	})
}

// newDocument builds the starting document every log replays onto.
func newDocument(e *folio.Editor) (*folio.Component, error) {
	root, err := e.Create("doc", folio.InitData{})
	if err != nil {
		return nil, err
	}
	p, err := e.Create("paragraph", folio.InitData{})
	if err != nil {
		return nil, err
	}
	root.FirstSlot().Insert(0, p)
	return root, nil
}

func openStore(c config.StorageConfig) (oplog.Store, error) {
	switch c.Type {
	case "fs":
		return oplog.NewFSStore(c.Path)
	case "sqlite":
		return oplog.OpenSQLite(c.Path)
	}
	return oplog.NewMemoryStore(), nil
}

// openLog replays the stored history of the document and starts recording.
func (r *REPL) openLog(c config.StorageConfig) error {
	store, err := openStore(c)
	if err != nil {
		return err
	}
	r.store = store
	last, err := oplog.Restore(r.editor, store, c.DocID, 0)
	if err != nil {
		r.logger.Warn("replay incomplete", "doc", c.DocID, "error", err)
	}
	r.editor.Flush()

	rec, err := oplog.NewRecorder(r.editor, store, c.DocID)
	if err != nil {
		return err
	}
	rec.SkipRemote = true
	r.recorder = rec
	if last > 0 {
		fmt.Printf("Restored %q from %s storage up to record %d\n", c.DocID, c.Type, last)
	}
	return nil
}

func (r *REPL) close() {
	if r.recorder != nil {
		r.recorder.Close()
	}
	if r.editor != nil {
		r.editor.Destroy()
	}
	if r.store != nil {
		r.store.Close()
	}
	if r.loader != nil {
		r.loader.Close()
	}
	if r.logger != nil {
		r.logger.Close()
	}
}

func (r *REPL) handleCommand(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help":
		r.printHelp()

	case "quit", "exit":
		fmt.Println("Goodbye!")
		return false

	case "status":
		r.cmdStatus()

	case "show":
		r.cmdShow()

	case "json":
		r.cmdJSON()

	case "export":
		r.cmdExport(args)

	case "select":
		r.cmdSelect(args)

	case "all":
		r.editor.Selection().SelectAll()
		r.printSelection()

	case "insert":
		r.cmdInsert(args)

	case "block":
		r.cmdBlock(args)

	case "image":
		r.cmdImage(args)

	case "enter":
		r.report("enter", r.editor.Commander().Enter())

	case "delete":
		r.cmdDelete(args)

	case "format":
		r.cmdFormat(args)

	case "unformat":
		r.cmdUnformat(args)

	case "toggle":
		r.cmdToggle()

	case "key":
		r.cmdKey(args)

	case "undo":
		r.report("undo", r.editor.History().Back())

	case "redo":
		r.report("redo", r.editor.History().Forward())

	case "log":
		r.cmdLog(args)

	case "keymap":
		r.cmdKeymap()

	default:
		fmt.Printf("Unknown command: %s. Type 'help' for available commands.\n", cmd)
	}

	return true
}

func (r *REPL) printHelp() {
	help := `
Available Commands:
-------------------

INSPECTION:
  status                  Show editor, history and storage status
  show                    Show the rendered document
  json                    Print the document as JSON
  export <file>           Write the document JSON to a file

SELECTION:
  select <b> <o> [<b> <o>] Place the caret (or a range) at block:offset
  all                     Select the whole document
  key <chord>             Dispatch a key chord, e.g. key ctrl+z, key Home

EDIT OPERATIONS:
  insert <text>           Insert text at the caret (\n and \t are expanded)
  block <text>            Append a new paragraph
  image <src>             Insert an inline image
  enter                   Insert a line break
  delete [back]           Delete forward, or backward with 'back'
  format <name> [value]   Apply a format to the selection
  unformat <name>         Remove a format from the selection
  toggle                  Toggle the todo item under the caret

HISTORY:
  undo                    Undo the last change
  redo                    Redo the last undone change
  log [after]             List operation log records

Typing "# ", "[] " or "---" followed by enter into an empty paragraph
turns it into a heading, todo item or rule when zen coding is enabled.

OTHER:
  keymap                  Show the configured key bindings
  help                    Show this help message
  quit, exit              Exit the REPL
`
	fmt.Println(help)
}

func (r *REPL) cmdStatus() {
	e := r.editor
	h := e.History()
	fmt.Println("Editor Status:")
	fmt.Printf("  Blocks: %d\n", e.Root().FirstSlot().Len())
	fmt.Printf("  Renders: %d, Scheduler: %s\n", r.view.renders, e.Scheduler().State())
	fmt.Printf("  Undo: %d revisions (can undo: %v, can redo: %v)\n",
		len(h.Revisions()), h.CanBack(), h.CanForward())
	fmt.Printf("  Read only: %v, Zen coding: %v, Platform: %s\n",
		e.ReadOnly(), r.cfg.Editor.ZenCoding, e.Platform())
	fmt.Printf("  Storage: %s %q (failed appends: %d)\n",
		r.cfg.Storage.Type, r.cfg.Storage.DocID, r.recorder.Failed())
	r.printSelection()
}

func (r *REPL) printSelection() {
	sel := r.editor.Selection()
	if !sel.IsSelected() {
		fmt.Println("  Selection: none")
		return
	}
	p := sel.Paths()
	fmt.Printf("  Selection: anchor=%v focus=%v collapsed=%v\n", p.Anchor, p.Focus, sel.IsCollapsed())
}

func (r *REPL) cmdShow() {
	fmt.Println("--------")
	for _, line := range r.view.lines {
		fmt.Println(line)
	}
	fmt.Println("--------")
}

func (r *REPL) cmdJSON() {
	data, err := folio.MarshalDocument(r.editor.Root())
	if err != nil {
		fmt.Printf("Encode error: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func (r *REPL) cmdExport(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: export <file>")
		return
	}
	data, err := folio.MarshalDocument(r.editor.Root())
	if err != nil {
		fmt.Printf("Encode error: %v\n", err)
		return
	}
	if err := os.WriteFile(args[0], data, 0644); err != nil {
		fmt.Printf("Write error: %v\n", err)
		return
	}
	fmt.Printf("Wrote %d bytes to %s\n", len(data), args[0])
}

func (r *REPL) blockSlot(arg string) (*folio.Slot, bool) {
	i, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Printf("Invalid block: %v\n", err)
		return nil, false
	}
	slot := folio.FindSlotByPath(r.editor.Root(), folio.Path{0, i, 0})
	if slot == nil {
		fmt.Printf("Block %d has no text\n", i)
		return nil, false
	}
	return slot, true
}

func (r *REPL) cmdSelect(args []string) {
	if len(args) != 2 && len(args) != 4 {
		fmt.Println("Usage: select <block> <offset> [<block> <offset>]")
		return
	}
	anchor, ok := r.blockSlot(args[0])
	if !ok {
		return
	}
	ao, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Printf("Invalid offset: %v\n", err)
		return
	}
	focus, fo := anchor, ao
	if len(args) == 4 {
		if focus, ok = r.blockSlot(args[2]); !ok {
			return
		}
		if fo, err = strconv.Atoi(args[3]); err != nil {
			fmt.Printf("Invalid offset: %v\n", err)
			return
		}
	}
	r.editor.Selection().SetBaseAndExtent(anchor, ao, focus, fo)
	r.printSelection()
}

func (r *REPL) cmdInsert(args []string) {
	text := strings.Join(args, " ")
	if text == "" {
		fmt.Println("Usage: insert <text>")
		return
	}

	// Handle escape sequences
	text = strings.ReplaceAll(text, "\\n", "\n")
	text = strings.ReplaceAll(text, "\\t", "\t")

	r.report("insert", r.editor.Commander().Insert(folio.Text(text)))
}

func (r *REPL) cmdBlock(args []string) {
	p, err := r.editor.Create("paragraph", folio.InitData{})
	if err != nil {
		fmt.Printf("Create error: %v\n", err)
		return
	}
	if text := strings.Join(args, " "); text != "" {
		p.FirstSlot().Insert(0, folio.Text(text))
	}
	body := r.editor.Root().FirstSlot()
	if r.editor.ReadOnly() || !body.Insert(body.Len(), p) {
		fmt.Println("Block refused")
		return
	}
	r.editor.Selection().SetPosition(p.FirstSlot(), p.FirstSlot().Len())
	fmt.Printf("Added block %d\n", p.Index())
}

func (r *REPL) cmdImage(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: image <src>")
		return
	}
	img, err := r.editor.Create("image", folio.InitData{State: folio.State{"src": args[0]}})
	if err != nil {
		fmt.Printf("Create error: %v\n", err)
		return
	}
	r.report("image", r.editor.Commander().Insert(img))
}

func (r *REPL) cmdDelete(args []string) {
	backward := len(args) > 0 && strings.HasPrefix(strings.ToLower(args[0]), "back")
	r.report("delete", r.editor.Commander().Delete(backward))
}

func (r *REPL) cmdFormat(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: format <name> [value]")
		return
	}
	var value any = true
	if len(args) > 1 {
		value = strings.Join(args[1:], " ")
	}
	r.report("format", r.editor.Commander().ApplyFormat(folio.Format{Name: args[0], Value: value}))
}

func (r *REPL) cmdUnformat(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: unformat <name>")
		return
	}
	r.report("unformat", r.editor.Commander().RemoveFormat(args[0]))
}

func (r *REPL) cmdToggle() {
	if r.editor.ReadOnly() {
		r.report("toggle", false)
		return
	}
	c := r.editor.Selection().CommonAncestorComponent()
	if c == nil || c.Name() != "todo" {
		fmt.Println("The caret is not in a todo item")
		return
	}
	c.UpdateState(func(s folio.State) {
		done, _ := s["done"].(bool)
		s["done"] = !done
	})
	r.report("toggle", true)
}

func (r *REPL) cmdKey(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: key <chord>")
		return
	}
	chord, err := config.ParseChord(args[0])
	if err != nil {
		fmt.Printf("Invalid chord: %v\n", err)
		return
	}
	if command, ok := r.bindings[chord]; ok {
		fmt.Printf("%s -> %s\n", chord, command)
		r.handleCommand(command)
		return
	}
	handled := r.editor.Keyboard().Exec(folio.KeymapState{
		Key:   chord.Key,
		Ctrl:  chord.Ctrl,
		Alt:   chord.Alt,
		Shift: chord.Shift,
	})
	r.report(chord.String(), handled)
}

func (r *REPL) cmdLog(args []string) {
	var after int64
	if len(args) > 0 {
		n, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fmt.Printf("Invalid sequence: %v\n", err)
			return
		}
		after = n
	}
	records, err := r.store.Since(r.cfg.Storage.DocID, after)
	if err != nil {
		fmt.Printf("Log error: %v\n", err)
		return
	}
	if len(records) == 0 {
		fmt.Println("  (no records)")
		return
	}
	for _, rec := range records {
		fmt.Printf("  %d: %-7s %d operations at %s\n",
			rec.Seq, rec.Origin, len(rec.Operations), rec.Time.Format("15:04:05.000"))
	}
}

func (r *REPL) cmdKeymap() {
	if len(r.bindings) == 0 {
		fmt.Println("  (no bindings)")
		return
	}
	for chord, command := range r.bindings {
		fmt.Printf("  %-16s %s\n", chord, command)
	}
}

func (r *REPL) report(what string, ok bool) {
	if !ok {
		fmt.Printf("%s: nothing changed\n", what)
		return
	}
	r.printSelection()
}

func (r *REPL) caretToEnd() {
	body := r.editor.Root().FirstSlot()
	if body.Len() == 0 {
		return
	}
	last := folio.FindSlotByPath(r.editor.Root(), folio.Path{0, body.Len() - 1, 0})
	if last != nil {
		r.editor.Selection().SetPosition(last, last.Len())
	}
}
