// folio-bench is a benchmark and stress test for the folio engine.
// It measures content edits, editor flushes, history, remote batches and
// operation log storage.
package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/phroun/folio"
	"github.com/phroun/folio/internal/logging"
	"github.com/phroun/folio/oplog"
)

const (
	contentEdits = 20000
	typedRunes   = 2000
	undoDepth    = 200
	remoteOps    = 5000
	logRecords   = 2000
)

type BenchResult struct {
	Name     string
	Duration time.Duration
	Ops      int
	Extra    string
}

func (r BenchResult) String() string {
	if r.Ops > 0 {
		opsPerSec := float64(r.Ops) / r.Duration.Seconds()
		if r.Extra != "" {
			return fmt.Sprintf("%-40s %12v  (%d ops, %.2f ops/sec) %s", r.Name, r.Duration.Round(time.Microsecond), r.Ops, opsPerSec, r.Extra)
		}
		return fmt.Sprintf("%-40s %12v  (%d ops, %.2f ops/sec)", r.Name, r.Duration.Round(time.Microsecond), r.Ops, opsPerSec)
	}
	if r.Extra != "" {
		return fmt.Sprintf("%-40s %12v  %s", r.Name, r.Duration.Round(time.Microsecond), r.Extra)
	}
	return fmt.Sprintf("%-40s %12v", r.Name, r.Duration.Round(time.Microsecond))
}

// countingRenderer counts renders and otherwise does nothing.
type countingRenderer struct {
	renders int
}

func (r *countingRenderer) Render(*folio.Component) error {
	r.renders++
	return nil
}

type nopBridge struct{}

func (nopBridge) Restore(*folio.AbstractSelection, bool) {}

func (nopBridge) PositionByRange(folio.AbstractSelection) (*folio.NativePosition, *folio.NativePosition) {
	return nil, nil
}

func main() {
	fmt.Println("Folio Benchmark and Stress Test")
	fmt.Println("===============================")
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))
	fmt.Println()

	// Create temporary directory
	tmpDir, err := os.MkdirTemp("", "folio-bench-*")
	if err != nil {
		fmt.Printf("Failed to create temp dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(tmpDir)

	var results []BenchResult

	// Helper to run and print each benchmark
	runBench := func(name string, fn func() BenchResult) {
		fmt.Printf("  %-40s ", name+"...")
		result := fn()
		fmt.Printf("%v\n", result.Duration.Round(time.Microsecond))
		results = append(results, result)
	}

	fmt.Println("Content operations:")
	runBench("Content inserts", benchContentInserts)
	runBench("Content cut/slice", benchContentCuts)
	runBench("Grapheme correction", benchGraphemes)

	fmt.Println("\nEditor operations:")
	runBench("Typing, flush per rune", func() BenchResult { return benchTyping(true) })
	runBench("Typing, one flush", func() BenchResult { return benchTyping(false) })
	runBench("Undo/redo cycles", benchUndoRedo)
	runBench("Remote batches", benchRemote)

	fmt.Println("\nOperation log:")
	runBench("Append (memory)", func() BenchResult {
		return benchAppend("Append (memory)", oplog.NewMemoryStore())
	})
	fsStore, err := oplog.NewFSStore(filepath.Join(tmpDir, "fs"))
	if err != nil {
		fmt.Printf("Failed to open fs store: %v\n", err)
		os.Exit(1)
	}
	runBench("Append (fs)", func() BenchResult { return benchAppend("Append (fs)", fsStore) })
	sqlStore, err := oplog.OpenSQLite(filepath.Join(tmpDir, "oplog.db"))
	if err != nil {
		fmt.Printf("Failed to open sqlite store: %v\n", err)
		os.Exit(1)
	}
	runBench("Append (sqlite)", func() BenchResult { return benchAppend("Append (sqlite)", sqlStore) })
	runBench("Replay (sqlite)", func() BenchResult { return benchReplay(sqlStore) })
	fsStore.Close()
	sqlStore.Close()

	// Print summary
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	for _, r := range results {
		fmt.Println(r)
	}

	// Memory stats
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	fmt.Println()
	fmt.Printf("Peak heap allocation: %d MB\n", m.HeapSys/(1024*1024))
	fmt.Printf("Total allocations: %d MB\n", m.TotalAlloc/(1024*1024))
}

func definitions() []*folio.Definition {
	return []*folio.Definition{
		{
			Name: "doc",
			Kind: folio.Division,
			Type: folio.BlockComponentType,
			Slots: func() []*folio.Slot {
				return []*folio.Slot{folio.NewSlot(folio.BlockComponentType)}
			},
		},
		{
			Name: "paragraph",
			Kind: folio.Branch,
			Type: folio.BlockComponentType,
			Slots: func() []*folio.Slot {
				return []*folio.Slot{folio.NewSlot(folio.TextType, folio.InlineComponentType)}
			},
		},
	}
}

// newEditor mounts a document with one empty paragraph and places the caret
// in it.
func newEditor() (*folio.Editor, *countingRenderer) {
	logger, err := logging.New(&logging.Config{Output: "discard"})
	if err != nil {
		panic(err)
	}
	r := &countingRenderer{}
	e, err := folio.New(folio.Options{
		Renderer:         r,
		SelectionBridge:  nopBridge{},
		Components:       definitions(),
		HistoryStackSize: undoDepth,
		Logger:           logger.Logger,
	})
	if err != nil {
		panic(err)
	}
	root, _ := e.Create("doc", folio.InitData{})
	p, _ := e.Create("paragraph", folio.InitData{})
	root.FirstSlot().Insert(0, p)
	if err := e.Mount(root); err != nil {
		panic(err)
	}
	e.Selection().SetPosition(p.FirstSlot(), 0)
	return e, r
}

func benchContentInserts() BenchResult {
	c := folio.NewContent()
	rng := rand.New(rand.NewPCG(1, 2))
	start := time.Now()
	for i := 0; i < contentEdits; i++ {
		c.Insert(rng.IntN(c.Len()+1), folio.Text("ab"))
	}
	duration := time.Since(start)
	return BenchResult{
		Name:     "Content inserts",
		Duration: duration,
		Ops:      contentEdits,
		Extra:    fmt.Sprintf("len=%d entries=%d", c.Len(), len(c.Items())),
	}
}

func benchContentCuts() BenchResult {
	c := folio.NewContent(folio.Text(strings.Repeat("lorem ipsum ", contentEdits)))
	rng := rand.New(rand.NewPCG(3, 4))
	ops := 0
	start := time.Now()
	for i := 0; i < contentEdits/2; i++ {
		at := rng.IntN(c.Len() - 10)
		removed := c.Cut(at, at+5)
		c.Slice(at, at+20)
		for _, item := range removed {
			c.Insert(at, item)
		}
		ops += 3
	}
	return BenchResult{Name: "Content cut/slice", Duration: time.Since(start), Ops: ops}
}

func benchGraphemes() BenchResult {
	c := folio.NewContent(folio.Text(strings.Repeat("a👨‍👩‍👧é", 200)))
	ops := 0
	start := time.Now()
	for round := 0; round < 20; round++ {
		for i := 0; i <= c.Len(); i++ {
			c.CorrectIndex(i, round%2 == 0)
			ops++
		}
	}
	return BenchResult{Name: "Grapheme correction", Duration: time.Since(start), Ops: ops}
}

func benchTyping(flushEach bool) BenchResult {
	e, r := newEditor()
	defer e.Destroy()
	cmd := e.Commander()
	start := time.Now()
	for i := 0; i < typedRunes; i++ {
		cmd.Insert(folio.Text("x"))
		if flushEach {
			e.Flush()
		}
	}
	e.Flush()
	name := "Typing, one flush"
	if flushEach {
		name = "Typing, flush per rune"
	}
	return BenchResult{
		Name:     name,
		Duration: time.Since(start),
		Ops:      typedRunes,
		Extra:    fmt.Sprintf("renders=%d revisions=%d", r.renders, len(e.History().Revisions())),
	}
}

func benchUndoRedo() BenchResult {
	e, _ := newEditor()
	defer e.Destroy()
	for i := 0; i < undoDepth; i++ {
		e.Commander().Insert(folio.Text("undo test "))
		e.Flush()
	}
	h := e.History()
	ops := 0
	start := time.Now()
	for i := 0; i < 10; i++ {
		for h.Back() {
			e.Flush()
			ops++
		}
		for h.Forward() {
			e.Flush()
			ops++
		}
	}
	return BenchResult{Name: "Undo/redo cycles", Duration: time.Since(start), Ops: ops}
}

func benchRemote() BenchResult {
	local, _ := newEditor()
	defer local.Destroy()
	remote, renders := newEditor()
	defer remote.Destroy()

	peer, err := folio.NewCollaborator(remote, nil, nil)
	if err != nil {
		panic(err)
	}
	var batches [][]folio.OperationLiteral
	if _, err := folio.NewCollaborator(local, folio.SinkFunc(func(_ folio.ChangeOrigin, ops []folio.OperationLiteral) error {
		batches = append(batches, ops)
		return nil
	}), nil); err != nil {
		panic(err)
	}
	for i := 0; i < remoteOps; i++ {
		local.Commander().Insert(folio.Text("r"))
		if i%50 == 49 {
			local.Flush()
		}
	}
	local.Flush()

	applied := 0
	start := time.Now()
	for _, ops := range batches {
		n, err := peer.ApplyRemote(ops)
		if err != nil {
			panic(err)
		}
		applied += n
		remote.Flush()
	}
	return BenchResult{
		Name:     "Remote batches",
		Duration: time.Since(start),
		Ops:      applied,
		Extra:    fmt.Sprintf("batches=%d renders=%d", len(batches), renders.renders),
	}
}

func benchAppend(name string, store oplog.Store) BenchResult {
	e, _ := newEditor()
	defer e.Destroy()
	rec, err := oplog.NewRecorder(e, store, "bench")
	if err != nil {
		panic(err)
	}
	defer rec.Close()

	start := time.Now()
	for i := 0; i < logRecords; i++ {
		e.Commander().Insert(folio.Text("log "))
		e.Flush()
	}
	return BenchResult{
		Name:     name,
		Duration: time.Since(start),
		Ops:      logRecords,
		Extra:    fmt.Sprintf("failed=%d", rec.Failed()),
	}
}

func benchReplay(store oplog.Store) BenchResult {
	e, _ := newEditor()
	defer e.Destroy()
	start := time.Now()
	last, err := oplog.Restore(e, store, "bench", 0)
	if err != nil {
		panic(err)
	}
	e.Flush()
	return BenchResult{
		Name:     "Replay (sqlite)",
		Duration: time.Since(start),
		Ops:      int(last),
		Extra:    fmt.Sprintf("runes=%d", len([]rune(e.Root().String()))),
	}
}
