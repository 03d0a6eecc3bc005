package oplog

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phroun/folio"
)

// Recorder appends every flushed batch of an editor to a store.
type Recorder struct {
	store  Store
	docID  string
	logger *slog.Logger
	now    func() time.Time

	// SkipRemote leaves remote batches out of the log.
	SkipRemote bool

	unsub  func()
	failed int
}

// NewRecorder starts recording the batches flushed by a mounted editor.
func NewRecorder(e *folio.Editor, store Store, docID string) (*Recorder, error) {
	if !validDocID(docID) {
		return nil, ErrInvalidDocID
	}
	if e.Scheduler() == nil {
		return nil, fmt.Errorf("recorder: %w", folio.ErrNotMounted)
	}
	r := &Recorder{
		store:  store,
		docID:  docID,
		logger: e.Logger().With("component", "oplog", "doc", docID),
		now:    time.Now,
	}
	r.unsub = e.Scheduler().OnDocChanged(r.record)
	return r, nil
}

func (r *Recorder) record(items []folio.ChangeItem) {
	for _, batch := range folio.GroupByOrigin(items) {
		if r.SkipRemote && batch.From == folio.Remote {
			continue
		}
		rec := &Record{
			DocID:      r.docID,
			Origin:     batch.From,
			Operations: make([]folio.OperationLiteral, 0, len(batch.Items)),
			Time:       r.now(),
		}
		for _, item := range batch.Items {
			lit, err := folio.EncodeOperation(item.Operation)
			if err != nil {
				r.logger.Warn("encode operation", "path", item.Operation.Path, "error", err)
				continue
			}
			rec.Operations = append(rec.Operations, lit)
		}
		if err := r.store.Append(rec); err != nil {
			r.failed++
			r.logger.Error("append record", "origin", batch.From, "error", err)
			continue
		}
		r.logger.Debug("record appended", "seq", rec.Seq, "origin", batch.From, "operations", len(rec.Operations))
	}
}

// Failed returns the number of batches the store refused.
func (r *Recorder) Failed() int { return r.failed }

// Close stops recording. The store is left open.
func (r *Recorder) Close() {
	if r.unsub != nil {
		r.unsub()
		r.unsub = nil
	}
}

// Replay applies records to a mounted editor as remote changes, so they
// neither enter the undo history nor get forwarded to peers. It returns the
// sequence number of the last record applied.
func Replay(e *folio.Editor, records []Record) (int64, error) {
	if e.Scheduler() == nil {
		return 0, fmt.Errorf("replay: %w", folio.ErrNotMounted)
	}
	reg, root := e.Registry(), e.Root()
	var (
		last int64
		errs []error
	)
	e.Scheduler().RemoteUpdateTransact(func() {
		for _, rec := range records {
			for i, lit := range rec.Operations {
				op, err := folio.DecodeOperation(reg, lit)
				if err == nil {
					err = folio.ApplyActions(root, op.Path, op.Apply)
				}
				if err != nil {
					errs = append(errs, fmt.Errorf("record %d operation %d: %w", rec.Seq, i, err))
				}
			}
			last = rec.Seq
		}
	})
	return last, errors.Join(errs...)
}

// Restore loads every record of docID after the given sequence number and
// replays it.
func Restore(e *folio.Editor, store Store, docID string, after int64) (int64, error) {
	records, err := store.Since(docID, after)
	if err != nil {
		return after, err
	}
	if len(records) == 0 {
		return after, nil
	}
	return Replay(e, records)
}
