// Package oplog persists the operation batches an editor produces so a
// document can be rebuilt or shipped to peers later.
package oplog

import (
	"errors"
	"time"

	"github.com/phroun/folio"
)

// Errors returned by stores.
var (
	// ErrClosed indicates use of a store after Close.
	ErrClosed = errors.New("oplog: store closed")

	// ErrInvalidDocID indicates an empty or unsafe document ID.
	ErrInvalidDocID = errors.New("oplog: invalid document id")
)

// Record is one flushed batch of same-origin operations.
type Record struct {
	Seq        int64                    `json:"seq"`
	DocID      string                   `json:"doc_id"`
	Origin     folio.ChangeOrigin       `json:"origin"`
	Operations []folio.OperationLiteral `json:"operations"`
	Time       time.Time                `json:"time"`
}

// Store is an append-only log of records per document.
type Store interface {
	// Append stores rec and sets its Seq. Sequence numbers increase per
	// document.
	Append(rec *Record) error

	// Since returns the records of docID with Seq greater than after, in
	// order.
	Since(docID string, after int64) ([]Record, error)

	// Close releases the store.
	Close() error
}

func validDocID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	for _, r := range id {
		if r == '/' || r == '\\' || r == 0 {
			return false
		}
	}
	return true
}
