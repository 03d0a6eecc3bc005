package oplog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// FSStore keeps each document in its own folder under a base path, one
// block file per record named by its sequence number.
type FSStore struct {
	basePath string

	mu     sync.Mutex
	next   map[string]int64
	closed bool
}

// NewFSStore creates a store rooted at basePath.
func NewFSStore(basePath string) (*FSStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &FSStore{basePath: basePath, next: make(map[string]int64)}, nil
}

func blockName(seq int64) string {
	return fmt.Sprintf("%020d.json", seq)
}

// blocks returns the sequence numbers stored for docID in order.
func (s *FSStore) blocks(docID string) ([]int64, error) {
	entries, err := os.ReadDir(filepath.Join(s.basePath, docID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var seqs []int64
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		seq, err := strconv.ParseInt(strings.TrimSuffix(name, ".json"), 10, 64)
		if err != nil {
			continue
		}
		seqs = append(seqs, seq)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })
	return seqs, nil
}

func (s *FSStore) Append(rec *Record) error {
	if !validDocID(rec.DocID) {
		return ErrInvalidDocID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	seq, ok := s.next[rec.DocID]
	if !ok {
		seqs, err := s.blocks(rec.DocID)
		if err != nil {
			return fmt.Errorf("scan %s: %w", rec.DocID, err)
		}
		seq = 1
		if n := len(seqs); n > 0 {
			seq = seqs[n-1] + 1
		}
	}

	dir := filepath.Join(s.basePath, rec.DocID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	rec.Seq = seq
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, blockName(seq)), data, 0644); err != nil {
		return err
	}
	s.next[rec.DocID] = seq + 1
	return nil
}

func (s *FSStore) Since(docID string, after int64) ([]Record, error) {
	if !validDocID(docID) {
		return nil, ErrInvalidDocID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	seqs, err := s.blocks(docID)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", docID, err)
	}
	var out []Record
	for _, seq := range seqs {
		if seq <= after {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.basePath, docID, blockName(seq)))
		if err != nil {
			return nil, err
		}
		var r Record
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("block %d: %w", seq, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Delete removes every record of docID.
func (s *FSStore) Delete(docID string) error {
	if !validDocID(docID) {
		return ErrInvalidDocID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.next, docID)
	return os.RemoveAll(filepath.Join(s.basePath, docID))
}

func (s *FSStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
