package oplog

import "sync"

// MemoryStore keeps records in memory.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string][]Record
	closed  bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]Record)}
}

func (s *MemoryStore) Append(rec *Record) error {
	if !validDocID(rec.DocID) {
		return ErrInvalidDocID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	list := s.records[rec.DocID]
	rec.Seq = int64(len(list)) + 1
	s.records[rec.DocID] = append(list, *rec)
	return nil
}

func (s *MemoryStore) Since(docID string, after int64) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	var out []Record
	for _, r := range s.records[docID] {
		if r.Seq > after {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
