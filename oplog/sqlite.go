package oplog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
    doc_id      TEXT NOT NULL,
    seq         INTEGER NOT NULL,
    origin      TEXT NOT NULL,
    operations  TEXT NOT NULL,
    time_ns     INTEGER NOT NULL,
    PRIMARY KEY (doc_id, seq)
);
`

// SQLiteStore keeps records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(rec *Record) error {
	if s.db == nil {
		return ErrClosed
	}
	if !validDocID(rec.DocID) {
		return ErrInvalidDocID
	}
	ops, err := json.Marshal(rec.Operations)
	if err != nil {
		return fmt.Errorf("encode operations: %w", err)
	}
	origin, err := rec.Origin.MarshalText()
	if err != nil {
		return fmt.Errorf("encode origin: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var last int64
	if err := tx.QueryRow(`SELECT COALESCE(MAX(seq), 0) FROM records WHERE doc_id = ?`, rec.DocID).Scan(&last); err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO records (doc_id, seq, origin, operations, time_ns)
		VALUES (?, ?, ?, ?, ?)`,
		rec.DocID, last+1, string(origin), string(ops), rec.Time.UnixNano(),
	); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	rec.Seq = last + 1
	return nil
}

func (s *SQLiteStore) Since(docID string, after int64) ([]Record, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.Query(`
		SELECT seq, origin, operations, time_ns
		FROM records WHERE doc_id = ? AND seq > ?
		ORDER BY seq`, docID, after)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r      = Record{DocID: docID}
			origin string
			ops    string
			ns     int64
		)
		if err := rows.Scan(&r.Seq, &origin, &ops, &ns); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if err := r.Origin.UnmarshalText([]byte(origin)); err != nil {
			return nil, fmt.Errorf("record %d: %w", r.Seq, err)
		}
		if err := json.Unmarshal([]byte(ops), &r.Operations); err != nil {
			return nil, fmt.Errorf("record %d: decode operations: %w", r.Seq, err)
		}
		r.Time = time.Unix(0, ns)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
