// Package history provides a Badger-backed journal of cleaning runs.
// Each executed run is recorded with its totals so users can audit
// what rclean deleted and when.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// ErrNotFound is returned when no run matches the requested ID.
var ErrNotFound = errors.New("history: run not found")

// runPrefix keys run records; the RFC3339Nano timestamp in the key
// keeps Badger's lexicographic order chronological.
const runPrefix = "run:"

// Record is one completed cleaning run.
type Record struct {
	// ID is a random UUID assigned when the record is written.
	ID string `json:"id"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Root is the directory that was cleaned.
	Root string `json:"root"`

	// DryRun is true when nothing was executed.
	DryRun bool `json:"dry_run"`

	// Planned is the number of planned actions.
	Planned int `json:"planned"`

	// Execution totals.
	Deleted    int   `json:"deleted"`
	Skipped    int   `json:"skipped"`
	Failed     int   `json:"failed"`
	BytesFreed int64 `json:"bytes_freed"`

	// Cancelled is true when the run stopped early.
	Cancelled bool `json:"cancelled"`

	// FailedPaths lists entries that could not be deleted.
	FailedPaths []string `json:"failed_paths,omitempty"`
}

// Store is the run journal backed by Badger.
type Store struct {
	db *badger.DB
}

// Open opens or creates a journal at the given path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the journal.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append writes a run record, assigning an ID and start time when
// missing. The record's assigned fields are filled in place.
func (s *Store) Append(rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding run record: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(rec), data)
	})
}

// List returns up to limit records, newest first. A non-positive limit
// returns all records.
func (s *Store) List(limit int) ([]*Record, error) {
	var out []*Record

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(runPrefix)
		// In reverse mode, seek past the last possible run key.
		seek := append([]byte(runPrefix), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var rec Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			out = append(out, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the run with the given ID. A unique ID prefix is
// accepted, so short IDs from `rclean history` output work.
func (s *Store) Get(id string) (*Record, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	var found *Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(runPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			if !strings.HasPrefix(rec.ID, id) {
				continue
			}
			if found != nil {
				return fmt.Errorf("%w: ambiguous id %q", ErrNotFound, id)
			}
			r := rec
			found = &r
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return found, nil
}

// Prune removes records older than retentionDays, returning how many
// were dropped. Zero or negative retention removes nothing.
func (s *Store) Prune(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	var stale [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(runPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			if rec.StartedAt.Before(cutoff) {
				stale = append(stale, it.Item().KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if len(stale) == 0 {
		return 0, nil
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(stale), nil
}

func recordKey(rec *Record) []byte {
	return []byte(runPrefix + rec.StartedAt.UTC().Format(time.RFC3339Nano) + ":" + rec.ID)
}
