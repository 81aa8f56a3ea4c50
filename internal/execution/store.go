package execution

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrNotFound indicates that no matching execution record exists. It is a
// normal outcome for lookups, not a storage failure: the caller must refuse
// to resume rather than fabricate state.
var ErrNotFound = errors.New("no matching execution record")

// Store persists execution records under <dir>/<id>/record.json. Records are
// written once, before any pipeline phase runs, and never mutated or deleted
// by the orchestrator.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// RecordDir returns the durable state directory of one execution. Other
// per-execution artifacts (the environment checkpoint) live alongside the
// record file.
func (s *Store) RecordDir(id string) string {
	return filepath.Join(s.dir, id)
}

// Create durably persists a new execution record. The write goes through a
// temp file and rename so a crash mid-write never leaves a half-written
// record to resume from.
func (s *Store) Create(rec *Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	dir := s.RecordDir(rec.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create execution directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal execution record: %w", err)
	}

	path := filepath.Join(dir, "record.json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write execution record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to persist execution record: %w", err)
	}

	return nil
}

// Get loads the record of a specific execution.
func (s *Store) Get(id string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(s.RecordDir(id), "record.json"))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read execution record %s: %w", id, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse execution record %s: %w", id, err)
	}
	return &rec, nil
}

// LookupLast finds the execution to resume. With a resume context it loads
// that specific execution; otherwise it selects the most recent record of
// kind "upgrade". Ties on CreatedAt break by ID so the selection stays
// deterministic.
func (s *Store) LookupLast(resumeContext string) (*Record, error) {
	if resumeContext != "" {
		return s.Get(resumeContext)
	}

	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	var last *Record
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		rec, err := s.Get(entry.Name())
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if rec.Kind != KindUpgrade {
			continue
		}
		if last == nil || rec.CreatedAt.After(last.CreatedAt) ||
			(rec.CreatedAt.Equal(last.CreatedAt) && rec.ID > last.ID) {
			last = rec
		}
	}

	if last == nil {
		return nil, ErrNotFound
	}
	return last, nil
}
