package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Entry kinds recorded by the orchestrator and the workflow runner.
const (
	KindExecutionStarted  = "execution-started"
	KindPhaseCompleted    = "phase-completed"
	KindExecutionFinished = "execution-finished"
)

// maxEntryBytes bounds a single journal line when reading.
const maxEntryBytes = 1 << 20

// ErrCorrupt indicates the journal contains an entry that cannot be parsed.
// Resume decisions based on a corrupt journal risk skipping required side
// effects, so readers must surface this rather than guess.
var ErrCorrupt = errors.New("audit journal entry is malformed")

// Entry is one audit record. Entries are append-only; the journal is the
// durable history consulted to decide where a resumed run continues.
type Entry struct {
	Timestamp   string `json:"timestamp"`
	ExecutionID string `json:"execution_id"`
	Kind        string `json:"kind"`
	Phase       string `json:"phase,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// Journal appends and reads audit entries stored as one JSON object per line.
type Journal struct {
	path string
}

func NewJournal(path string) *Journal {
	return &Journal{path: path}
}

// Append writes an entry to the journal. The write is flushed before Append
// returns so the entry survives an immediately following reboot.
func (j *Journal) Append(entry Entry) error {
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(j.path), 0755); err != nil {
		return fmt.Errorf("failed to create audit log directory: %w", err)
	}

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync audit log: %w", err)
	}

	return nil
}

// ForExecution returns every journal entry recorded for the given execution,
// in append order. A line that does not parse makes the whole journal
// untrustworthy and is reported as ErrCorrupt.
func (j *Journal) ForExecution(id string) ([]Entry, error) {
	f, err := os.Open(j.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	// Entries are tiny; a line that outgrows this cap cannot be one.
	scanner.Buffer(make([]byte, 0, 64*1024), maxEntryBytes)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("audit log line %d: %w", line, ErrCorrupt)
		}
		if entry.ExecutionID == id {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("audit log line %d: %w", line+1, ErrCorrupt)
		}
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	return entries, nil
}
