// Package resume decides where a resumed upgrade continues. It consults the
// audit journal for the last phase known to have fully completed; that phase
// becomes the pipeline's skip-until marker.
package resume

import (
	"errors"
	"fmt"

	"github.com/sysup-io/sysup/internal/audit"
)

// ErrIntegrity indicates the recorded history of an execution is corrupt or
// ambiguous. Resuming past an uncompleted phase risks skipping required side
// effects, so an untrustworthy history is fatal rather than best-effort.
var ErrIntegrity = errors.New("resume history is corrupt or ambiguous")

// Resolver computes the resume marker for an execution. phaseIndex reports
// the position of a phase in the pipeline's ordering, or -1 for a phase the
// pipeline does not know.
type Resolver struct {
	journal    *audit.Journal
	phaseIndex func(name string) int
}

func NewResolver(journal *audit.Journal, phaseIndex func(name string) int) *Resolver {
	return &Resolver{journal: journal, phaseIndex: phaseIndex}
}

// LastCompletedPhase returns the name of the last phase that fully completed
// for the given execution, or "" if the execution never progressed past the
// start. Completed phases must appear in pipeline order and be known to the
// pipeline; anything else means the history cannot be trusted.
func (r *Resolver) LastCompletedPhase(id string) (string, error) {
	entries, err := r.journal.ForExecution(id)
	if err != nil {
		if errors.Is(err, audit.ErrCorrupt) {
			return "", fmt.Errorf("%w: %v", ErrIntegrity, err)
		}
		return "", err
	}

	last := ""
	lastIndex := -1
	for _, entry := range entries {
		if entry.Kind != audit.KindPhaseCompleted {
			continue
		}
		if entry.Phase == "" {
			return "", fmt.Errorf("%w: phase-completed entry without a phase name", ErrIntegrity)
		}
		index := r.phaseIndex(entry.Phase)
		if index < 0 {
			return "", fmt.Errorf("%w: unknown phase %q in history", ErrIntegrity, entry.Phase)
		}
		if index <= lastIndex {
			return "", fmt.Errorf("%w: phase %q completed out of order", ErrIntegrity, entry.Phase)
		}
		last = entry.Phase
		lastIndex = index
	}

	return last, nil
}
