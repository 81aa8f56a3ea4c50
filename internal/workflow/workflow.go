// Package workflow pins the boundary between the upgrade orchestrator and
// the phase pipeline. The orchestrator only depends on the narrow Workflow
// interface; the Runner in this package is a minimal sequential pipeline
// behind that interface.
package workflow

import (
	"context"
	"fmt"
	"strings"
)

// RunOptions carries everything the pipeline needs from the orchestrator for
// one invocation.
type RunOptions struct {
	// ExecutionID is the stable identity of the upgrade attempt.
	ExecutionID string

	// SkipPhasesUntil names the last phase that already completed in a
	// previous invocation. The pipeline skips every phase up to and
	// including it. Empty means a fresh run.
	SkipPhasesUntil string

	// SkipDialogs suppresses interactive prompts; unanswered dialogs become
	// inhibitors instead.
	SkipDialogs bool

	// OnlyWithTags restricts the run to phases carrying at least one of the
	// given tags. Only ever set when propagated from a resume context.
	OnlyWithTags []string

	// WhitelistExperimental names the experimental phases enabled for this
	// execution. It comes from the effective run configuration, so a resumed
	// run carries the whitelist persisted with the original invocation.
	WhitelistExperimental []string
}

// ErrorRecord is one error reported by pipeline payload code.
type ErrorRecord struct {
	Phase   string `json:"phase"`
	Actor   string `json:"actor,omitempty"`
	Message string `json:"message"`
}

// Inhibitor is a condition that blocks the upgrade from proceeding safely.
type Inhibitor struct {
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
}

// Result is the aggregated outcome of one pipeline invocation.
type Result struct {
	Errors     []ErrorRecord
	Inhibitors []Inhibitor

	// RebootRequested means a phase asked for a host reboot. This is a
	// deliberate stop, not a failure; the run continues after the reboot
	// from a fresh process.
	RebootRequested bool
}

// Failure reports whether the pipeline produced any errors.
func (r *Result) Failure() bool {
	return len(r.Errors) > 0
}

// Workflow is the pipeline as seen by the orchestrator.
type Workflow interface {
	LoadAnswers(answerFile, userChoices string) error
	Run(ctx context.Context, opts RunOptions) (*Result, error)
	SaveAnswers(answerFile, userChoices string) error
}

// FailureError aggregates misbehavior of pipeline payload code into a single
// error. The orchestrator never crashes on it: the run is reported as failed
// and the final summary is still produced.
type FailureError struct {
	Errors []ErrorRecord
}

func (e *FailureError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("pipeline failed in phase %s: %s", e.Errors[0].Phase, e.Errors[0].Message)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "pipeline failed with %d errors:", len(e.Errors))
	for _, rec := range e.Errors {
		fmt.Fprintf(&b, "\n  [%s] %s", rec.Phase, rec.Message)
	}
	return b.String()
}
