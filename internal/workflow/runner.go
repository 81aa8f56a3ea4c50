package workflow

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sysup-io/sysup/internal/audit"
	"github.com/sysup-io/sysup/internal/logging"
)

// DefaultPhaseTimeout bounds a single phase. Individual phases may override
// it; the orchestrator itself never times out.
const DefaultPhaseTimeout = 30 * time.Minute

// PhaseFunc is the body of a phase. Payload code reports problems by
// returning an error or raising inhibitors on the run context.
type PhaseFunc func(ctx context.Context, rc *RunContext) error

// Phase is one named, ordered stage of the pipeline.
type Phase struct {
	Name         string
	Tags         []string
	Experimental bool
	Timeout      time.Duration
	Run          PhaseFunc
}

// RunContext is handed to every phase of one invocation. It collects
// inhibitors and user choices and carries the reboot request.
type RunContext struct {
	ExecutionID string
	Answers     *Answers
	SkipDialogs bool

	inhibitors      []Inhibitor
	choices         *Answers
	rebootRequested bool
}

// Inhibit raises a condition that blocks the upgrade from proceeding safely.
func (rc *RunContext) Inhibit(title, summary string) {
	rc.inhibitors = append(rc.inhibitors, Inhibitor{Title: title, Summary: summary})
}

// RecordChoice stores an answer collected during this run so a resumed run
// can reuse it instead of re-prompting.
func (rc *RunContext) RecordChoice(section, key, value string) {
	rc.choices.Set(section, key, value)
	rc.Answers.Set(section, key, value)
}

// RequestReboot asks the orchestrator to stop after the current phase and
// reboot the host. The current phase still counts as completed.
func (rc *RunContext) RequestReboot() {
	rc.rebootRequested = true
}

// Runner executes registered phases in order, honoring the resume marker and
// recording every completed phase in the audit journal before the next phase
// starts.
type Runner struct {
	registry     *Registry
	journal      *audit.Journal
	experimental map[string]bool

	answers *Answers
	choices *Answers
}

func NewRunner(registry *Registry, journal *audit.Journal) *Runner {
	return &Runner{
		registry:     registry,
		journal:      journal,
		experimental: make(map[string]bool),
		answers:      &Answers{Sections: make(map[string]map[string]string)},
		choices:      &Answers{Sections: make(map[string]map[string]string)},
	}
}

// EnableExperimental whitelists experimental phases by name. Unknown names
// are rejected so a typo does not silently run a reduced pipeline.
func (r *Runner) EnableExperimental(names ...string) error {
	for _, name := range names {
		if r.registry.Index(name) < 0 {
			return fmt.Errorf("no experimental phase named %s", name)
		}
		r.experimental[name] = true
	}
	return nil
}

// PhaseIndex reports the pipeline position of a phase, or -1 if unknown.
// The resume resolver uses it to validate recorded history.
func (r *Runner) PhaseIndex(name string) int {
	return r.registry.Index(name)
}

// LoadAnswers reads the answerfile and overlays the choices recorded by
// previous invocations of this execution.
func (r *Runner) LoadAnswers(answerFile, userChoices string) error {
	answers, err := LoadAnswersFile(answerFile)
	if err != nil {
		return err
	}
	choices, err := LoadAnswersFile(userChoices)
	if err != nil {
		return err
	}
	for section, opts := range choices.Sections {
		for key, value := range opts {
			answers.Set(section, key, value)
		}
	}
	r.answers = answers
	return nil
}

// SaveAnswers persists the full answer set and, separately, only the choices
// collected during this run.
func (r *Runner) SaveAnswers(answerFile, userChoices string) error {
	if err := r.answers.Save(answerFile); err != nil {
		return err
	}
	return r.choices.Save(userChoices)
}

// Run executes the pipeline. Phase errors become part of the Result; a panic
// in payload code is caught and returned as a single FailureError. The
// returned Result is always usable for reporting.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	res := &Result{}
	phases := r.registry.Phases()

	if err := r.EnableExperimental(opts.WhitelistExperimental...); err != nil {
		return res, err
	}

	start := 0
	if opts.SkipPhasesUntil != "" {
		idx := r.registry.Index(opts.SkipPhasesUntil)
		if idx < 0 {
			return res, fmt.Errorf("resume marker names unknown phase %q", opts.SkipPhasesUntil)
		}
		start = idx + 1
		logging.Info("resuming execution after phase", "phase", opts.SkipPhasesUntil)
	}

	rc := &RunContext{
		ExecutionID: opts.ExecutionID,
		Answers:     r.answers,
		SkipDialogs: opts.SkipDialogs,
		choices:     r.choices,
	}

	for i := start; i < len(phases); i++ {
		phase := phases[i]

		if phase.Experimental && !r.experimental[phase.Name] {
			logging.Debug("skipping experimental phase", "phase", phase.Name)
			continue
		}
		if len(opts.OnlyWithTags) > 0 && !hasAnyTag(phase, opts.OnlyWithTags) {
			logging.Debug("skipping phase outside tag filter", "phase", phase.Name)
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("pipeline cancelled before phase %s: %w", phase.Name, err)
		}

		logging.Info("running phase", "phase", phase.Name)
		startTime := time.Now()
		err := r.runPhase(ctx, phase, rc)
		if panicked, ok := err.(*phasePanicError); ok {
			res.Inhibitors = rc.inhibitors
			return res, &FailureError{Errors: []ErrorRecord{{
				Phase:   phase.Name,
				Message: panicked.Error(),
			}}}
		}
		if err != nil {
			logging.Error("phase failed", "phase", phase.Name, "error", err)
			res.Errors = append(res.Errors, ErrorRecord{Phase: phase.Name, Message: err.Error()})
			break
		}

		// The marker must be durable before anything riskier runs.
		if err := r.journal.Append(audit.Entry{
			ExecutionID: opts.ExecutionID,
			Kind:        audit.KindPhaseCompleted,
			Phase:       phase.Name,
		}); err != nil {
			return res, fmt.Errorf("failed to record completion of phase %s: %w", phase.Name, err)
		}
		logging.Info("phase completed", "phase", phase.Name, "duration", time.Since(startTime))

		if rc.rebootRequested {
			res.RebootRequested = true
			logging.Info("phase requested a reboot, stopping pipeline", "phase", phase.Name)
			break
		}
	}

	res.Inhibitors = rc.inhibitors
	return res, nil
}

type phasePanicError struct {
	phase string
	value any
	stack []byte
}

func (e *phasePanicError) Error() string {
	return fmt.Sprintf("phase %s panicked: %v\n%s", e.phase, e.value, e.stack)
}

// runPhase executes one phase under its timeout and converts panics in
// payload code into an error. The orchestrator must never crash uncaught on
// actor misbehavior.
func (r *Runner) runPhase(ctx context.Context, phase Phase, rc *RunContext) (err error) {
	timeout := phase.Timeout
	if timeout <= 0 {
		timeout = DefaultPhaseTimeout
	}
	phaseCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if v := recover(); v != nil {
			err = &phasePanicError{phase: phase.Name, value: v, stack: debug.Stack()}
		}
	}()

	return phase.Run(phaseCtx, rc)
}

func hasAnyTag(phase Phase, tags []string) bool {
	for _, want := range tags {
		for _, have := range phase.Tags {
			if want == have {
				return true
			}
		}
	}
	return false
}
