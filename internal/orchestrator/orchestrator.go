// Package orchestrator drives one invocation of the multi-phase,
// reboot-spanning upgrade: it establishes the execution identity, persists
// everything needed to survive a reboot before anything risky runs, and
// aggregates the pipeline outcome into a single verdict.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/sysup-io/sysup/internal/audit"
	"github.com/sysup-io/sysup/internal/config"
	"github.com/sysup-io/sysup/internal/envstate"
	"github.com/sysup-io/sysup/internal/execution"
	"github.com/sysup-io/sysup/internal/logging"
	"github.com/sysup-io/sysup/internal/report"
	"github.com/sysup-io/sysup/internal/resume"
	"github.com/sysup-io/sysup/internal/workflow"
)

// State names the position of the orchestrator in its run lifecycle.
type State int

const (
	StateFreshStart State = iota
	StateResumeRequested
	StateConfigured
	StateRunning
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateFreshStart:
		return "fresh-start"
	case StateResumeRequested:
		return "resume-requested"
	case StateConfigured:
		return "configured"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

var (
	// ErrPermission means the caller lacks the privilege to upgrade the
	// host. Nothing has been touched when it is returned.
	ErrPermission = errors.New("this command has to be run as the root user")

	// ErrNoResumableExecution means --resume was requested but no persisted
	// execution exists. The user must drop the resume flag.
	ErrNoResumableExecution = errors.New("no previous upgrade run to continue; remove --resume to start a new upgrade")
)

// Options is the per-invocation run configuration. ResumeContext and
// OnlyWithTags bypass persistence: they are only ever threaded through from
// a rerun and are never part of the stored record.
type Options struct {
	Resume        bool
	ResumeContext string
	OnlyWithTags  []string

	// Configuration comes from the CLI flags and is only consulted on a
	// fresh start; a resumed run uses the persisted configuration instead.
	Configuration execution.Configuration
}

// Params wires the orchestrator's collaborators.
type Params struct {
	Config     *config.Config
	Store      *execution.Store
	Checkpoint *envstate.Checkpoint
	Journal    *audit.Journal
	Workflow   workflow.Workflow

	// PhaseIndex reports pipeline ordering for resume validation.
	PhaseIndex func(name string) int

	Reporter *report.Reporter

	// Uploader is optional; a nil uploader disables report archiving.
	Uploader report.Uploader

	// Euid and RebootCmd are overridable for tests. They default to the
	// real effective uid and "systemctl reboot".
	Euid      func() int
	RebootCmd func(ctx context.Context) error
}

// Orchestrator is the top-level driver of one upgrade invocation.
type Orchestrator struct {
	cfg        *config.Config
	store      *execution.Store
	checkpoint *envstate.Checkpoint
	journal    *audit.Journal
	workflow   workflow.Workflow
	phaseIndex func(name string) int
	reporter   *report.Reporter
	uploader   report.Uploader
	euid       func() int
	rebootCmd  func(ctx context.Context) error

	state State
}

func New(p Params) *Orchestrator {
	o := &Orchestrator{
		cfg:        p.Config,
		store:      p.Store,
		checkpoint: p.Checkpoint,
		journal:    p.Journal,
		workflow:   p.Workflow,
		phaseIndex: p.PhaseIndex,
		reporter:   p.Reporter,
		uploader:   p.Uploader,
		euid:       p.Euid,
		rebootCmd:  p.RebootCmd,
	}
	if o.euid == nil {
		o.euid = os.Geteuid
	}
	if o.rebootCmd == nil {
		o.rebootCmd = func(ctx context.Context) error {
			return exec.CommandContext(ctx, "systemctl", "reboot").Run()
		}
	}
	return o
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	return o.state
}

// Run executes one upgrade invocation end to end and returns the process
// exit code. Orchestration-level problems (permission, resume resolution,
// record persistence) come back as errors before the pipeline ever runs;
// pipeline failures are downgraded to a failure outcome with exit code 1.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (int, error) {
	if o.euid() != 0 {
		return 0, ErrPermission
	}

	id, cfg, skipUntil, err := o.establish(opts)
	if err != nil {
		return 0, err
	}

	debug, verbose, err := envstate.ResolveFlags(cfg)
	if err != nil {
		return 0, err
	}
	if err := envstate.ExportConfiguration(cfg); err != nil {
		return 0, err
	}
	logging.InitWithFile(logging.LevelFor(debug, verbose), filepath.Join(o.cfg.LogDir, "sysup.log"))

	// The execution identity and locale are global, process-wide state for
	// every downstream phase and subprocess. They must be fully established
	// before the pipeline runs and never change within this process. The
	// canonical locale is a correctness requirement: phases parse command
	// output.
	if err := os.Setenv(envstate.VarExecutionID, id); err != nil {
		return 0, fmt.Errorf("failed to set execution identity: %w", err)
	}
	os.Setenv("LC_ALL", "en_US.UTF-8")
	os.Setenv("LANG", "en_US.UTF-8")

	// Snapshot the fully resolved environment now, before any phase that
	// could reboot the host. Write-before-risk: nothing after this point is
	// guaranteed to run.
	if err := o.checkpoint.Archive(id); err != nil {
		return 0, err
	}

	o.state = StateConfigured
	if opts.Resume {
		logging.Info("resuming execution", "execution", id, "after_phase", skipUntil)
	} else {
		logging.Info("starting upgrade", "execution", id)
	}
	warnIfUnsupported(cfg)

	logging.Info("using answerfile", "path", o.cfg.AnswerFile)
	if err := o.workflow.LoadAnswers(o.cfg.AnswerFile, o.cfg.UserChoices); err != nil {
		return 0, fmt.Errorf("failed to load answerfile: %w", err)
	}

	o.state = StateRunning
	res, runErr := o.workflow.Run(ctx, workflow.RunOptions{
		ExecutionID:           id,
		SkipPhasesUntil:       skipUntil,
		SkipDialogs:           true,
		OnlyWithTags:          opts.OnlyWithTags,
		WhitelistExperimental: cfg.WhitelistExperimental,
	})
	if res == nil {
		res = &workflow.Result{}
	}

	// Answers are persisted regardless of outcome so a future resume can
	// reuse the choices already made.
	if err := o.workflow.SaveAnswers(o.cfg.AnswerFile, o.cfg.UserChoices); err != nil {
		logging.Warn("failed to save answerfile", "error", err)
	}

	failed := res.Failure()
	if runErr != nil {
		var failure *workflow.FailureError
		if !errors.As(runErr, &failure) {
			return 0, runErr
		}
		res.Errors = append(res.Errors, failure.Errors...)
		failed = true
	}

	o.state = StateCompleted
	return o.finish(ctx, id, cfg, res, failed), nil
}

// establish works out the execution identity and resume marker for this
// invocation. A fresh start durably creates the record before returning; a
// resume restores prior state and computes where to continue.
func (o *Orchestrator) establish(opts Options) (id string, cfg execution.Configuration, skipUntil string, err error) {
	if opts.Resume {
		o.state = StateResumeRequested

		rec, err := o.store.LookupLast(opts.ResumeContext)
		if errors.Is(err, execution.ErrNotFound) {
			return "", execution.Configuration{}, "", ErrNoResumableExecution
		}
		if err != nil {
			return "", execution.Configuration{}, "", err
		}

		// A failed restore only costs verbosity flags; a failed resume
		// lookup above risks redoing destructive work. The asymmetry is
		// deliberate.
		if err := o.checkpoint.Restore(rec.ID); err != nil {
			logging.Warn("could not restore environment checkpoint, using defaults", "error", err)
		}

		resolver := resume.NewResolver(o.journal, o.phaseIndex)
		skipUntil, err = resolver.LastCompletedPhase(rec.ID)
		if err != nil {
			return "", execution.Configuration{}, "", err
		}

		return rec.ID, rec.Configuration, skipUntil, nil
	}

	o.state = StateFreshStart

	id = execution.NewID()
	rec := &execution.Record{ID: id, Kind: execution.KindUpgrade, Configuration: opts.Configuration}
	if err := o.store.Create(rec); err != nil {
		return "", execution.Configuration{}, "", err
	}
	if err := o.journal.Append(audit.Entry{ExecutionID: id, Kind: audit.KindExecutionStarted}); err != nil {
		return "", execution.Configuration{}, "", err
	}
	if err := logging.ArchiveLogFiles(o.cfg.LogDir); err != nil {
		logging.Warn("failed to archive previous log files", "error", err)
	}

	return id, opts.Configuration, "", nil
}

// finish records the outcome, renders the reports and summary, optionally
// uploads the bundle, and performs the requested reboot.
func (o *Orchestrator) finish(ctx context.Context, id string, cfg execution.Configuration, res *workflow.Result, failed bool) int {
	outcome := "success"
	switch {
	case failed:
		outcome = "failure"
	case res.RebootRequested:
		outcome = "reboot-requested"
	}
	if err := o.journal.Append(audit.Entry{
		ExecutionID: id,
		Kind:        audit.KindExecutionFinished,
		Detail:      outcome,
	}); err != nil {
		logging.Warn("failed to record execution outcome", "error", err)
	}

	reportFiles, err := report.GenerateFiles(o.cfg.ReportDir, id, res)
	if err != nil {
		logging.Warn("failed to generate report files", "error", err)
	}

	code := o.reporter.Summarize(res, report.Artifacts{
		ReportFiles: reportFiles,
		LogFiles:    report.LogFiles(o.cfg.LogDir),
		AnswerFile:  o.cfg.AnswerFile,
	}, failed)

	if o.uploader != nil {
		if err := o.uploader.Upload(ctx, id, reportFiles); err != nil {
			logging.Warn("failed to upload report bundle", "error", err)
		}
	}

	if res.RebootRequested && cfg.Reboot {
		logging.Info("rebooting host to continue the upgrade")
		if err := o.rebootCmd(ctx); err != nil {
			logging.Error("failed to reboot the host", "error", err)
		}
	}

	return code
}

func warnIfUnsupported(cfg execution.Configuration) {
	if os.Getenv(envstate.VarUnsupported) == "1" {
		logging.Warn("SYSUP_UNSUPPORTED is set: you are running the upgrade in unsupported mode")
	}
	if len(cfg.WhitelistExperimental) > 0 {
		logging.Warn("experimental phases are enabled", "phases", cfg.WhitelistExperimental)
	}
}
