package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sysup-io/sysup/internal/audit"
	"github.com/sysup-io/sysup/internal/config"
	"github.com/sysup-io/sysup/internal/envstate"
	"github.com/sysup-io/sysup/internal/execution"
	"github.com/sysup-io/sysup/internal/logging"
	"github.com/sysup-io/sysup/internal/orchestrator"
	"github.com/sysup-io/sysup/internal/report"
	"github.com/sysup-io/sysup/internal/workflow"
)

var channels = []string{"ga", "tuv", "e4s", "eus", "aus"}

// geteuid is overridable for tests.
var geteuid = os.Geteuid

var (
	upgradeResume       bool
	upgradeReboot       bool
	upgradeExperimental []string
	upgradeDebug        bool
	upgradeVerbose      bool
	upgradeNoRHSM       bool
	upgradeEnableRepos  []string
	upgradeChannel      string

	// Rerun parameters, never set by users directly.
	upgradeResumeContext string
	upgradeOnlyWithTags  []string
)

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade the current system to the next available major version",
	RunE:  runUpgrade,
}

func init() {
	f := upgradeCmd.Flags()
	f.BoolVar(&upgradeResume, "resume", false, "Continue the last execution after it was stopped (e.g. after reboot)")
	f.BoolVar(&upgradeReboot, "reboot", false, "Automatically perform the reboot when requested")
	f.StringArrayVar(&upgradeExperimental, "whitelist-experimental", nil, "Enable experimental phases. Can be used multiple times")
	f.BoolVar(&upgradeDebug, "debug", false, "Enable debug mode")
	f.BoolVar(&upgradeVerbose, "verbose", false, "Enable verbose logging")
	f.BoolVar(&upgradeNoRHSM, "no-rhsm", false, "Use only custom repositories and skip subscription manager actions")
	f.StringArrayVar(&upgradeEnableRepos, "enablerepo", nil, "Enable specified repository. Can be used multiple times")
	f.StringVar(&upgradeChannel, "channel", "", "Set preferred channel for the upgrade target (ga, tuv, e4s, eus, aus)")

	f.StringVar(&upgradeResumeContext, "resume-context", "", "Resume a specific execution instead of the most recent one")
	f.StringSliceVar(&upgradeOnlyWithTags, "only-with-tags", nil, "Restrict the run to phases with the given tags")
	f.MarkHidden("resume-context")
	f.MarkHidden("only-with-tags")
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	// Refuse before touching anything: no lock file, no state directory.
	if geteuid() != 0 {
		return orchestrator.ErrPermission
	}

	conf, err := flagConfiguration()
	if err != nil {
		return err
	}

	cfg, err := config.Load(config.Path())
	if err != nil {
		return err
	}

	logging.Init(logging.LevelFor(upgradeDebug, upgradeDebug || upgradeVerbose))

	store := execution.NewStore(cfg.ExecutionsDir())
	journal := audit.NewJournal(cfg.AuditLogPath())
	registry := workflow.StandardPhases()
	runner := workflow.NewRunner(registry, journal)
	if err := runner.EnableExperimental(conf.WhitelistExperimental...); err != nil {
		return err
	}

	if err := store.Lock(); err != nil {
		return err
	}
	defer store.Unlock()

	params := orchestrator.Params{
		Config:     cfg,
		Store:      store,
		Checkpoint: envstate.NewCheckpoint(cfg.ExecutionsDir()),
		Journal:    journal,
		Workflow:   runner,
		PhaseIndex: runner.PhaseIndex,
		Reporter:   report.NewReporter(cmd.OutOrStdout()),
	}
	if cfg.Archive != nil {
		uploader, err := report.NewS3Uploader(cmd.Context(), cfg.Archive)
		if err != nil {
			logging.Warn("report archive disabled", "error", err)
		} else {
			params.Uploader = uploader
		}
	}

	code, err := orchestrator.New(params).Run(cmd.Context(), orchestrator.Options{
		Resume:        upgradeResume,
		ResumeContext: upgradeResumeContext,
		OnlyWithTags:  upgradeOnlyWithTags,
		Configuration: conf,
	})
	if err != nil {
		return err
	}
	if code != 0 {
		return &ExitCodeError{Code: code}
	}
	return nil
}

// flagConfiguration builds the run configuration persisted with a fresh
// execution from the command line flags.
func flagConfiguration() (execution.Configuration, error) {
	channel := strings.ToLower(upgradeChannel)
	if channel != "" && !validChannel(channel) {
		return execution.Configuration{}, fmt.Errorf("invalid channel %q, must be one of: %s",
			upgradeChannel, strings.Join(channels, ", "))
	}

	return execution.Configuration{
		Debug:                 upgradeDebug,
		Verbose:               upgradeVerbose,
		Reboot:                upgradeReboot,
		NoRHSM:                upgradeNoRHSM,
		Channel:               channel,
		EnableRepos:           upgradeEnableRepos,
		WhitelistExperimental: upgradeExperimental,
	}, nil
}

func validChannel(channel string) bool {
	for _, c := range channels {
		if channel == c {
			return true
		}
	}
	return false
}
