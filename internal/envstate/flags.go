package envstate

import (
	"fmt"
	"os"
	"strings"

	"github.com/sysup-io/sysup/internal/execution"
)

// ResolveFlags computes the effective debug and verbose flags for the current
// invocation: explicit environment value OR persisted configuration value OR
// disabled. Verbose is forced on whenever debug is on. Both flags are written
// back to the environment in canonical "1"/"0" form so every downstream
// subprocess sees the same decision.
func ResolveFlags(cfg execution.Configuration) (debug, verbose bool, err error) {
	debug = envEnabled(VarDebug) || cfg.Debug
	verbose = debug || envEnabled(VarVerbose) || cfg.Verbose

	if err := os.Setenv(VarDebug, canonical(debug)); err != nil {
		return false, false, fmt.Errorf("failed to set %s: %w", VarDebug, err)
	}
	if err := os.Setenv(VarVerbose, canonical(verbose)); err != nil {
		return false, false, fmt.Errorf("failed to set %s: %w", VarVerbose, err)
	}

	return debug, verbose, nil
}

// ExportConfiguration publishes the remaining run options to the environment
// so every downstream phase and subprocess sees the same decisions, on a
// resumed run included. The channel defaults to "ga" when none was chosen.
func ExportConfiguration(cfg execution.Configuration) error {
	channel := cfg.Channel
	if channel == "" {
		channel = "ga"
	}
	if err := os.Setenv(VarChannel, channel); err != nil {
		return fmt.Errorf("failed to set %s: %w", VarChannel, err)
	}
	if err := os.Setenv(VarNoRHSM, canonical(cfg.NoRHSM)); err != nil {
		return fmt.Errorf("failed to set %s: %w", VarNoRHSM, err)
	}
	if err := os.Setenv(VarEnableRepos, strings.Join(cfg.EnableRepos, ",")); err != nil {
		return fmt.Errorf("failed to set %s: %w", VarEnableRepos, err)
	}
	return nil
}

func envEnabled(name string) bool {
	return os.Getenv(name) == "1"
}

func canonical(on bool) string {
	if on {
		return "1"
	}
	return "0"
}
