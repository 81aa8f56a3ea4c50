package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sysup",
	Short: "Unattended operating system major-version upgrades",
	Long: `Sysup drives an unattended, multi-phase upgrade of the operating system
to the next available major version.

The upgrade may span one or more reboots. State is persisted before any
phase that can reboot the host, so an interrupted upgrade continues from
where it left off when invoked again with --resume.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(upgradeCmd)
	rootCmd.AddCommand(answerCmd)
	rootCmd.AddCommand(versionCmd)
}

// ExitCodeError carries an exit code decided by the outcome reporter. The
// summary has already been printed when it is returned, so main exits with
// the code without printing anything further.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}
