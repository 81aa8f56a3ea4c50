// Package report turns the pipeline outcome into the final user-facing
// verdict: a printed summary, a set of report files, and the process exit
// code.
package report

import (
	"fmt"
	"io"

	"github.com/sysup-io/sysup/internal/workflow"
)

// Artifacts lists the files produced by one upgrade invocation, surfaced to
// the user in the final summary.
type Artifacts struct {
	ReportFiles []string
	LogFiles    []string
	AnswerFile  string
}

// Reporter renders the end-of-run summary.
type Reporter struct {
	out io.Writer
}

func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// Summarize prints every pipeline error and inhibitor exactly once, lists
// the produced artifacts, and returns the exit code: 1 when the upgrade
// failed, 0 otherwise. On failure it also tells the user how to continue.
func (r *Reporter) Summarize(res *workflow.Result, art Artifacts, failed bool) int {
	if len(res.Errors) > 0 {
		fmt.Fprintf(r.out, "\n============= ERRORS =============\n")
		for i, rec := range res.Errors {
			fmt.Fprintf(r.out, "%4d. [%s] %s\n", i+1, rec.Phase, rec.Message)
		}
	}

	if len(res.Inhibitors) > 0 {
		fmt.Fprintf(r.out, "\n=========== INHIBITORS ===========\n")
		fmt.Fprintf(r.out, "Upgrade has been inhibited due to the following problems:\n")
		for i, inh := range res.Inhibitors {
			fmt.Fprintf(r.out, "%4d. %s\n", i+1, inh.Title)
			if inh.Summary != "" {
				fmt.Fprintf(r.out, "      %s\n", inh.Summary)
			}
		}
	}

	fmt.Fprintf(r.out, "\n")
	if len(art.ReportFiles) > 0 {
		fmt.Fprintf(r.out, "Reports have been generated at:\n")
		for _, path := range art.ReportFiles {
			fmt.Fprintf(r.out, "  %s\n", path)
		}
	}
	if len(art.LogFiles) > 0 {
		fmt.Fprintf(r.out, "Log files:\n")
		for _, path := range art.LogFiles {
			fmt.Fprintf(r.out, "  %s\n", path)
		}
	}
	if art.AnswerFile != "" {
		fmt.Fprintf(r.out, "Answerfile has been saved to %s\n", art.AnswerFile)
	}

	if failed {
		fmt.Fprintf(r.out, "\nUpgrade has failed. To continue after resolving the reported problems, run the upgrade with --resume.\n")
		return 1
	}

	if res.RebootRequested {
		fmt.Fprintf(r.out, "\nA reboot is required to continue. After the reboot, run the upgrade with --resume.\n")
		return 0
	}

	fmt.Fprintf(r.out, "\nUpgrade has completed successfully.\n")
	return 0
}
