package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sysup-io/sysup/internal/workflow"
)

// GenerateFiles renders the machine-readable and human-readable reports for
// one execution into reportDir and returns their paths.
func GenerateFiles(reportDir, executionID string, res *workflow.Result) ([]string, error) {
	if err := os.MkdirAll(reportDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	jsonPath := filepath.Join(reportDir, "report.json")
	txtPath := filepath.Join(reportDir, "report.txt")

	doc := struct {
		ExecutionID     string                 `json:"execution_id"`
		GeneratedAt     string                 `json:"generated_at"`
		Errors          []workflow.ErrorRecord `json:"errors"`
		Inhibitors      []workflow.Inhibitor   `json:"inhibitors"`
		RebootRequested bool                   `json:"reboot_requested"`
	}{
		ExecutionID:     executionID,
		GeneratedAt:     time.Now().UTC().Format(time.RFC3339),
		Errors:          res.Errors,
		Inhibitors:      res.Inhibitors,
		RebootRequested: res.RebootRequested,
	}
	if doc.Errors == nil {
		doc.Errors = []workflow.ErrorRecord{}
	}
	if doc.Inhibitors == nil {
		doc.Inhibitors = []workflow.Inhibitor{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write report %s: %w", jsonPath, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Upgrade report for execution %s\n\n", executionID)
	if len(res.Errors) == 0 && len(res.Inhibitors) == 0 {
		fmt.Fprintf(&b, "No errors or inhibitors were reported.\n")
	}
	for _, rec := range res.Errors {
		fmt.Fprintf(&b, "Error [%s]: %s\n", rec.Phase, rec.Message)
	}
	for _, inh := range res.Inhibitors {
		fmt.Fprintf(&b, "Inhibitor: %s\n", inh.Title)
		if inh.Summary != "" {
			fmt.Fprintf(&b, "  %s\n", inh.Summary)
		}
	}
	if err := os.WriteFile(txtPath, []byte(b.String()), 0644); err != nil {
		return nil, fmt.Errorf("failed to write report %s: %w", txtPath, err)
	}

	return []string{txtPath, jsonPath}, nil
}

// LogFiles returns the log files currently present for this run.
func LogFiles(logDir string) []string {
	matches, err := filepath.Glob(filepath.Join(logDir, "*.log"))
	if err != nil {
		return nil
	}
	return matches
}
