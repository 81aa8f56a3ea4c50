// Package envstate snapshots the orchestration-relevant environment
// variables before a reboot and restores them verbatim on resume.
package envstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Environment variables owned by the orchestrator.
const (
	VarDebug       = "SYSUP_DEBUG"
	VarVerbose     = "SYSUP_VERBOSE"
	VarExecutionID = "SYSUP_EXECUTION_ID"
	VarUnsupported = "SYSUP_UNSUPPORTED"
	VarChannel     = "SYSUP_CHANNEL"
	VarNoRHSM      = "SYSUP_NO_RHSM"
	VarEnableRepos = "SYSUP_ENABLE_REPOS"
)

// allowlist is the fixed set of variables covered by a checkpoint. The
// snapshot must be able to fully reconstruct this subset of the process
// environment; nothing outside it is ever touched by a restore.
var allowlist = []string{
	VarDebug,
	VarVerbose,
	VarExecutionID,
	VarChannel,
	VarNoRHSM,
	VarEnableRepos,
	"LC_ALL",
	"LANG",
}

// Checkpoint archives and restores the allowlisted environment variables,
// keyed by execution id, under the same per-execution directory as the
// execution record.
type Checkpoint struct {
	dir string
}

func NewCheckpoint(dir string) *Checkpoint {
	return &Checkpoint{dir: dir}
}

func (c *Checkpoint) path(id string) string {
	return filepath.Join(c.dir, id, "environment.json")
}

// Archive snapshots the current values of all allowlisted variables. The
// snapshot is a full overwrite, never a merge with a prior one: defaults may
// have changed since the last archive and a stale value must not survive.
func (c *Checkpoint) Archive(id string) error {
	snapshot := make(map[string]string)
	for _, name := range allowlist {
		if value, ok := os.LookupEnv(name); ok {
			snapshot[name] = value
		}
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal environment snapshot: %w", err)
	}

	path := c.path(id)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write environment snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to persist environment snapshot: %w", err)
	}

	return nil
}

// Restore overwrites the process environment with every archived variable.
// A missing archive is not an error: the resumed run degrades to defaults
// (debug and verbose disabled) instead of hard-failing over flags that only
// affect verbosity.
func (c *Checkpoint) Restore(id string) error {
	data, err := os.ReadFile(c.path(id))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read environment snapshot: %w", err)
	}

	var snapshot map[string]string
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("failed to parse environment snapshot: %w", err)
	}

	for _, name := range allowlist {
		if value, ok := snapshot[name]; ok {
			if err := os.Setenv(name, value); err != nil {
				return fmt.Errorf("failed to restore %s: %w", name, err)
			}
		}
	}

	return nil
}
