package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ArchiveLogFiles moves the log files of a previous run into a timestamped
// subdirectory of <logDir>/archive. It is a housekeeping step performed at
// the start of every fresh upgrade so each execution starts with clean logs.
// Missing logs are fine; only real I/O failures are reported.
func ArchiveLogFiles(logDir string) error {
	matches, err := filepath.Glob(filepath.Join(logDir, "*.log"))
	if err != nil {
		return fmt.Errorf("failed to list log files in %s: %w", logDir, err)
	}
	if len(matches) == 0 {
		return nil
	}

	archiveDir := filepath.Join(logDir, "archive", time.Now().UTC().Format("20060102-150405"))
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return fmt.Errorf("failed to create log archive directory: %w", err)
	}

	for _, path := range matches {
		dest := filepath.Join(archiveDir, filepath.Base(path))
		if err := os.Rename(path, dest); err != nil {
			return fmt.Errorf("failed to archive log file %s: %w", path, err)
		}
	}

	return nil
}
