package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveLogFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sysup.log"), []byte("old"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("x"), 0644))

	require.NoError(t, ArchiveLogFiles(dir))

	_, err := os.Stat(filepath.Join(dir, "sysup.log"))
	assert.True(t, os.IsNotExist(err), "log file must be moved away")
	_, err = os.Stat(filepath.Join(dir, "keep.txt"))
	assert.NoError(t, err, "non-log files stay in place")

	archived, err := filepath.Glob(filepath.Join(dir, "archive", "*", "sysup.log"))
	require.NoError(t, err)
	assert.Len(t, archived, 1)
}

func TestArchiveLogFiles_NothingToArchive(t *testing.T) {
	assert.NoError(t, ArchiveLogFiles(t.TempDir()))
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, "debug", LevelFor(true, false))
	assert.Equal(t, "debug", LevelFor(true, true))
	assert.Equal(t, "info", LevelFor(false, true))
	assert.Equal(t, "warn", LevelFor(false, false))
}
