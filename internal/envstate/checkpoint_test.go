package envstate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysup-io/sysup/internal/execution"
)

func TestCheckpoint_ArchiveRestore(t *testing.T) {
	t.Setenv(VarDebug, "1")
	t.Setenv(VarVerbose, "1")
	t.Setenv("LC_ALL", "en_US.UTF-8")

	cp := NewCheckpoint(t.TempDir())
	require.NoError(t, cp.Archive("exec-1"))

	// Drift the environment, then restore.
	t.Setenv(VarDebug, "0")
	t.Setenv("LC_ALL", "C")

	require.NoError(t, cp.Restore("exec-1"))
	assert.Equal(t, "1", os.Getenv(VarDebug))
	assert.Equal(t, "1", os.Getenv(VarVerbose))
	assert.Equal(t, "en_US.UTF-8", os.Getenv("LC_ALL"))
}

func TestCheckpoint_ArchiveIsIdempotent(t *testing.T) {
	t.Setenv(VarDebug, "1")
	t.Setenv(VarVerbose, "0")

	dir := t.TempDir()
	cp := NewCheckpoint(dir)
	require.NoError(t, cp.Archive("exec-1"))

	once, err := os.ReadFile(filepath.Join(dir, "exec-1", "environment.json"))
	require.NoError(t, err)

	require.NoError(t, cp.Archive("exec-1"))
	twice, err := os.ReadFile(filepath.Join(dir, "exec-1", "environment.json"))
	require.NoError(t, err)

	assert.Equal(t, string(once), string(twice))
}

// A second archive must fully replace the first, not merge with it: a
// variable that disappeared from the environment must not survive.
func TestCheckpoint_ArchiveNeverMerges(t *testing.T) {
	t.Setenv(VarDebug, "1")

	cp := NewCheckpoint(t.TempDir())
	require.NoError(t, cp.Archive("exec-1"))

	os.Unsetenv(VarDebug)
	require.NoError(t, cp.Archive("exec-1"))

	t.Setenv(VarDebug, "0")
	require.NoError(t, cp.Restore("exec-1"))
	assert.Equal(t, "0", os.Getenv(VarDebug), "dropped variable must stay untouched on restore")
}

func TestCheckpoint_RestoreMissingArchiveDegrades(t *testing.T) {
	t.Setenv(VarDebug, "0")

	cp := NewCheckpoint(t.TempDir())
	assert.NoError(t, cp.Restore("never-archived"))
	assert.Equal(t, "0", os.Getenv(VarDebug))
}

func TestResolveFlags_ConfigDebugForcesVerbose(t *testing.T) {
	t.Setenv(VarDebug, "")
	t.Setenv(VarVerbose, "")
	os.Unsetenv(VarDebug)
	os.Unsetenv(VarVerbose)

	debug, verbose, err := ResolveFlags(execution.Configuration{Debug: true})
	require.NoError(t, err)
	assert.True(t, debug)
	assert.True(t, verbose, "debug implies verbose")
	assert.Equal(t, "1", os.Getenv(VarDebug))
	assert.Equal(t, "1", os.Getenv(VarVerbose))
}

func TestResolveFlags_ConfigVerboseOnly(t *testing.T) {
	t.Setenv(VarDebug, "")
	t.Setenv(VarVerbose, "")
	os.Unsetenv(VarDebug)
	os.Unsetenv(VarVerbose)

	debug, verbose, err := ResolveFlags(execution.Configuration{Debug: false, Verbose: true})
	require.NoError(t, err)
	assert.False(t, debug)
	assert.True(t, verbose)
	assert.Equal(t, "0", os.Getenv(VarDebug))
	assert.Equal(t, "1", os.Getenv(VarVerbose))
}

func TestResolveFlags_EnvWinsOverConfig(t *testing.T) {
	t.Setenv(VarDebug, "1")
	t.Setenv(VarVerbose, "")
	os.Unsetenv(VarVerbose)

	debug, verbose, err := ResolveFlags(execution.Configuration{})
	require.NoError(t, err)
	assert.True(t, debug)
	assert.True(t, verbose)
}

func TestResolveFlags_DefaultsDisabled(t *testing.T) {
	t.Setenv(VarDebug, "")
	t.Setenv(VarVerbose, "")
	os.Unsetenv(VarDebug)
	os.Unsetenv(VarVerbose)

	debug, verbose, err := ResolveFlags(execution.Configuration{})
	require.NoError(t, err)
	assert.False(t, debug)
	assert.False(t, verbose)
	assert.Equal(t, "0", os.Getenv(VarDebug))
	assert.Equal(t, "0", os.Getenv(VarVerbose))
}

func TestExportConfiguration(t *testing.T) {
	for _, name := range []string{VarChannel, VarNoRHSM, VarEnableRepos} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}

	require.NoError(t, ExportConfiguration(execution.Configuration{
		Channel:     "eus",
		NoRHSM:      true,
		EnableRepos: []string{"custom-base", "custom-extras"},
	}))
	assert.Equal(t, "eus", os.Getenv(VarChannel))
	assert.Equal(t, "1", os.Getenv(VarNoRHSM))
	assert.Equal(t, "custom-base,custom-extras", os.Getenv(VarEnableRepos))
}

func TestExportConfiguration_Defaults(t *testing.T) {
	for _, name := range []string{VarChannel, VarNoRHSM, VarEnableRepos} {
		t.Setenv(name, "stale")
	}

	require.NoError(t, ExportConfiguration(execution.Configuration{}))
	assert.Equal(t, "ga", os.Getenv(VarChannel), "an unset channel exports as ga")
	assert.Equal(t, "0", os.Getenv(VarNoRHSM))
	assert.Equal(t, "", os.Getenv(VarEnableRepos))
}
