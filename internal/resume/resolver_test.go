package resume

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysup-io/sysup/internal/audit"
)

var pipeline = []string{"FactsCollection", "Checks", "Download", "Applications"}

func phaseIndex(name string) int {
	for i, p := range pipeline {
		if p == name {
			return i
		}
	}
	return -1
}

func newJournal(t *testing.T) *audit.Journal {
	t.Helper()
	return audit.NewJournal(filepath.Join(t.TempDir(), "audit.log"))
}

func TestResolver_LastCompletedPhase(t *testing.T) {
	journal := newJournal(t)
	require.NoError(t, journal.Append(audit.Entry{ExecutionID: "a", Kind: audit.KindExecutionStarted}))
	require.NoError(t, journal.Append(audit.Entry{ExecutionID: "a", Kind: audit.KindPhaseCompleted, Phase: "Checks"}))
	require.NoError(t, journal.Append(audit.Entry{ExecutionID: "a", Kind: audit.KindPhaseCompleted, Phase: "Download"}))

	resolver := NewResolver(journal, phaseIndex)
	phase, err := resolver.LastCompletedPhase("a")
	require.NoError(t, err)
	assert.Equal(t, "Download", phase)
}

func TestResolver_NoProgress(t *testing.T) {
	journal := newJournal(t)
	require.NoError(t, journal.Append(audit.Entry{ExecutionID: "a", Kind: audit.KindExecutionStarted}))

	resolver := NewResolver(journal, phaseIndex)
	phase, err := resolver.LastCompletedPhase("a")
	require.NoError(t, err)
	assert.Equal(t, "", phase)
}

func TestResolver_NoHistoryAtAll(t *testing.T) {
	resolver := NewResolver(newJournal(t), phaseIndex)
	phase, err := resolver.LastCompletedPhase("a")
	require.NoError(t, err)
	assert.Equal(t, "", phase)
}

func TestResolver_UnknownPhase(t *testing.T) {
	journal := newJournal(t)
	require.NoError(t, journal.Append(audit.Entry{ExecutionID: "a", Kind: audit.KindPhaseCompleted, Phase: "NotAPhase"}))

	resolver := NewResolver(journal, phaseIndex)
	_, err := resolver.LastCompletedPhase("a")
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestResolver_OutOfOrderHistory(t *testing.T) {
	journal := newJournal(t)
	require.NoError(t, journal.Append(audit.Entry{ExecutionID: "a", Kind: audit.KindPhaseCompleted, Phase: "Download"}))
	require.NoError(t, journal.Append(audit.Entry{ExecutionID: "a", Kind: audit.KindPhaseCompleted, Phase: "Checks"}))

	resolver := NewResolver(journal, phaseIndex)
	_, err := resolver.LastCompletedPhase("a")
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestResolver_MissingPhaseName(t *testing.T) {
	journal := newJournal(t)
	require.NoError(t, journal.Append(audit.Entry{ExecutionID: "a", Kind: audit.KindPhaseCompleted}))

	resolver := NewResolver(journal, phaseIndex)
	_, err := resolver.LastCompletedPhase("a")
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestResolver_CorruptJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	require.NoError(t, os.WriteFile(path, []byte("garbage\n"), 0644))

	resolver := NewResolver(audit.NewJournal(path), phaseIndex)
	_, err := resolver.LastCompletedPhase("a")
	assert.ErrorIs(t, err, ErrIntegrity)
}
