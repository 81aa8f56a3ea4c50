package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal_AppendAndRead(t *testing.T) {
	journal := NewJournal(filepath.Join(t.TempDir(), "audit.log"))

	require.NoError(t, journal.Append(Entry{ExecutionID: "a", Kind: KindExecutionStarted}))
	require.NoError(t, journal.Append(Entry{ExecutionID: "a", Kind: KindPhaseCompleted, Phase: "Checks"}))
	require.NoError(t, journal.Append(Entry{ExecutionID: "b", Kind: KindExecutionStarted}))
	require.NoError(t, journal.Append(Entry{ExecutionID: "a", Kind: KindPhaseCompleted, Phase: "Download"}))

	entries, err := journal.ForExecution("a")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, KindExecutionStarted, entries[0].Kind)
	assert.Equal(t, "Checks", entries[1].Phase)
	assert.Equal(t, "Download", entries[2].Phase)
	assert.NotEmpty(t, entries[0].Timestamp)
}

func TestJournal_MissingFile(t *testing.T) {
	journal := NewJournal(filepath.Join(t.TempDir(), "audit.log"))

	entries, err := journal.ForExecution("a")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestJournal_CorruptLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	journal := NewJournal(path)

	require.NoError(t, journal.Append(Entry{ExecutionID: "a", Kind: KindPhaseCompleted, Phase: "Checks"}))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = journal.ForExecution("a")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestJournal_OverlongLineIsCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	journal := NewJournal(path)

	require.NoError(t, journal.Append(Entry{ExecutionID: "a", Kind: KindPhaseCompleted, Phase: "Checks"}))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(strings.Repeat("x", maxEntryBytes+1) + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = journal.ForExecution("a")
	assert.ErrorIs(t, err, ErrCorrupt)
}
