package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysup-io/sysup/internal/workflow"
)

func TestGenerateFiles(t *testing.T) {
	dir := t.TempDir()
	res := &workflow.Result{
		Errors:     []workflow.ErrorRecord{{Phase: "Download", Message: "mirror unreachable"}},
		Inhibitors: []workflow.Inhibitor{{Title: "Unsupported kernel"}},
	}

	paths, err := GenerateFiles(dir, "exec-1", res)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	txt, err := os.ReadFile(filepath.Join(dir, "report.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(txt), "exec-1")
	assert.Contains(t, string(txt), "mirror unreachable")
	assert.Contains(t, string(txt), "Unsupported kernel")

	raw, err := os.ReadFile(filepath.Join(dir, "report.json"))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "exec-1", doc["execution_id"])
}

func TestGenerateFiles_CleanRun(t *testing.T) {
	dir := t.TempDir()
	paths, err := GenerateFiles(dir, "exec-2", &workflow.Result{})
	require.NoError(t, err)
	require.Len(t, paths, 2)

	txt, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(txt), "No errors or inhibitors")
}

func TestLogFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sysup.log"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644))

	files := LogFiles(dir)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "sysup.log"), files[0])
}
