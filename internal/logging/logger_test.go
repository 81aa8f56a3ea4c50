package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWithFile_CreatesLogDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sysup.log")

	InitWithFile("info", path)
	Info("log directory created")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "log directory created")
}
