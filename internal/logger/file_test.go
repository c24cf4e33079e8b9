package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/deeporganizer/internal/models"
)

func TestFileLogger_WritesRunLog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	fl, err := NewFileLogger(dir, "info")
	require.NoError(t, err)

	fl.LogDebug("hidden")
	fl.LogInfo("scanning")
	fl.LogRunStart("/data", 1, false)
	fl.LogActionResult(0, 1, models.ExecutionResult{
		Action:      models.MoveFile("a.txt", "Docs"),
		Outcome:     models.OutcomeApplied,
		Destination: "Docs/a.txt",
	})
	summary := models.Summarize([]models.ExecutionResult{
		{Action: models.MoveFile("a.txt", "Docs"), Outcome: models.OutcomeApplied, FolderCreated: true},
	}, 1)
	summary.RunID = "run-1"
	fl.LogSummary(summary)
	require.NoError(t, fl.Close())

	data, err := os.ReadFile(fl.Path())
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "=== DeepOrganizer Run Log ===")
	assert.Contains(t, out, "[INFO] scanning")
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[1/1] applied move \"a.txt\" -> \"Docs\"")
	assert.Contains(t, out, "destination: Docs/a.txt")
	assert.Contains(t, out, "ORGANIZATION SUMMARY (run run-1)")
	assert.Contains(t, out, "Created folders: Docs")
	assert.Contains(t, out, "Status: SUCCESS")

	target, err := os.Readlink(filepath.Join(dir, "latest.log"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(fl.Path()), target)
}

func TestFileLogger_SameSecondRuns(t *testing.T) {
	dir := t.TempDir()
	first, err := NewFileLogger(dir, "info")
	require.NoError(t, err)
	defer first.Close()
	second, err := NewFileLogger(dir, "info")
	require.NoError(t, err)
	defer second.Close()

	assert.NotEqual(t, first.Path(), second.Path())
	target, err := os.Readlink(filepath.Join(dir, "latest.log"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(second.Path()), target)
}

func TestFileLogger_CloseTwice(t *testing.T) {
	fl, err := NewFileLogger(t.TempDir(), "info")
	require.NoError(t, err)
	require.NoError(t, fl.Close())
	require.NoError(t, fl.Close())
	fl.LogInfo("after close is dropped")
}
