package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/harrison/deeporganizer/internal/models"
)

func TestConsoleLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level   string
		visible []string
		hidden  []string
	}{
		{"trace", []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}, nil},
		{"info", []string{"INFO", "WARN", "ERROR"}, []string{"TRACE", "DEBUG"}},
		{"error", []string{"ERROR"}, []string{"TRACE", "DEBUG", "INFO", "WARN"}},
		{"bogus", []string{"INFO", "WARN", "ERROR"}, []string{"DEBUG"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			cl := NewConsoleLogger(&buf, tt.level)
			cl.LogTrace("t")
			cl.LogDebug("d")
			cl.LogInfo("i")
			cl.LogWarn("w")
			cl.LogError("e")

			out := buf.String()
			for _, tag := range tt.visible {
				assert.Contains(t, out, "["+tag+"]")
			}
			for _, tag := range tt.hidden {
				assert.NotContains(t, out, "["+tag+"]")
			}
		})
	}
}

func TestConsoleLogger_NilWriter(t *testing.T) {
	cl := NewConsoleLogger(nil, "trace")
	cl.LogInfo("discarded")
	cl.LogRunStart("/root", 1, false)
	cl.LogActionResult(0, 1, models.ExecutionResult{Outcome: models.OutcomeApplied})
	cl.LogSummary(&models.OrganizationSummary{})
}

func TestConsoleLogger_RunEvents(t *testing.T) {
	var buf bytes.Buffer
	cl := NewConsoleLogger(&buf, "info")

	cl.LogRunStart("/data", 2, true)
	cl.LogActionResult(0, 2, models.ExecutionResult{
		Action:  models.CreateFolder("Docs"),
		Outcome: models.OutcomeSkippedDryRun,
		Preview: models.OutcomeApplied,
		Message: "would create folder Docs",
	})
	cl.LogActionResult(1, 2, models.ExecutionResult{
		Action:  models.MoveFile(".env", "Docs"),
		Outcome: models.OutcomeSkippedDryRun,
		Preview: models.OutcomeRejected,
		Message: "would reject: protected",
	})

	out := buf.String()
	assert.Contains(t, out, "Organizing /data: 2 planned actions (dry run)")
	assert.Contains(t, out, "[=====     ] 1/2 (50%) skipped_dry_run create folder \"Docs\": would create folder Docs")
	assert.Contains(t, out, "skipped_dry_run (would be rejected) move \".env\" -> \"Docs\"")
	assert.NotContains(t, out, "\x1b[")
}

func TestConsoleLogger_RejectionsAreWarnings(t *testing.T) {
	var buf bytes.Buffer
	cl := NewConsoleLogger(&buf, "warn")
	cl.LogActionResult(0, 2, models.ExecutionResult{Action: models.CreateFolder("A"), Outcome: models.OutcomeApplied})
	cl.LogActionResult(1, 2, models.ExecutionResult{Action: models.MoveFile("x", "A"), Outcome: models.OutcomeRejected, Message: "protected"})

	out := buf.String()
	assert.NotContains(t, out, "create folder")
	assert.Contains(t, out, "rejected move \"x\" -> \"A\": protected")
}

func TestConsoleLogger_Summary(t *testing.T) {
	results := []models.ExecutionResult{
		{Action: models.CreateFolder("Docs"), Outcome: models.OutcomeApplied, FolderCreated: true},
		{Action: models.MoveFile("a.txt", "Docs"), Outcome: models.OutcomeApplied},
		{Action: models.MoveFile("b.txt", "Docs"), Outcome: models.OutcomeFailed, Message: "permission denied", Err: errors.New("EACCES")},
	}
	summary := models.Summarize(results, 4)
	summary.Root = "/data"
	summary.Model = "openai:gpt-4o-mini"
	summary.FilesScanned = 2
	summary.Canceled = true
	summary.Duration = 1500 * time.Millisecond

	var buf bytes.Buffer
	NewConsoleLogger(&buf, "info").LogSummary(summary)
	out := buf.String()

	for _, want := range []string{
		"=== Organization Summary ===",
		"Model: openai:gpt-4o-mini",
		"Folders created: 1",
		"Files moved: 1",
		"Failed: 1",
		"Canceled: 1 action(s) not attempted",
		"Duration: 1s",
		"- failed b.txt: permission denied",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Would be rejected")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{5 * time.Second, "5s"},
		{90 * time.Second, "1m30s"},
		{2 * time.Minute, "2m"},
		{2*time.Hour + 15*time.Minute, "2h15m"},
		{time.Hour + time.Minute + time.Second, "1h1m1s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.d))
	}
}

func TestProgressBar(t *testing.T) {
	pb := NewProgressBar(4, 8, false)
	pb.Update(1)
	assert.Equal(t, "[==      ] 1/4 (25%)", pb.Render())
	pb.Update(9)
	assert.Equal(t, 100, pb.Percentage())

	empty := NewProgressBar(0, 0, false)
	assert.Equal(t, 0, empty.Percentage())
	assert.True(t, strings.HasPrefix(empty.Render(), "[          ]"))

	colored := NewProgressBar(2, 4, true)
	colored.Update(2)
	assert.True(t, strings.HasPrefix(colored.Render(), "\033[32m"))
}

func TestIsValidLevel(t *testing.T) {
	assert.True(t, IsValidLevel(" DEBUG "))
	assert.False(t, IsValidLevel("verbose"))
}
