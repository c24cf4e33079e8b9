package logger

import (
	"fmt"
	"time"

	"github.com/harrison/deeporganizer/internal/models"
)

// effectiveOutcome is the outcome that decides color and level: the preview
// for dry-run results, the outcome otherwise.
func effectiveOutcome(r models.ExecutionResult) models.Outcome {
	if r.Outcome == models.OutcomeSkippedDryRun && r.Preview != "" {
		return r.Preview
	}
	return r.Outcome
}

func resultLevel(r models.ExecutionResult) string {
	switch r.Outcome {
	case models.OutcomeFailed:
		return "error"
	case models.OutcomeRejected:
		return "warn"
	default:
		return "info"
	}
}

func outcomeLabel(r models.ExecutionResult) string {
	if r.Outcome == models.OutcomeSkippedDryRun && r.Preview != "" && r.Preview != models.OutcomeApplied {
		return fmt.Sprintf("%s (would be %s)", r.Outcome, r.Preview)
	}
	return string(r.Outcome)
}

func messageSuffix(r models.ExecutionResult) string {
	if r.Message == "" {
		return ""
	}
	return ": " + r.Message
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// summaryLine is one counter line of a summary block.
type summaryLine struct {
	text    string
	count   int
	outcome models.Outcome
}

func summaryLines(s *models.OrganizationSummary) []summaryLine {
	lines := []summaryLine{
		{text: fmt.Sprintf("Root: %s", s.Root)},
		{text: fmt.Sprintf("Model: %s", s.Model)},
		{text: fmt.Sprintf("Files scanned: %d", s.FilesScanned)},
		{text: fmt.Sprintf("Folders created: %d", s.FoldersCreated), count: s.FoldersCreated, outcome: models.OutcomeApplied},
		{text: fmt.Sprintf("Files moved: %d", s.FilesMoved), count: s.FilesMoved, outcome: models.OutcomeApplied},
		{text: fmt.Sprintf("Skipped (dry run): %d", s.Skipped), count: s.Skipped, outcome: models.OutcomeSkippedDryRun},
		{text: fmt.Sprintf("Rejected: %d", s.Rejected), count: s.Rejected, outcome: models.OutcomeRejected},
		{text: fmt.Sprintf("Failed: %d", s.Failed), count: s.Failed, outcome: models.OutcomeFailed},
	}
	if s.DryRun {
		lines = append(lines,
			summaryLine{text: fmt.Sprintf("Would be rejected: %d", s.WouldReject), count: s.WouldReject, outcome: models.OutcomeRejected},
			summaryLine{text: fmt.Sprintf("Would fail: %d", s.WouldFail), count: s.WouldFail, outcome: models.OutcomeFailed},
		)
	}
	if s.Canceled {
		lines = append(lines, summaryLine{
			text:    fmt.Sprintf("Canceled: %d action(s) not attempted", s.NotAttempted),
			count:   s.NotAttempted,
			outcome: models.OutcomeFailed,
		})
	}
	lines = append(lines, summaryLine{text: fmt.Sprintf("Duration: %s", formatDuration(s.Duration))})
	return lines
}

// problemRows returns the rows of rejected or failed actions, including
// dry-run previews of either.
func problemRows(s *models.OrganizationSummary) []models.SummaryRow {
	var rows []models.SummaryRow
	for i, r := range s.Results {
		switch effectiveOutcome(r) {
		case models.OutcomeRejected, models.OutcomeFailed:
			if i < len(s.Rows) {
				rows = append(rows, s.Rows[i])
			}
		}
	}
	return rows
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "250ms", "5s", "1m30s", "2h15m"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		hours := d / time.Hour
		remainder := d % time.Hour
		if remainder == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		minutes := remainder / time.Minute
		remainder = remainder % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, remainder/time.Second)
	case d >= time.Minute:
		minutes := d / time.Minute
		remainder := d % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm%ds", minutes, remainder/time.Second)
	case d >= time.Second:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	default:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
}
