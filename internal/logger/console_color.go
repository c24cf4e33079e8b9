package logger

import (
	"github.com/fatih/color"

	"github.com/harrison/deeporganizer/internal/models"
)

// colorScheme defines consistent colors for outcomes and labels.
// Green: applied
// Red: failed
// Yellow: rejected
// Cyan: dry run previews and labels
type colorScheme struct {
	success *color.Color
	fail    *color.Color
	warn    *color.Color
	label   *color.Color
	header  *color.Color
}

// newColorScheme creates the standard color scheme.
func newColorScheme() *colorScheme {
	return &colorScheme{
		success: color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
		label:   color.New(color.FgCyan),
		header:  color.New(color.Bold),
	}
}

// outcome returns the color used for an action outcome.
func (s *colorScheme) outcome(o models.Outcome) *color.Color {
	switch o {
	case models.OutcomeApplied:
		return s.success
	case models.OutcomeFailed:
		return s.fail
	case models.OutcomeRejected:
		return s.warn
	default:
		return s.label
	}
}

// levelColor returns the color of a level tag.
func levelColor(level string) *color.Color {
	switch level {
	case "TRACE":
		return color.New(color.FgHiBlack)
	case "DEBUG":
		return color.New(color.FgCyan)
	case "INFO":
		return color.New(color.FgBlue)
	case "WARN":
		return color.New(color.FgYellow)
	case "ERROR":
		return color.New(color.FgRed)
	default:
		return color.New(color.Reset)
	}
}
