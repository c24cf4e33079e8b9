// Package display renders user-facing tables and warnings for the
// deeporganizer CLI.
//
// # Summary Tables
//
// RenderSummary prints the per-action rows of an organize run:
//
//	display.RenderSummary(os.Stdout, summary, display.ColorEnabled(os.Stdout))
//
// # Warnings
//
//	warning := display.Warning{
//	    Title:      "Files not sampled",
//	    Files:      []string{"secret.env"},
//	    Suggestion: "Check the protected set",
//	}
//	warning.Display(os.Stderr, false)
//
// All functions accept io.Writer for testability. Colors are only emitted
// when the caller asks for them, normally when ColorEnabled reports a TTY.
package display
