// Package logger provides the console and file loggers used during an
// organize run.
//
// Both loggers implement executor.Logger as well as leveled LogTrace..LogError
// methods. They are safe for concurrent use.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/harrison/deeporganizer/internal/models"
)

// ConsoleLogger logs execution progress to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps.
// Color output is automatically enabled for terminal output (os.Stdout/os.Stderr).
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
	scheme      *colorScheme
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
		scheme:      newColorScheme(),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}
	if w == os.Stdout || w == os.Stderr {
		// fatih/color already honours NO_COLOR and non-TTY output.
		return !color.NoColor
	}
	return false
}

// Level returns the configured log level.
func (cl *ConsoleLogger) Level() string {
	return cl.logLevel
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) { cl.logWithLevel("TRACE", message) }

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) { cl.logWithLevel("DEBUG", message) }

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) { cl.logWithLevel("INFO", message) }

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) { cl.logWithLevel("WARN", message) }

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) { cl.logWithLevel("ERROR", message) }

// logWithLevel formats "[HH:MM:SS] [LEVEL] message" if filtering allows it.
func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil || !enabled(cl.logLevel, strings.ToLower(level)) {
		return
	}

	tag := level
	if cl.colorOutput {
		tag = levelColor(level).Sprint(level)
	}
	cl.write(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), tag, message))
}

func (cl *ConsoleLogger) write(s string) {
	cl.mutex.Lock()
	defer cl.mutex.Unlock()
	cl.writer.Write([]byte(s))
}

// LogRunStart logs the start of plan execution at INFO level.
// Format: "[HH:MM:SS] Organizing <root>: <n> planned actions"
func (cl *ConsoleLogger) LogRunStart(root string, planned int, dryRun bool) {
	if cl.writer == nil || !enabled(cl.logLevel, "info") {
		return
	}

	mode := ""
	if dryRun {
		mode = " (dry run)"
	}
	rootText := root
	if cl.colorOutput {
		rootText = cl.scheme.header.Sprint(root)
	}
	cl.write(fmt.Sprintf("[%s] Organizing %s: %s%s\n", timestamp(), rootText, plural(planned, "planned action"), mode))
}

// LogActionResult logs one executed action. Applied and dry-run results are
// logged at INFO, rejections at WARN and failures at ERROR.
// Format: "[HH:MM:SS] [====      ] 4/10 (40%) <outcome> <action>: <message>"
func (cl *ConsoleLogger) LogActionResult(index, total int, result models.ExecutionResult) {
	if cl.writer == nil || !enabled(cl.logLevel, resultLevel(result)) {
		return
	}

	pb := NewProgressBar(total, 10, false)
	pb.Update(index + 1)

	outcome := outcomeLabel(result)
	if cl.colorOutput {
		outcome = cl.scheme.outcome(effectiveOutcome(result)).Sprint(outcome)
	}
	cl.write(fmt.Sprintf("[%s] %s %s %s%s\n", timestamp(), pb.Render(), outcome, result.Action, messageSuffix(result)))
}

// LogSummary logs the organization summary at INFO level.
func (cl *ConsoleLogger) LogSummary(summary *models.OrganizationSummary) {
	if cl.writer == nil || summary == nil || !enabled(cl.logLevel, "info") {
		return
	}

	ts := timestamp()
	var sb strings.Builder
	header := "=== Organization Summary ==="
	if cl.colorOutput {
		header = cl.scheme.header.Sprint(header)
	}
	fmt.Fprintf(&sb, "[%s] %s\n", ts, header)
	for _, line := range summaryLines(summary) {
		text := line.text
		if cl.colorOutput && line.count > 0 && line.outcome != "" {
			text = cl.scheme.outcome(line.outcome).Sprint(text)
		}
		fmt.Fprintf(&sb, "[%s] %s\n", ts, text)
	}

	if problems := problemRows(summary); len(problems) > 0 {
		label := "Needs attention:"
		if cl.colorOutput {
			label = cl.scheme.fail.Sprint(label)
		}
		fmt.Fprintf(&sb, "[%s] %s\n", ts, label)
		for _, r := range problems {
			fmt.Fprintf(&sb, "[%s]   - %s %s: %s\n", ts, r.Outcome, r.File, r.Message)
		}
	}
	cl.write(sb.String())
}

// NoOpLogger is a Logger implementation that discards all log messages.
// Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// LogTrace is a no-op implementation.
func (n *NoOpLogger) LogTrace(string) {}

// LogDebug is a no-op implementation.
func (n *NoOpLogger) LogDebug(string) {}

// LogInfo is a no-op implementation.
func (n *NoOpLogger) LogInfo(string) {}

// LogWarn is a no-op implementation.
func (n *NoOpLogger) LogWarn(string) {}

// LogError is a no-op implementation.
func (n *NoOpLogger) LogError(string) {}

// LogRunStart is a no-op implementation.
func (n *NoOpLogger) LogRunStart(string, int, bool) {}

// LogActionResult is a no-op implementation.
func (n *NoOpLogger) LogActionResult(int, int, models.ExecutionResult) {}

// LogSummary is a no-op implementation.
func (n *NoOpLogger) LogSummary(*models.OrganizationSummary) {}
