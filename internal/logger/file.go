package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/deeporganizer/internal/models"
)

// FileLogger writes a timestamped log file per run and maintains a
// latest.log symlink pointing to the most recent one.
// It is thread-safe and implements the executor.Logger interface.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a FileLogger in logDir, creating the directory if
// needed.
func NewFileLogger(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// run-YYYYMMDD-HHMMSS.log; a suffix keeps runs in the same second apart.
	stamp := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", stamp))
	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	for n := 1; err != nil && os.IsExist(err) && n < 100; n++ {
		runFile = filepath.Join(logDir, fmt.Sprintf("run-%s-%d.log", stamp, n))
		file, err = os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	fl := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
	}
	fl.writeRunLog("=== DeepOrganizer Run Log ===\n")
	fl.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))
	return fl, nil
}

// Path returns the run log file path.
func (fl *FileLogger) Path() string {
	return fl.runFile
}

// LogTrace logs a trace-level message (most verbose).
func (fl *FileLogger) LogTrace(message string) { fl.logWithLevel("TRACE", message) }

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) { fl.logWithLevel("DEBUG", message) }

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) { fl.logWithLevel("INFO", message) }

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) { fl.logWithLevel("WARN", message) }

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) { fl.logWithLevel("ERROR", message) }

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !enabled(fl.logLevel, strings.ToLower(level)) {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message))
}

// LogRunStart records the root, plan size and mode.
func (fl *FileLogger) LogRunStart(root string, planned int, dryRun bool) {
	if !enabled(fl.logLevel, "info") {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] Organizing %s: %s (dry run: %t)\n", timestamp(), root, plural(planned, "planned action"), dryRun))
}

// LogActionResult records one action with its reason, if any.
func (fl *FileLogger) LogActionResult(index, total int, result models.ExecutionResult) {
	if !enabled(fl.logLevel, resultLevel(result)) {
		return
	}
	line := fmt.Sprintf("[%s] [%d/%d] %s %s%s\n", timestamp(), index+1, total, outcomeLabel(result), result.Action, messageSuffix(result))
	if result.Destination != "" {
		line += fmt.Sprintf("           destination: %s\n", result.Destination)
	}
	if result.Err != nil {
		line += fmt.Sprintf("           error: %v\n", result.Err)
	}
	fl.writeRunLog(line)
}

// LogSummary records the final counts and a status line.
func (fl *FileLogger) LogSummary(summary *models.OrganizationSummary) {
	if summary == nil || !enabled(fl.logLevel, "info") {
		return
	}

	status := "SUCCESS"
	switch {
	case summary.Canceled:
		status = "CANCELED"
	case summary.Failed > 0 && summary.FilesMoved == 0:
		status = "FAILED"
	case summary.Failed > 0:
		status = "PARTIAL"
	case summary.DryRun:
		status = "DRY RUN"
	}

	ts := timestamp()
	var sb strings.Builder
	if summary.RunID != "" {
		fmt.Fprintf(&sb, "\n[%s] === ORGANIZATION SUMMARY (run %s) ===\n", ts, summary.RunID)
	} else {
		fmt.Fprintf(&sb, "\n[%s] === ORGANIZATION SUMMARY ===\n", ts)
	}
	for _, line := range summaryLines(summary) {
		fmt.Fprintf(&sb, "[%s] %s\n", ts, line.text)
	}
	if created := summary.CreatedFolders(); len(created) > 0 {
		fmt.Fprintf(&sb, "[%s] Created folders: %s\n", ts, strings.Join(created, ", "))
	}
	for _, r := range problemRows(summary) {
		fmt.Fprintf(&sb, "[%s]   - %s %s: %s\n", ts, r.Outcome, r.File, r.Message)
	}
	fmt.Fprintf(&sb, "[%s] Status: %s\n", ts, status)
	fmt.Fprintf(&sb, "[%s] Completed at: %s\n", ts, time.Now().Format(time.RFC3339))
	fl.writeRunLog(sb.String())
}

// Close flushes and closes the run log.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}
	return nil
}

func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
		// Flush after each write for real-time logging
		fl.runLog.Sync()
	}
}
