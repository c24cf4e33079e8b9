package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/deeporganizer/internal/config"
	"github.com/harrison/deeporganizer/internal/executor"
	"github.com/harrison/deeporganizer/internal/guard"
	"github.com/harrison/deeporganizer/internal/history"
	"github.com/harrison/deeporganizer/internal/logger"
	"github.com/harrison/deeporganizer/internal/models"
)

// settings is the resolved configuration shared by the commands.
type settings struct {
	home string
	cfg  *config.Config
}

// addScanFlags registers the flags that shape scanning and sampling.
func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to config file (default: $DEEPORGANIZER_HOME/config.yaml)")
	cmd.Flags().Int("max-read", 0, "Bytes sampled from each file (default: config or 1000)")
	cmd.Flags().Bool("recursive", false, "Scan subdirectories too")
	cmd.Flags().StringSlice("exclude-file", nil, "Additional protected file names (comma separated or repeated)")
	cmd.Flags().StringSlice("exclude-folder", nil, "Additional protected folder names (comma separated or repeated)")
	cmd.Flags().StringSlice("exclude-pattern", nil, "Additional protected glob patterns, e.g. '**/*.lock'")
	cmd.Flags().Bool("json", false, "Print machine-readable JSON instead of a table")
}

// loadSettings resolves home, loads the config file and .env, and applies
// the command's flags. Only flags the user set override the file.
func loadSettings(cmd *cobra.Command) (*settings, error) {
	home, err := config.Home()
	if err != nil {
		return nil, err
	}
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.ConfigPath(home)
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var f config.FlagOverrides
	flags := cmd.Flags()
	if flags.Lookup("dry-run") != nil && flags.Changed("dry-run") {
		v, _ := flags.GetBool("dry-run")
		f.DryRun = &v
	}
	if flags.Changed("max-read") {
		v, _ := flags.GetInt("max-read")
		f.MaxFileReadSize = &v
	}
	if flags.Lookup("model") != nil && flags.Changed("model") {
		v, _ := flags.GetString("model")
		f.Model = &v
	}
	if flags.Changed("recursive") {
		v, _ := flags.GetBool("recursive")
		f.Recursive = &v
	}
	if flags.Lookup("log-dir") != nil && flags.Changed("log-dir") {
		v, _ := flags.GetString("log-dir")
		f.LogDir = &v
	}
	if flags.Lookup("verbose") != nil && flags.Changed("verbose") {
		if v, _ := flags.GetBool("verbose"); v {
			level := "debug"
			f.LogLevel = &level
		}
	}
	if flags.Lookup("no-history") != nil && flags.Changed("no-history") {
		v, _ := flags.GetBool("no-history")
		f.NoHistory = &v
	}
	f.Protected.Files, _ = flags.GetStringSlice("exclude-file")
	f.Protected.Folders, _ = flags.GetStringSlice("exclude-folder")
	f.Protected.Patterns, _ = flags.GetStringSlice("exclude-pattern")

	cfg.MergeWithFlags(f)
	cfg.ApplyHome(home)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &settings{home: home, cfg: cfg}, nil
}

// rootArg returns the directory to work on: the argument at index i, the
// configured root_directory, or the working directory.
func (s *settings) rootArg(args []string, i int) string {
	if len(args) > i && args[i] != "" {
		return args[i]
	}
	if s.cfg.RootDirectory != "" {
		return s.cfg.RootDirectory
	}
	return "."
}

func (s *settings) protected() guard.ProtectedSet {
	return s.cfg.ProtectedSet()
}

// openHistory opens the history store when enabled. Failure is reported as
// a warning and history is skipped.
func (s *settings) openHistory(warn func(string)) *history.Store {
	if !s.cfg.History.Enabled {
		return nil
	}
	store, err := history.NewStore(s.cfg.History.DBPath)
	if err != nil {
		warn(fmt.Sprintf("Run history disabled: %v", err))
		return nil
	}
	return store
}

// runLogger is what the organizer needs from a logger; console and file
// loggers both satisfy it.
type runLogger interface {
	executor.Logger
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
}

// multiLogger delegates to multiple loggers
type multiLogger struct {
	loggers []runLogger
}

// LogRunStart forwards to all loggers
func (ml *multiLogger) LogRunStart(root string, planned int, dryRun bool) {
	for _, l := range ml.loggers {
		l.LogRunStart(root, planned, dryRun)
	}
}

// LogActionResult forwards to all loggers
func (ml *multiLogger) LogActionResult(index, total int, result models.ExecutionResult) {
	for _, l := range ml.loggers {
		l.LogActionResult(index, total, result)
	}
}

// LogSummary forwards to all loggers
func (ml *multiLogger) LogSummary(summary *models.OrganizationSummary) {
	for _, l := range ml.loggers {
		l.LogSummary(summary)
	}
}

// LogDebug forwards to all loggers
func (ml *multiLogger) LogDebug(message string) {
	for _, l := range ml.loggers {
		l.LogDebug(message)
	}
}

// LogInfo forwards to all loggers
func (ml *multiLogger) LogInfo(message string) {
	for _, l := range ml.loggers {
		l.LogInfo(message)
	}
}

// LogWarn forwards to all loggers
func (ml *multiLogger) LogWarn(message string) {
	for _, l := range ml.loggers {
		l.LogWarn(message)
	}
}

var (
	_ runLogger = (*logger.ConsoleLogger)(nil)
	_ runLogger = (*logger.FileLogger)(nil)
	_ runLogger = (*multiLogger)(nil)
)
