// Package config loads DeepOrganizer settings from YAML and merges them with
// command-line flags.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harrison/deeporganizer/internal/guard"
	"github.com/harrison/deeporganizer/internal/planner"
	"github.com/harrison/deeporganizer/internal/sampler"
)

// DefaultMaxFileReadSize is the number of bytes sampled from each file.
const DefaultMaxFileReadSize = 1000

// HistoryConfig represents run history configuration
type HistoryConfig struct {
	// Enabled records every organize run in the history database
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the SQLite database (default: <home>/history/runs.db)
	DBPath string `yaml:"db_path"`
}

// Config represents deeporganizer configuration options
type Config struct {
	// RootDirectory is the directory to organize when none is given on the command line
	RootDirectory string `yaml:"root_directory"`

	// DryRun reports the plan without touching the filesystem
	DryRun bool `yaml:"dry_run"`

	// MaxFileReadSize is the number of bytes sampled per file (0 = default)
	MaxFileReadSize int `yaml:"max_file_read_size"`

	// Model selects the planner as provider:model
	Model string `yaml:"model"`

	// Recursive scans subdirectories as well
	Recursive bool `yaml:"recursive"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs are written (default: <home>/logs)
	LogDir string `yaml:"log_dir"`

	// PlannerTimeout bounds one planner call
	PlannerTimeout time.Duration `yaml:"planner_timeout"`

	// ClaudePath is the claude CLI binary for the claude provider
	ClaudePath string `yaml:"claude_path"`

	// Protected extends the built-in protected names
	Protected guard.ProtectedSet `yaml:"protected"`

	// History contains run history configuration
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		DryRun:          false,
		MaxFileReadSize: DefaultMaxFileReadSize,
		Model:           planner.DefaultModel,
		Recursive:       false,
		LogLevel:        "info",
		PlannerTimeout:  planner.DefaultTimeout,
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations are strings in the file ("90s", "2m").
	type yamlConfig struct {
		RootDirectory   string             `yaml:"root_directory"`
		DryRun          bool               `yaml:"dry_run"`
		MaxFileReadSize int                `yaml:"max_file_read_size"`
		Model           string             `yaml:"model"`
		Recursive       bool               `yaml:"recursive"`
		LogLevel        string             `yaml:"log_level"`
		LogDir          string             `yaml:"log_dir"`
		PlannerTimeout  string             `yaml:"planner_timeout"`
		ClaudePath      string             `yaml:"claude_path"`
		Protected       guard.ProtectedSet `yaml:"protected"`
		History         HistoryConfig      `yaml:"history"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Booleans and zero values are only applied when the key is present.
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	has := func(key string) bool {
		_, ok := rawMap[key]
		return ok
	}

	if yamlCfg.RootDirectory != "" {
		cfg.RootDirectory = yamlCfg.RootDirectory
	}
	if has("dry_run") {
		cfg.DryRun = yamlCfg.DryRun
	}
	if has("max_file_read_size") {
		cfg.MaxFileReadSize = yamlCfg.MaxFileReadSize
	}
	if yamlCfg.Model != "" {
		cfg.Model = yamlCfg.Model
	}
	if has("recursive") {
		cfg.Recursive = yamlCfg.Recursive
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(yamlCfg.LogLevel)
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if yamlCfg.PlannerTimeout != "" {
		timeout, err := time.ParseDuration(yamlCfg.PlannerTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid planner_timeout format %q: %w", yamlCfg.PlannerTimeout, err)
		}
		cfg.PlannerTimeout = timeout
	}
	if yamlCfg.ClaudePath != "" {
		cfg.ClaudePath = yamlCfg.ClaudePath
	}
	cfg.Protected = yamlCfg.Protected

	if section, ok := rawMap["history"].(map[string]interface{}); ok {
		if _, exists := section["enabled"]; exists {
			cfg.History.Enabled = yamlCfg.History.Enabled
		}
		if _, exists := section["db_path"]; exists {
			cfg.History.DBPath = yamlCfg.History.DBPath
		}
	}

	return cfg, nil
}

// ApplyHome fills the paths left empty with their locations under home.
func (c *Config) ApplyHome(home string) {
	if c.LogDir == "" {
		c.LogDir = LogsDir(home)
	}
	if c.History.DBPath == "" {
		c.History.DBPath = HistoryDBPath(home)
	}
}

// FlagOverrides carries command-line values. Nil fields were not set and
// leave the configuration unchanged.
type FlagOverrides struct {
	DryRun          *bool
	MaxFileReadSize *int
	Model           *string
	Recursive       *bool
	LogDir          *string
	LogLevel        *string
	NoHistory       *bool
	Protected       guard.ProtectedSet
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(f FlagOverrides) {
	if f.DryRun != nil {
		c.DryRun = *f.DryRun
	}
	if f.MaxFileReadSize != nil {
		c.MaxFileReadSize = *f.MaxFileReadSize
	}
	if f.Model != nil {
		c.Model = *f.Model
	}
	if f.Recursive != nil {
		c.Recursive = *f.Recursive
	}
	if f.LogDir != nil {
		c.LogDir = *f.LogDir
	}
	if f.LogLevel != nil {
		c.LogLevel = strings.ToLower(*f.LogLevel)
	}
	if f.NoHistory != nil && *f.NoHistory {
		c.History.Enabled = false
	}
	c.Protected = c.Protected.Merge(f.Protected)
}

// ProtectedSet returns the built-in protected names extended by the
// configured ones.
func (c *Config) ProtectedSet() guard.ProtectedSet {
	return guard.DefaultProtectedSet().Merge(c.Protected)
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if c.MaxFileReadSize < 0 {
		return fmt.Errorf("max_file_read_size must be >= 0, got %d", c.MaxFileReadSize)
	}
	if c.MaxFileReadSize > sampler.MaxBytesLimit {
		return fmt.Errorf("max_file_read_size must be <= %d, got %d", sampler.MaxBytesLimit, c.MaxFileReadSize)
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.PlannerTimeout < 0 {
		return fmt.Errorf("planner_timeout must be >= 0, got %v", c.PlannerTimeout)
	}

	if _, _, err := planner.ParseModel(c.Model); err != nil {
		return fmt.Errorf("invalid model: %w", err)
	}

	if pat, ok := c.Protected.ValidatePatterns(); !ok {
		return fmt.Errorf("invalid protected pattern %q", pat)
	}

	if c.History.Enabled && c.History.DBPath == "" {
		return fmt.Errorf("history.db_path cannot be empty when history is enabled")
	}

	return nil
}
