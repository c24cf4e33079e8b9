package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// HomeEnv overrides the home directory.
const HomeEnv = "DEEPORGANIZER_HOME"

// Home returns the deeporganizer home directory
// Priority order:
//  1. DEEPORGANIZER_HOME environment variable (if set)
//  2. ~/.deeporganizer
//
// The directory is created if it doesn't exist
func Home() (string, error) {
	home := os.Getenv(HomeEnv)
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("locate user home directory: %w", err)
		}
		home = filepath.Join(userHome, ".deeporganizer")
	}

	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create deeporganizer home directory: %w", err)
	}
	return home, nil
}

// ConfigPath returns <home>/config.yaml.
func ConfigPath(home string) string {
	return filepath.Join(home, "config.yaml")
}

// LogsDir returns <home>/logs.
func LogsDir(home string) string {
	return filepath.Join(home, "logs")
}

// LocksDir returns <home>/locks.
func LocksDir(home string) string {
	return filepath.Join(home, "locks")
}

// HistoryDBPath returns <home>/history/runs.db.
func HistoryDBPath(home string) string {
	return filepath.Join(home, "history", "runs.db")
}

// LoadDotEnv loads API keys from a .env file into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
