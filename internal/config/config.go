// Package config loads application settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type Config struct {
	// Storage
	DBPath      string
	ReceiptsDir string
	FontsDir    string

	// Logging
	LogLevel string
}

func Load() *Config {
	return &Config{
		DBPath:      getEnv("HAZINE_DB_PATH", "./data/expenses.db"),
		ReceiptsDir: getEnv("HAZINE_RECEIPTS_DIR", "./receipts"),
		FontsDir:    getEnv("HAZINE_FONTS_DIR", "./fonts"),
		LogLevel:    getEnv("HAZINE_LOG_LEVEL", "info"),
	}
}

// Validate checks the configuration and creates the storage directories
// that are missing.
func (c *Config) Validate() error {
	var errs []string

	if c.DBPath == "" {
		errs = append(errs, "database path cannot be empty")
	} else if dir := filepath.Dir(c.DBPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			errs = append(errs, fmt.Sprintf("cannot create database directory %q: %v", dir, err))
		}
	}

	if c.ReceiptsDir == "" {
		errs = append(errs, "receipts directory cannot be empty")
	} else if err := os.MkdirAll(c.ReceiptsDir, 0755); err != nil {
		errs = append(errs, fmt.Sprintf("cannot create receipts directory %q: %v", c.ReceiptsDir, err))
	}

	if c.FontsDir == "" {
		errs = append(errs, "fonts directory cannot be empty")
	} else if err := os.MkdirAll(c.FontsDir, 0755); err != nil {
		errs = append(errs, fmt.Sprintf("cannot create fonts directory %q: %v", c.FontsDir, err))
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// ParseLevel maps the configured level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q: must be debug, info, warn or error", s)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
