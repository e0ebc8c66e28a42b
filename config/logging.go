package config

import (
	"fmt"
	"strings"

	"github.com/kilianp07/fjsm/infra/logger"
)

// LoggingConfig defines the log level and optional file rotation.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level"`
	// File switches output from stderr to a rotating file.
	File string `json:"file"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	c.Level = strings.ToLower(c.Level)
	if c.Level == "" {
		c.Level = "warn"
	}
	if c.File != "" && c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
}

// Validate checks mandatory fields.
func (c LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown level %s", c.Level)
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("rotation limits must not be negative")
	}
	return nil
}

// Options converts the section for logger.Configure.
func (c LoggingConfig) Options() logger.Options {
	return logger.Options{
		Level:      c.Level,
		File:       c.File,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
	}
}
