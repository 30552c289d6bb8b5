package config

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// LogConfig represents the [log] section.
type LogConfig struct {
	Level string `toml:"level" mapstructure:"level"`
	// Format is "console" or "json".
	Format string `toml:"format" mapstructure:"format"`
}

// Validate performs validation on the log configuration.
func (l *LogConfig) Validate() error {
	if _, err := zapcore.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("invalid level: %w", err)
	}
	switch l.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid format: %s (valid options: console, json)", l.Format)
	}
	return nil
}

// ZapLevel returns the configured level. Call Validate first.
func (l *LogConfig) ZapLevel() zapcore.Level {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}
