// internal/log/log.go
// Package log holds the process-wide structured logger. Packages log
// through this instead of carrying a *zap.Logger through every
// constructor; the CLI configures it once at startup.
package log

import (
	"fmt"

	"go.uber.org/zap"
)

var logger *zap.Logger

func init() {
	logger, _ = zap.NewDevelopment()
}

// Configure replaces the default development logger with one built from
// the given level ("debug", "info", "warn", "error") and format ("json"
// or "console"). Called once from the CLI before anything else logs.
func Configure(level, format string) error {
	lvl := zap.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	switch format {
	case "", "json":
		// production defaults
	case "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	default:
		return fmt.Errorf("invalid log format %q: want json or console", format)
	}

	built, err := cfg.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	logger = built
	return nil
}

// Logger returns the global logger.
func Logger() *zap.Logger {
	return logger
}

// SetLogger sets the global logger. Tests use this with zaptest.
func SetLogger(l *zap.Logger) {
	logger = l
}

// Debug logs a debug message.
func Debug(msg string, fields ...zap.Field) {
	logger.Debug(msg, fields...)
}

// Info logs an info message.
func Info(msg string, fields ...zap.Field) {
	logger.Info(msg, fields...)
}

// Warn logs a warning message.
func Warn(msg string, fields ...zap.Field) {
	logger.Warn(msg, fields...)
}

// Error logs an error message.
func Error(msg string, fields ...zap.Field) {
	logger.Error(msg, fields...)
}

// Fatal logs a fatal message and exits.
func Fatal(msg string, fields ...zap.Field) {
	logger.Fatal(msg, fields...)
}

// With returns a logger with additional fields.
func With(fields ...zap.Field) *zap.Logger {
	return logger.With(fields...)
}

// Sync flushes any buffered log entries.
func Sync() error {
	return logger.Sync()
}
