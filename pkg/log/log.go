// Package log configures the process-wide slog logger. Every lexflow
// binary calls Setup once at startup and tags its loggers with WithModule,
// so log lines across api, worker and trigger share the same shape.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// Setup installs the default text logger at the requested level.
// Unrecognized levels fall back to info rather than failing startup.
func Setup(logLevel string) {
	var level slog.Level

	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// WithModule returns the default logger tagged with the component name,
// e.g. module=scheduler or module=instance_service.
func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
