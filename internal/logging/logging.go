// Package logging configures the process-wide slog logger from the environment.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type Config struct {
	// Level is used when TASKBOARD_LOG_LEVEL is unset.
	Level slog.Level
	// Writer receives logs when TASKBOARD_LOG_FILE is unset. Defaults to stderr.
	Writer io.Writer
}

// Init installs the default logger and returns it.
//
// TASKBOARD_LOG_LEVEL (debug|info|warn|error), TASKBOARD_LOG_FORMAT (text|json) and
// TASKBOARD_LOG_FILE override cfg.
func Init(cfg Config) *slog.Logger {
	level := cfg.Level
	if v := os.Getenv("TASKBOARD_LOG_LEVEL"); v != "" {
		level = parseLevel(v)
	}
	opts := &slog.HandlerOptions{Level: level}

	var w io.Writer = os.Stderr
	if cfg.Writer != nil {
		w = cfg.Writer
	}
	if logFile := os.Getenv("TASKBOARD_LOG_FILE"); logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			slog.Error("failed to create log directory, using stderr", "file", logFile, "error", err)
		} else if f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err != nil {
			slog.Error("failed to open log file, using stderr", "file", logFile, "error", err)
		} else {
			w = f
		}
	}

	var handler slog.Handler
	if strings.EqualFold(os.Getenv("TASKBOARD_LOG_FORMAT"), "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	l := slog.New(handler)
	slog.SetDefault(l)
	return l
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewRequestLogger returns base annotated with a fresh time-ordered request id.
func NewRequestLogger(base *slog.Logger) (*slog.Logger, string) {
	id := uuid.Must(uuid.NewV7()).String()
	return base.With("requestId", id), id
}
