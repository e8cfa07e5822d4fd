// Package logger configures the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// New builds a logger writing to w. Production uses JSON at info level;
// any other env uses text at debug level.
func New(w io.Writer, env string) *slog.Logger {
	var handler slog.Handler
	if env == "production" || env == "prod" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler)
}

// Setup installs the logger for env as the slog default and returns it.
func Setup(env string) *slog.Logger {
	logger := New(os.Stdout, env)
	slog.SetDefault(logger)
	return logger
}
