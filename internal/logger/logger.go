// Package logger provides structured logging setup for Homeroom.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/homeroom-dev/homeroom/internal/config"
)

const (
	asyncBufferSize = 4096
	asyncWorkers    = 2
)

// New creates a *slog.Logger from the given Logging config.
// Output is JSON to stdout with a "service" attribute on every record.
// With cfg.Async set, records are handed to a buffered worker pool so
// request paths never block on stdout; the returned Closer flushes it.
func New(cfg config.Logging) (*slog.Logger, Closer) {
	level := parseLevel(cfg.Level)

	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	closer := Closer(nopCloser{})
	if cfg.Async {
		async := NewAsyncHandler(handler, asyncBufferSize, asyncWorkers)
		handler = async
		closer = async
	}

	return slog.New(handler).With("service", cfg.Service), closer
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
