package slabkit

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/slabkit/alloc"
)

// Logger wraps slog.Logger with slabkit-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithComponent adds a component field to the logger.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("component", name),
	}
}

// LogOpen logs the construction of a runtime.
func (l *Logger) LogOpen(ctx context.Context, memoryLimit int64, capacities alloc.Capacities) {
	l.InfoContext(ctx, "runtime opened",
		"memory_limit", memoryLimit,
		"capacities", capacities,
	)
}

// LogClose logs the teardown of a runtime with its final statistics.
func (l *Logger) LogClose(ctx context.Context, stats alloc.Stats, err error) {
	var mapped int64
	for _, c := range stats.Classes {
		mapped += c.BytesMapped
	}
	if err != nil {
		l.ErrorContext(ctx, "runtime close failed",
			"pool_bytes", mapped,
			"large_objects", stats.LargeObjects,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "runtime closed",
		"pool_bytes", mapped,
		"large_objects", stats.LargeObjects,
		"large_bytes", stats.LargeBytes,
	)
}

// LogArena logs the creation of an arena.
func (l *Logger) LogArena(ctx context.Context, kind, name string, capacity int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "arena creation failed",
			"kind", kind,
			"arena", name,
			"capacity", capacity,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "arena created",
			"kind", kind,
			"arena", name,
			"capacity", capacity,
		)
	}
}

// LogAudit logs the result of a free-list audit.
func (l *Logger) LogAudit(ctx context.Context, err error) {
	if err != nil {
		l.ErrorContext(ctx, "audit failed", "error", err)
	} else {
		l.DebugContext(ctx, "audit passed")
	}
}
