package vecsight

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with vecsight-specific context.
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
		Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.Level(1000), // Unreachable level
		})),
	}
}

// WithDataset adds a dataset tag field to the logger.
func (l *Logger) WithDataset(tag string) *Logger {
	return &Logger{
		Logger: l.Logger.With("dataset", tag),
	}
}

// LogIngest logs an ingestion.
func (l *Logger) LogIngest(ctx context.Context, rows, dimension int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "ingest failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "ingest completed",
			"rows", rows,
			"dimension", dimension,
		)
	}
}

// LogBuild logs a snapshot build.
func (l *Logger) LogBuild(ctx context.Context, version uint64, rows, flagged int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed",
			"rows", rows,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "build published",
			"version", version,
			"rows", rows,
			"flagged", flagged,
		)
	}
}

// LogBuildRejected logs a build rejected because another build is in flight.
func (l *Logger) LogBuildRejected(ctx context.Context, current uint64) {
	l.WarnContext(ctx, "build rejected",
		"current_version", current,
	)
}

// LogRetrain logs a reference model fit.
func (l *Logger) LogRetrain(ctx context.Context, points, k int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "reference retrain failed",
			"points", points,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "reference retrained",
			"points", points,
			"k", k,
		)
	}
}

// LogScore logs a novelty scoring call.
func (l *Logger) LogScore(ctx context.Context, batches, records, novel int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "novelty scoring failed",
			"batches", batches,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "novelty scoring completed",
			"batches", batches,
			"records", records,
			"novel", novel,
		)
	}
}

// LogReference logs a reference model save or load.
func (l *Logger) LogReference(ctx context.Context, op, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "reference "+op+" failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "reference "+op+" completed",
			"name", name,
		)
	}
}
