package vecload

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/vecload/dataset"
	"github.com/hupe1980/vecload/postgres"
)

// Logger wraps slog.Logger with vecload-specific context.
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

// WithRunID tags every line with the id of the current run.
func (l *Logger) WithRunID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run_id", id),
	}
}

// WithDataset adds the dataset location.
func (l *Logger) WithDataset(location string) *Logger {
	return &Logger{
		Logger: l.Logger.With("dataset", location),
	}
}

// WithTable adds a table name.
func (l *Logger) WithTable(table string) *Logger {
	return &Logger{
		Logger: l.Logger.With("table", table),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// LogExport logs an export.
func (l *Logger) LogExport(ctx context.Context, m dataset.Manifest, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "export failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "export completed",
			"d", m.D,
			"n", m.N,
			"m", m.M,
			"k", m.K,
			"duration", duration,
		)
	}
}

// LogFile logs a written container file.
func (l *Logger) LogFile(ctx context.Context, name string, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "write failed",
			"file", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "file written",
			"file", name,
			"rows", rows,
		)
	}
}

// LogTable logs a table load.
func (l *Logger) LogTable(ctx context.Context, res postgres.Result, err error) {
	if err != nil {
		l.ErrorContext(ctx, "table load failed",
			"table", res.Table,
			"rows", res.Rows,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "table loaded",
			"table", res.Table,
			"rows", res.Rows,
			"bytes", res.Bytes,
			"duration", res.Duration,
		)
	}
}

// LogProgress logs loading progress.
func (l *Logger) LogProgress(ctx context.Context, table string, rows, total int64) {
	l.DebugContext(ctx, "load progress",
		"table", table,
		"rows", rows,
		"total", total,
	)
}
