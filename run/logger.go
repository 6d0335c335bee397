package run

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with matrix-job specific helpers.
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
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithPath adds a path field to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// WithStage adds a stage field to the logger.
func (l *Logger) WithStage(stage string) *Logger {
	return &Logger{
		Logger: l.Logger.With("stage", stage),
	}
}

// WithWorker adds a worker index field to the logger.
func (l *Logger) WithWorker(worker int) *Logger {
	return &Logger{
		Logger: l.Logger.With("worker", worker),
	}
}

// LogOpen logs opening a matrix file.
func (l *Logger) LogOpen(ctx context.Context, path string, rows, windows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open matrix failed",
			"path", path,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "matrix opened",
		"path", path,
		"rows", rows,
		"windows", windows,
	)
}

// LogFinish logs a completed matrix write.
func (l *Logger) LogFinish(ctx context.Context, path string, rows int, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "matrix write failed",
			"path", path,
			"rows", rows,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "matrix written",
		"path", path,
		"rows", rows,
		"bytes", bytes,
	)
}

// LogBatch logs a transpose batch.
func (l *Logger) LogBatch(ctx context.Context, batch, columns int, entries int64, elapsed time.Duration) {
	l.DebugContext(ctx, "transpose batch completed",
		"batch", batch,
		"columns", columns,
		"entries", entries,
		"elapsed", elapsed,
	)
}

// LogRowFailure logs a row that was skipped after a failure.
func (l *Logger) LogRowFailure(ctx context.Context, id int32, err error) {
	l.WarnContext(ctx, "row skipped",
		"row", id,
		"error", err,
	)
}

// LogRunCompleted logs the summary of a run.
func (l *Logger) LogRunCompleted(ctx context.Context, stage string, processed, failed int, elapsed time.Duration) {
	if failed > 0 {
		l.WarnContext(ctx, stage+" completed with failures",
			"processed", processed,
			"failed", failed,
			"elapsed", elapsed,
		)
		return
	}
	l.InfoContext(ctx, stage+" completed",
		"processed", processed,
		"elapsed", elapsed,
	)
}

// LogTransfer logs a blob store transfer.
func (l *Logger) LogTransfer(ctx context.Context, op, name string, raw, stored int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, op+" failed",
			"blob", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, op+" completed",
		"blob", name,
		"raw_bytes", raw,
		"stored_bytes", stored,
	)
}
