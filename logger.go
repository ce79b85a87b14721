package escomatch

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/escomatch/taxonomy"
)

// Logger wraps slog.Logger with escomatch-specific context.
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

// WithModel adds a model field to the logger.
func (l *Logger) WithModel(model string) *Logger {
	return &Logger{
		Logger: l.Logger.With("model", model),
	}
}

// WithCategory adds a category field to the logger.
func (l *Logger) WithCategory(category taxonomy.Category) *Logger {
	return &Logger{
		Logger: l.Logger.With("category", string(category)),
	}
}

// LogExtract logs one extraction run.
func (l *Logger) LogExtract(ctx context.Context, category taxonomy.Category, docs int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "extract failed",
			"category", string(category),
			"documents", docs,
			"duration", duration,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "extract completed",
			"category", string(category),
			"documents", docs,
			"duration", duration,
		)
	}
}

// LogReferenceBuild logs the computation of a reference embedding set.
func (l *Logger) LogReferenceBuild(ctx context.Context, category taxonomy.Category, entities int, duration time.Duration) {
	l.InfoContext(ctx, "reference embeddings built",
		"category", string(category),
		"entities", entities,
		"duration", duration,
	)
}

// LogPersistFailure logs a failed cache write. The extraction that triggered
// the build still succeeds; only the reuse across runs is lost.
func (l *Logger) LogPersistFailure(ctx context.Context, key string, err error) {
	l.WarnContext(ctx, "reference cache not persisted",
		"key", key,
		"error", err,
	)
}

// LogCacheReset logs an explicit cache invalidation.
func (l *Logger) LogCacheReset(ctx context.Context, model string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "cache reset failed",
			"model", model,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "cache reset",
			"model", model,
		)
	}
}
