package quadgo

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with quadgo-specific helpers.
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
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithID adds an id field to the logger (useful for tagging operations).
func (l *Logger) WithID(id uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("id", id),
	}
}

// LogInsert logs an insert operation.
func (l *Logger) LogInsert(id uint64, err error) {
	if err != nil {
		l.Error("insert failed",
			"id", id,
			"error", err,
		)
	} else {
		l.Debug("insert completed",
			"id", id,
		)
	}
}

// LogBulkInsert logs a bulk insert operation.
func (l *Logger) LogBulkInsert(attempted, inserted int, err error) {
	if err != nil {
		l.Warn("bulk insert stopped early",
			"attempted", attempted,
			"inserted", inserted,
			"error", err,
		)
	} else {
		l.Info("bulk insert completed",
			"count", inserted,
		)
	}
}

// LogQuery logs a range query.
func (l *Logger) LogQuery(found int) {
	l.Debug("query completed",
		"results", found,
	)
}

// LogKNN logs a nearest-neighbor search.
func (l *Logger) LogKNN(k, found int, err error) {
	if err != nil {
		l.Error("knn search failed",
			"k", k,
			"error", err,
		)
	} else {
		l.Debug("knn search completed",
			"k", k,
			"results", found,
		)
	}
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(id uint64, err error) {
	if err != nil {
		l.Error("delete failed",
			"id", id,
			"error", err,
		)
	} else {
		l.Debug("delete completed",
			"id", id,
		)
	}
}

// LogUpdate logs an update operation.
func (l *Logger) LogUpdate(id uint64, err error) {
	if err != nil {
		l.Error("update failed",
			"id", id,
			"error", err,
		)
	} else {
		l.Debug("update completed",
			"id", id,
		)
	}
}

// LogSnapshot logs a snapshot save or load.
func (l *Logger) LogSnapshot(name string, err error) {
	if err != nil {
		l.Error("snapshot failed",
			"name", name,
			"error", err,
		)
	} else {
		l.Info("snapshot completed",
			"name", name,
		)
	}
}
