package vecscan

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger is the structured logger used by Table and VectorMap.
//
// Successful adds and queries log at debug level, persistence at info level
// and every failure at error level. Records carry an "op" attribute; a
// table's records also carry its "dimension".
type Logger struct {
	*slog.Logger
}

// NewLogger wraps handler. A nil handler writes text records at info level
// to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger writes JSON records at or above level to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return newStreamLogger(os.Stderr, level, true)
}

// NewTextLogger writes logfmt records at or above level to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return newStreamLogger(os.Stderr, level, false)
}

func newStreamLogger(w io.Writer, level slog.Level, json bool) *Logger {
	opts := &slog.HandlerOptions{Level: level}
	if json {
		return NewLogger(slog.NewJSONHandler(w, opts))
	}
	return NewLogger(slog.NewTextHandler(w, opts))
}

// NoopLogger discards everything.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// WithDimension tags records with the table dimension.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{Logger: l.With("dimension", dim)}
}

func (l *Logger) record(ctx context.Context, level slog.Level, op string, err error, attrs ...any) {
	if err != nil {
		level = slog.LevelError
		attrs = append(attrs, "error", err)
	}
	if !l.Enabled(ctx, level) {
		return
	}
	l.Log(ctx, level, op, append([]any{"op", op}, attrs...)...)
}

// LogAdd records Add (borrowed=false) or Borrow (borrowed=true).
func (l *Logger) LogAdd(ctx context.Context, row int, borrowed bool, err error) {
	if err != nil {
		l.record(ctx, slog.LevelDebug, "add", err, "borrowed", borrowed)
		return
	}
	l.record(ctx, slog.LevelDebug, "add", nil, "row", row, "borrowed", borrowed)
}

// LogQuery records a top-n search and whether the cache answered it.
func (l *Logger) LogQuery(ctx context.Context, n, found int, cached bool, err error) {
	if err != nil {
		l.record(ctx, slog.LevelDebug, "query", err, "n", n)
		return
	}
	l.record(ctx, slog.LevelDebug, "query", nil, "n", n, "results", found, "cached", cached)
}

// LogSave records a save of entries rows or keys totalling bytes.
func (l *Logger) LogSave(ctx context.Context, entries int, bytes int64, err error) {
	l.record(ctx, slog.LevelInfo, "save", err, "entries", entries, "bytes", bytes)
}

// LogLoad records a load. entries and bytes describe what was adopted.
func (l *Logger) LogLoad(ctx context.Context, entries int, bytes int64, err error) {
	if err != nil {
		l.record(ctx, slog.LevelInfo, "load", err)
		return
	}
	l.record(ctx, slog.LevelInfo, "load", nil, "entries", entries, "bytes", bytes)
}
