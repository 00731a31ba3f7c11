package ccdbg

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with ccdbg-specific context.
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

// WithUnitig adds a unitig id field to the logger.
func (l *Logger) WithUnitig(id uint32) *Logger {
	return &Logger{
		Logger: l.Logger.With("unitig_id", id),
	}
}

// WithColor adds a color id field to the logger.
func (l *Logger) WithColor(id uint32) *Logger {
	return &Logger{
		Logger: l.Logger.With("color_id", id),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogInit logs the one-shot ColorStorage initialization pass.
func (l *Logger) LogInit(ctx context.Context, unitigs int, hashSeeds int, overflow int) {
	l.InfoContext(ctx, "color storage initialized",
		"unitigs", unitigs,
		"hash_seeds", hashSeeds,
		"overflow", overflow,
	)
}

// LogBuild logs completion of a color build pass.
func (l *Logger) LogBuild(ctx context.Context, sequences int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "color build failed",
			"sequences", sequences,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "color build completed",
			"sequences", sequences,
		)
	}
}

// LogPromotion logs a UnitigColors representation promotion.
func (l *Logger) LogPromotion(ctx context.Context, unitigID uint32, from, to string) {
	l.DebugContext(ctx, "unitig colors promoted",
		"unitig_id", unitigID,
		"from", from,
		"to", to,
	)
}

// LogJoin logs a unitig-merge color rewrite. destKm and srcKm are the two
// sides' k-mer counts before the merge.
func (l *Logger) LogJoin(ctx context.Context, destKm, srcKm uint32, err error) {
	if err != nil {
		l.ErrorContext(ctx, "color join failed",
			"dest_km", destKm,
			"src_km", srcKm,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "color join completed",
			"dest_km", destKm,
			"src_km", srcKm,
		)
	}
}

// LogSplit logs a unitig-split color extraction.
func (l *Logger) LogSplit(ctx context.Context, unitigID uint32, dist, length int) {
	l.DebugContext(ctx, "color split completed",
		"unitig_id", unitigID,
		"dist", dist,
		"length", length,
	)
}

// LogOverflow logs a unitig falling into the overflow table during init.
func (l *Logger) LogOverflow(ctx context.Context, unitigID uint32) {
	l.WarnContext(ctx, "unitig routed to overflow table",
		"unitig_id", unitigID,
	)
}

// LogSave logs a color file write.
func (l *Logger) LogSave(ctx context.Context, path string, bytesWritten int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "color file save failed",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "color file saved",
			"path", path,
			"bytes", bytesWritten,
		)
	}
}

// LogLoad logs a color file read.
func (l *Logger) LogLoad(ctx context.Context, path string, unitigs int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "color file load failed",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "color file loaded",
			"path", path,
			"unitigs", unitigs,
		)
	}
}
