// Package log carries a *slog.Logger through contexts so request- or
// record-scoped attributes follow the work they describe.
package log

import (
	"context"
	"log/slog"
	"os"
)

var (
	// zero value of LevelVar is slog.LevelInfo
	defaultLogLevel slog.LevelVar
	defaultLogger   = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     &defaultLogLevel,
	}))
)

type contextKey struct{}

var loggerKey = contextKey{}

// Ctx returns the logger stored in ctx, or the default logger if none is set.
func Ctx(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return defaultLogger
}

// With returns a child context carrying logger.
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// SetDefaultLogLevel adjusts the level of the default logger.
func SetDefaultLogLevel(level slog.Level) {
	defaultLogLevel.Set(level)
}
