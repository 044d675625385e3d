// Package ctxlog carries a slog.Logger through context.Context so every
// component logs through an injected handle instead of a process-wide
// implicit logger.
package ctxlog

import (
	"context"
	"log/slog"
)

// key is an unexported type so no other package can collide with our
// context key.
type key struct{}

var loggerKey = key{}

// WithLogger returns a new context with the provided logger embedded.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the slog.Logger from a context. If none was embedded
// it returns slog.Default, so library code can always log without a nil
// check.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
