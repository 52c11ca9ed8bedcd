package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type contextKey int

const (
	loggerKey contextKey = iota
	requestIDKey
)

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}
	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return Default()
}

// WithRequestID stores the request id in ctx and adds it to the context logger.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	logger := FromContext(ctx).With().Str("request_id", requestID).Logger()
	return WithLogger(ctx, &logger)
}

// RequestID returns the request id stored in ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// FromContextOr returns the logger stored in ctx, or fallback when ctx
// carries none.
func FromContextOr(ctx context.Context, fallback *zerolog.Logger) *zerolog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
			return logger
		}
	}
	if fallback == nil {
		return Default()
	}
	return fallback
}

// WithConn adds a connection id to the context logger.
func WithConn(ctx context.Context, connID uint64) context.Context {
	logger := FromContext(ctx).With().Uint64("conn_id", connID).Logger()
	return WithLogger(ctx, &logger)
}
