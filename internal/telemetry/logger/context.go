package logger

import "context"

type contextKey int

const (
	loggerKey contextKey = iota
	requestIDKey
	commandKey
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the context's logger, or Default.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithRequestID tags the context with the X-Request-ID of an API call.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithCommand tags the context with the CLI command being run, e.g.
// "account game new".
func WithCommand(ctx context.Context, command string) context.Context {
	return context.WithValue(ctx, commandKey, command)
}

// CommandFromContext returns the command name, or "".
func CommandFromContext(ctx context.Context) string {
	cmd, _ := ctx.Value(commandKey).(string)
	return cmd
}

// Enrich adds the command and request ID found in ctx to l.
func Enrich(l Logger, ctx context.Context) Logger {
	var args []any
	if cmd := CommandFromContext(ctx); cmd != "" {
		args = append(args, "command", cmd)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		args = append(args, "request_id", id)
	}
	if len(args) == 0 {
		return l.WithContext(ctx)
	}
	return l.With(args...).WithContext(ctx)
}

// L returns the context's logger enriched with the command and request ID.
func L(ctx context.Context) Logger {
	return Enrich(FromContext(ctx), ctx)
}
