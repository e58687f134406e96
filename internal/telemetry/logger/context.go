package logger

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	requestIDKey
	sagaIDKey
	runIDKey
)

// WithLogger stores l in ctx.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored in ctx, or Default.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// L returns the context logger bound to ctx. Records it writes carry the
// request, saga and run ids found in ctx.
func L(ctx context.Context) Logger {
	return FromContext(ctx).WithContext(ctx)
}

// WithRequestID tags ctx with the id of the request being served.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request id, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithSagaID tags ctx with the saga being operated on.
func WithSagaID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, sagaIDKey, id)
}

// SagaIDFromContext returns the saga id, if any.
func SagaIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(sagaIDKey).(uuid.UUID)
	return id, ok
}

// WithRunID tags ctx with the soak run it belongs to.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext returns the soak run id, or "".
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// contextHandler adds the correlation ids of the record's context.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if id := RunIDFromContext(ctx); id != "" {
			r.AddAttrs(slog.String("run_id", id))
		}
		if id := RequestIDFromContext(ctx); id != "" {
			r.AddAttrs(slog.String("request_id", id))
		}
		if id, ok := SagaIDFromContext(ctx); ok {
			r.AddAttrs(slog.String("saga_id", id.String()))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}
