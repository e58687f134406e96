package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) != Default() {
		t.Error("FromContext() without a logger should return Default()")
	}

	l, err := New(Config{Output: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := FromContext(WithLogger(context.Background(), l)); got != l {
		t.Error("FromContext() did not return the stored logger")
	}
}

func TestContextIDs(t *testing.T) {
	ctx := context.Background()
	if RequestIDFromContext(ctx) != "" || RunIDFromContext(ctx) != "" {
		t.Error("empty context returned an id")
	}
	if _, ok := SagaIDFromContext(ctx); ok {
		t.Error("empty context returned a saga id")
	}

	id := uuid.New()
	ctx = WithRunID(WithSagaID(WithRequestID(ctx, "req-1"), id), "run-1")

	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("RequestIDFromContext() = %q", got)
	}
	if got, ok := SagaIDFromContext(ctx); !ok || got != id {
		t.Errorf("SagaIDFromContext() = %v, %v", got, ok)
	}
	if got := RunIDFromContext(ctx); got != "run-1" {
		t.Errorf("RunIDFromContext() = %q", got)
	}
}

func TestL_AttachesContextIDs(t *testing.T) {
	sagaID := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	tests := []struct {
		name string
		ctx  func(context.Context) context.Context
		want map[string]string
	}{
		{
			name: "no ids",
			ctx:  func(ctx context.Context) context.Context { return ctx },
			want: map[string]string{},
		},
		{
			name: "request id",
			ctx:  func(ctx context.Context) context.Context { return WithRequestID(ctx, "req-42") },
			want: map[string]string{"request_id": "req-42"},
		},
		{
			name: "saga and run ids",
			ctx: func(ctx context.Context) context.Context {
				return WithSagaID(WithRunID(ctx, "01hv"), sagaID)
			},
			want: map[string]string{"saga_id": sagaID.String(), "run_id": "01hv"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(Config{Output: &buf})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			ctx := tt.ctx(WithLogger(context.Background(), l))

			L(ctx).With("component", "test").Info("event")

			recs := decode(t, &buf)
			if len(recs) != 1 {
				t.Fatalf("got %d records, want 1", len(recs))
			}
			for _, key := range []string{"request_id", "saga_id", "run_id"} {
				want, set := tt.want[key]
				got, present := recs[0][key]
				if present != set || (set && got != want) {
					t.Errorf("%s = %v (present %v), want %q (present %v)", key, got, present, want, set)
				}
			}
			if recs[0]["component"] != "test" {
				t.Errorf("component = %v, want test", recs[0]["component"])
			}
		})
	}
}

func TestL_ContextBoundAfterWith(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// A logger derived before the id was set still sees ids through
	// WithContext.
	base := l.With("component", "subscription")
	ctx := WithRequestID(context.Background(), "req-7")
	base.WithContext(ctx).Info("applied")

	recs := decode(t, &buf)
	if len(recs) != 1 || recs[0]["request_id"] != "req-7" {
		t.Errorf("records = %v, want request_id req-7", recs)
	}
}
