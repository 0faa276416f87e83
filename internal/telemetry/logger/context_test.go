package logger

import (
	"context"
	"testing"
)

func TestWithLogger(t *testing.T) {
	l, _ := newJSONLogger(t, "info")
	ctx := WithLogger(context.Background(), l)

	if got := FromContext(ctx); got != l {
		t.Error("FromContext() did not return the stored logger")
	}
}

func TestFromContext_Default(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext() returned nil for empty context")
	}
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	if RequestIDFromContext(ctx) != "" || CommandFromContext(ctx) != "" {
		t.Fatal("empty context should carry no values")
	}

	ctx = WithRequestID(ctx, "01HQ000000000000000000000")
	ctx = WithCommand(ctx, "realm list")
	if id := RequestIDFromContext(ctx); id != "01HQ000000000000000000000" {
		t.Errorf("RequestIDFromContext() = %q", id)
	}
	if cmd := CommandFromContext(ctx); cmd != "realm list" {
		t.Errorf("CommandFromContext() = %q", cmd)
	}
}

func TestL(t *testing.T) {
	tests := []struct {
		name  string
		ctx   func(context.Context) context.Context
		field string
		want  any
	}{
		{
			name:  "request id",
			ctx:   func(ctx context.Context) context.Context { return WithRequestID(ctx, "req-42") },
			field: "request_id",
			want:  "req-42",
		},
		{
			name:  "command",
			ctx:   func(ctx context.Context) context.Context { return WithCommand(ctx, "login") },
			field: "command",
			want:  "login",
		},
		{
			name:  "nothing",
			ctx:   func(ctx context.Context) context.Context { return ctx },
			field: "command",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, buf := newJSONLogger(t, "info")
			ctx := tt.ctx(WithLogger(context.Background(), l))
			L(ctx).Info("request sent")

			entry := decodeEntry(t, buf)
			if entry[tt.field] != tt.want {
				t.Errorf("%s = %v, want %v", tt.field, entry[tt.field], tt.want)
			}
		})
	}
}

func TestEnrich_KeepsBaseLogger(t *testing.T) {
	base, buf := newJSONLogger(t, "info")
	other, otherBuf := newJSONLogger(t, "info")

	ctx := WithLogger(WithCommand(context.Background(), "status"), other)
	Enrich(base, ctx).Info("checked")

	if otherBuf.Len() != 0 {
		t.Errorf("context logger used instead of base: %s", otherBuf.String())
	}
	if entry := decodeEntry(t, buf); entry["command"] != "status" {
		t.Errorf("command = %v, want status", entry["command"])
	}
}
