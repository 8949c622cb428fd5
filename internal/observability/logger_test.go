package observability

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_LevelMapping(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		level        string
		debugEnabled bool
	}{
		{name: "debug level", level: "debug", debugEnabled: true},
		{name: "warn level", level: " WARN ", debugEnabled: false},
		{name: "empty level defaults to info", level: "", debugEnabled: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			logger, err := NewLogger(tc.level)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if logger == nil {
				t.Fatal("logger should not be nil")
			}

			if got := logger.Core().Enabled(zapcore.DebugLevel); got != tc.debugEnabled {
				t.Fatalf("debug enabled=%v, want=%v", got, tc.debugEnabled)
			}
		})
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger("chatty")
	if err == nil {
		t.Fatal("expected error for invalid level")
	}
	if logger != nil {
		t.Fatal("expected nil logger for invalid level")
	}
}

func TestContextIDs(t *testing.T) {
	t.Parallel()

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithRunID(ctx, "run-1")

	if got, ok := RequestIDFromContext(ctx); !ok || got != "req-1" {
		t.Fatalf("request id = %q/%v, want req-1", got, ok)
	}
	if got, ok := RunIDFromContext(ctx); !ok || got != "run-1" {
		t.Fatalf("run id = %q/%v, want run-1", got, ok)
	}

	if _, ok := RunIDFromContext(context.Background()); ok {
		t.Fatal("expected run id to be missing")
	}
	if _, ok := RequestIDFromContext(WithRequestID(context.Background(), "")); ok {
		t.Fatal("empty request id should be treated as missing")
	}
}

func TestWithContextLogger(t *testing.T) {
	t.Parallel()

	core, recorded := observer.New(zapcore.InfoLevel)
	baseLogger := zap.New(core)

	ctx := WithRunID(WithRequestID(context.Background(), "req-9"), "run-9")
	WithContextLogger(baseLogger, ctx).Info("analysis started")

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("entries=%d, want=1", len(entries))
	}

	fields := entries[0].ContextMap()
	if fields["requestId"] != "req-9" {
		t.Fatalf("requestId=%v, want req-9", fields["requestId"])
	}
	if fields["runId"] != "run-9" {
		t.Fatalf("runId=%v, want run-9", fields["runId"])
	}
}

func TestWithContextLogger_NoIDs(t *testing.T) {
	t.Parallel()

	core, recorded := observer.New(zapcore.InfoLevel)
	WithContextLogger(zap.New(core), context.Background()).Info("plain")

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("entries=%d, want=1", len(entries))
	}
	if len(entries[0].ContextMap()) != 0 {
		t.Fatalf("expected no context fields, got %v", entries[0].ContextMap())
	}
}

func TestWithContextLogger_NilLogger(t *testing.T) {
	t.Parallel()

	if got := WithContextLogger(nil, context.Background()); got != nil {
		t.Fatal("expected nil logger")
	}
}
