package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerWritesStructuredField(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapLogger(zap.New(core))

	log.InfoObj("fetch delivered", "fetch_result", map[string]any{"url": "http://x"})
	log.DebugObj("debug", "k", 1)

	if logs.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.Message != "fetch delivered" {
		t.Fatalf("unexpected message %q", entry.Message)
	}
	if _, ok := entry.ContextMap()["fetch_result"]; !ok {
		t.Fatalf("missing structured field: %#v", entry.ContextMap())
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("warning") != zapcore.WarnLevel {
		t.Fatalf("warning should map to warn level")
	}
	if parseLevel("bogus") != zapcore.InfoLevel {
		t.Fatalf("unknown level should default to info")
	}
}

func TestEnsureReturnsNop(t *testing.T) {
	if _, ok := Ensure(nil).(NopLogger); !ok {
		t.Fatalf("expected NopLogger for nil input")
	}
}
