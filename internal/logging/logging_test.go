package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewRedactsSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Format: FormatJSON})

	logger.Info("llm call", slog.String("api_key", "sk-super-secret"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decoding log line: %v", err)
	}
	if entry["api_key"] != "[REDACTED]" {
		t.Errorf("expected api_key redacted, got %v", entry["api_key"])
	}
}

func TestWithRunIDAttachesToLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Output: &buf, Format: FormatJSON})

	ctx := NewContext(context.Background(), base)
	ctx = WithRunID(ctx, "run-123")

	FromContext(ctx).Info("processing")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decoding log line: %v", err)
	}
	if entry["run_id"] != "run-123" {
		t.Errorf("expected run_id in log entry, got %v", entry["run_id"])
	}
	if got := RunIDFromContext(ctx); got != "run-123" {
		t.Errorf("expected RunIDFromContext to return run-123, got %q", got)
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	logger := FromContext(context.Background())
	if logger == nil {
		t.Fatal("expected a non-nil default logger")
	}
}
