package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentStorage, Output: &buf})

	logger.InfoContext(context.Background(), "hello", FieldTransactionID, 7)
	logger.DebugContext(context.Background(), "hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if rec[FieldComponent] != ComponentStorage {
		t.Errorf("component = %v", rec[FieldComponent])
	}
	if rec[FieldTransactionID] != float64(7) {
		t.Errorf("transaction_id = %v", rec[FieldTransactionID])
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()).Component(); got != "unknown" {
		t.Errorf("fallback component = %q", got)
	}

	logger := New(Config{Component: ComponentHTTP, Output: &bytes.Buffer{}})
	ctx := context.WithValue(context.Background(), LoggerContextKey, logger)
	if FromContext(ctx) != logger {
		t.Error("logger stored in context not returned")
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: "text", Output: &buf}))

	sl.LogTrigger(context.Background(), "filter", "Food", "2024-01-01", "", 3)
	sl.LogError(context.Background(), "boom", errors.New("disk full"), ComponentStorage, OpList, nil)

	out := buf.String()
	for _, want := range []string{"trigger=filter", "filter_category=Food", "start_date=2024-01-01", "rows=3", "error=\"disk full\"", "operation=list"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "end_date") {
		t.Error("empty end date should be omitted")
	}
}
