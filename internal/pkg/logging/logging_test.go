package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/encinapp/encinapp/internal/pkg/logging"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := logging.ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, "encinapp-api", "info", "json")

	logger.Debug("hidden")
	logger.Info("map refreshed", "state", "ready")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 record, got %d: %s", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec["service"] != "encinapp-api" || rec["state"] != "ready" || rec["msg"] != "map refreshed" {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	logging.New(&buf, "", "debug", "text").Debug("hello", "k", 1)

	if !strings.Contains(buf.String(), "msg=hello") || !strings.Contains(buf.String(), "k=1") {
		t.Errorf("unexpected text output %q", buf.String())
	}
}

func TestNew_RequestIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, "encinapp-api", "info", "json").With("component", "map")

	ctx := logging.WithRequestID(context.Background(), "req-42")
	logger.InfoContext(ctx, "refresh")
	logger.Info("no context")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 records, got %d", len(lines))
	}
	var first, second map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first["request_id"] != "req-42" || first["component"] != "map" {
		t.Errorf("unexpected record %v", first)
	}
	if _, ok := second["request_id"]; ok {
		t.Errorf("record without context should have no request_id: %v", second)
	}
	if logging.RequestID(context.Background()) != "" {
		t.Error("expected empty request id")
	}
}
