package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func initFileLogger(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.log")
	if err := Init(&Config{Level: "info", Format: "json", Output: path}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { _ = Init(DefaultConfig()) })
	return path
}

func readLastEntry(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var entry map[string]interface{}
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("parse log entry: %v", err)
	}
	return entry
}

func TestWithContextCarriesCorrelationID(t *testing.T) {
	path := initFileLogger(t)

	ctx := ContextWithCorrelationID(context.Background(), "corr-42")
	WithContext(ctx).Info("turn received")

	entry := readLastEntry(t, path)
	if entry["correlation_id"] != "corr-42" {
		t.Errorf("correlation_id = %v, want corr-42", entry["correlation_id"])
	}
}

func TestWithContextWithoutIDAddsNothing(t *testing.T) {
	path := initFileLogger(t)

	WithContext(context.Background()).Info("plain")

	entry := readLastEntry(t, path)
	if _, present := entry["correlation_id"]; present {
		t.Error("correlation_id must be absent when the context carries none")
	}
}

func TestWithComponent(t *testing.T) {
	path := initFileLogger(t)

	WithComponent("gateway").Info("listening")

	entry := readLastEntry(t, path)
	if entry["component"] != "gateway" {
		t.Errorf("component = %v, want gateway", entry["component"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
