package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marcus/roster/internal/config"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo, "json")
	logger.Debug("hidden")
	logger.Info("sync: batch accepted", "count", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["count"] != float64(2) {
		t.Errorf("count = %v, want 2", entry["count"])
	}
}

func TestSetupWritesRotatingFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := t.TempDir()
	logger, closeFn, err := Setup(config.LogConfig{
		Level: "debug", Format: "text", File: "logs/roster.log", MaxSizeMB: 1, MaxBackups: 1,
	}, dir)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	logger.Debug("probe", "mode", "dial")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "logs", "roster.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "mode=dial") {
		t.Errorf("log file missing entry: %q", data)
	}
}

func TestSetupRejectsBadLevel(t *testing.T) {
	if _, _, err := Setup(config.LogConfig{Level: "loud"}, t.TempDir()); err == nil {
		t.Fatal("expected error")
	}
}
