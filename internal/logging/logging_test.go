package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, DefaultOptions())

	logger.Info("hidden")
	logger.Warn("delete failed", "task_id", "42")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info should be filtered at warn level, got %q", out)
	}
	if !strings.Contains(out, "delete failed") || !strings.Contains(out, "task_id=42") {
		t.Errorf("expected warn line with fields, got %q", out)
	}
	if !strings.Contains(out, Prefix) {
		t.Errorf("expected prefix %q, got %q", Prefix, out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		debug bool
		want  log.Level
	}{
		{"", true, log.DebugLevel},
		{"error", true, log.DebugLevel},
		{"debug", false, log.DebugLevel},
		{"info", false, log.InfoLevel},
		{"error", false, log.ErrorLevel},
		{"", false, log.WarnLevel},
		{"verbose", false, log.WarnLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.name, tt.debug); got != tt.want {
			t.Errorf("ParseLevel(%q, %v) = %v, want %v", tt.name, tt.debug, got, tt.want)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Options{Level: log.DebugLevel})
	ctx := WithContext(context.Background(), logger)

	FromContext(ctx).Debug("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("expected logger from context to be used, got %q", buf.String())
	}

	// No logger stored: must not panic and must not write anywhere visible.
	FromContext(context.Background()).Error("dropped")
}
