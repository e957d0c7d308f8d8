package logging

import (
	"log/slog"
	"testing"

	"github.com/handsense/handsense-core/internal/infrastructure/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNew_DoesNotPanic(t *testing.T) {
	cfgs := []config.LoggingConfig{
		{Level: "debug", Format: "json", Output: "stdout"},
		{Level: "info", Format: "text", Output: "stderr"},
		{Level: "", Format: "", Output: ""},
	}

	for _, cfg := range cfgs {
		log := New(cfg, "test")
		if log == nil {
			t.Fatal("New() returned nil")
		}
		log.Info("test message", "key", "value")
	}
}

func TestWith_ReturnsNewLogger(t *testing.T) {
	base := Default()
	child := base.With("component", "test")

	if child == nil {
		t.Fatal("With() returned nil")
	}
	if child == base {
		t.Error("With() should return a new logger instance")
	}
}
