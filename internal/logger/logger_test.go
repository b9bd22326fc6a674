package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"WARNING", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"WARN", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"err", slog.LevelError},
		{"invalid", slog.LevelInfo}, // Default to INFO
		{"", slog.LevelInfo},        // Default to INFO
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config.Level != "INFO" {
		t.Errorf("Default level = %q, want %q", config.Level, "INFO")
	}
	if !config.ConsoleEnabled {
		t.Error("Default ConsoleEnabled = false, want true")
	}
	if config.FileEnabled {
		t.Error("Default FileEnabled = true, want false")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "ERROR")
	t.Setenv("LOG_CONSOLE_FORMAT", "json")
	t.Setenv("LOG_FILE_ENABLED", "true")
	t.Setenv("LOG_FILE_PATH", "/custom/path.log")

	config := DefaultConfig()
	ApplyEnv(&config)

	if config.Level != "ERROR" {
		t.Errorf("Level = %q, want %q (from env var)", config.Level, "ERROR")
	}
	if config.ConsoleFormat != "json" {
		t.Errorf("ConsoleFormat = %q, want %q (from env var)", config.ConsoleFormat, "json")
	}
	if !config.FileEnabled {
		t.Error("FileEnabled = false, want true (from env var)")
	}
	if config.FilePath != "/custom/path.log" {
		t.Errorf("FilePath = %q, want %q (from env var)", config.FilePath, "/custom/path.log")
	}
}

func TestNewTextConsole(t *testing.T) {
	var buf bytes.Buffer

	log, closeFn, err := New(DefaultConfig(), &buf)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer closeFn()

	log.Info("Test message", "key", "value")
	log.Debug("This should not appear")

	output := buf.String()
	if !strings.Contains(output, "Test message") {
		t.Errorf("Output missing INFO message: %s", output)
	}
	if !strings.Contains(output, "key=value") {
		t.Errorf("Output missing structured field: %s", output)
	}
	if strings.Contains(output, "This should not appear") {
		t.Errorf("Output contains DEBUG message when level is INFO: %s", output)
	}
}

func TestNewJSONConsole(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.ConsoleFormat = "json"

	log, closeFn, err := New(config, &buf)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer closeFn()

	log.Info("JSON test", "field1", "value1", "field2", 42)

	output := buf.String()
	if !strings.Contains(output, `"msg":"JSON test"`) {
		t.Errorf("Output missing JSON message field: %s", output)
	}
	if !strings.Contains(output, `"field2":42`) {
		t.Errorf("Output missing numeric JSON field: %s", output)
	}
}

func TestNewConsoleAndFile(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.FileEnabled = true
	config.FileFormat = "json"
	config.FilePath = filepath.Join(t.TempDir(), "proxy.log")

	log, closeFn, err := New(config, &buf)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	log.With("session", "s-1").Warn("both outputs")
	if err := closeFn(); err != nil {
		t.Fatalf("close error: %v", err)
	}

	if !strings.Contains(buf.String(), "both outputs") {
		t.Errorf("console output missing message: %s", buf.String())
	}

	data, err := os.ReadFile(config.FilePath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &rec); err != nil {
		t.Fatalf("file output is not JSON: %v (%s)", err, data)
	}
	if rec["msg"] != "both outputs" || rec["session"] != "s-1" {
		t.Errorf("file record = %v", rec)
	}
}

func TestNewNoOutputsFallsBackToConsole(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.ConsoleEnabled = false

	log, closeFn, err := New(config, &buf)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer closeFn()

	log.Info("fallback")
	if !strings.Contains(buf.String(), "fallback") {
		t.Errorf("expected fallback console output, got %q", buf.String())
	}
}
