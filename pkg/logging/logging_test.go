package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}

	for _, test := range tests {
		result := test.level.String()
		if result != test.expected {
			t.Errorf("LogLevel(%d).String() = %s, expected %s", test.level, result, test.expected)
		}
	}
}

func TestLogLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{LogLevel(999), slog.LevelInfo}, // Default for unknown
	}

	for _, test := range tests {
		result := test.level.SlogLevel()
		if result != test.expected {
			t.Errorf("LogLevel(%d).SlogLevel() = %v, expected %v", test.level, result, test.expected)
		}
	}
}

func TestInit_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, FormatText, &buf)

	Debug("Test", "this should be filtered")
	if buf.Len() != 0 {
		t.Errorf("Expected debug message to be filtered at INFO level, got: %s", buf.String())
	}

	Info("Test", "hello %s", "world")
	out := buf.String()
	if !strings.Contains(out, "hello world") {
		t.Errorf("Expected formatted message in output, got: %s", out)
	}
	if !strings.Contains(out, "subsystem=Test") {
		t.Errorf("Expected subsystem attribute in output, got: %s", out)
	}
}

func TestInit_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelDebug, FormatJSON, &buf)

	Warn("Codec", "upstream shape drift")
	out := buf.String()
	if !strings.Contains(out, `"subsystem":"Codec"`) {
		t.Errorf("Expected JSON subsystem field, got: %s", out)
	}
}

func TestError_IncludesErrorAttribute(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelDebug, FormatText, &buf)

	Error("Vault", errors.New("cipher: message authentication failed"), "decrypt failed")
	out := buf.String()
	if !strings.Contains(out, "decrypt failed") {
		t.Errorf("Expected message in output, got: %s", out)
	}
	if !strings.Contains(out, "message authentication failed") {
		t.Errorf("Expected error attribute in output, got: %s", out)
	}
}

func TestAudit(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, FormatText, &buf)

	Audit(AuditEvent{
		Action:  "code_exchange",
		Outcome: "failure",
		Subject: "user-1",
		Reason:  "verifier mismatch",
	})

	out := buf.String()
	if !strings.Contains(out, "[AUDIT] code_exchange") {
		t.Errorf("Expected audit prefix, got: %s", out)
	}
	if !strings.Contains(out, "outcome=failure") {
		t.Errorf("Expected outcome attribute, got: %s", out)
	}
}
