package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoggerImplementations(t *testing.T) {
	var _ Logger = (*SlogAdapter)(nil)
	var _ Logger = (*ChatLogger)(nil)
	var _ Logger = NoOpLogger{}
}

func TestChatLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewChatLogger(LoggerConfig{Level: LogLevelWarn, Output: &buf})

	l.Debug("debug msg")
	l.Info("info msg")
	l.Warn("warn msg")

	out := buf.String()
	if strings.Contains(out, "debug msg") || strings.Contains(out, "info msg") {
		t.Fatalf("expected debug/info suppressed, got: %s", out)
	}
	if !strings.Contains(out, "warn msg") {
		t.Fatalf("expected warn logged, got: %s", out)
	}
}

func TestChatLoggerContext(t *testing.T) {
	var buf bytes.Buffer
	l := NewChatLogger(LoggerConfig{Level: LogLevelDebug, Output: &buf})

	l.WithComponent("executor").WithSession("sess-1", "mod-1").Info("turn started")

	out := buf.String()
	for _, want := range []string{"executor", "sess-1", "mod-1", "turn started"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestChatLoggerLogTurn(t *testing.T) {
	var buf bytes.Buffer
	l := NewChatLogger(LoggerConfig{Level: LogLevelDebug, Output: &buf})

	l.LogTurn("asst_1", 120*time.Millisecond, false, errors.New("boom"))

	out := buf.String()
	if !strings.Contains(out, "Turn failed") || !strings.Contains(out, "boom") {
		t.Fatalf("unexpected turn log: %s", out)
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   LogLevelDebug,
		"INFO":    LogLevelInfo,
		" warn ":  LogLevelWarn,
		"warning": LogLevelWarn,
		"error":   LogLevelError,
		"verbose": LogLevelInfo,
		"":        LogLevelInfo,
	}
	for in, want := range cases {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
