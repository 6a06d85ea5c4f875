package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func newTestLogger(buf *bytes.Buffer) *Logger {
	logger := New("test")
	logger.SetWriter(buf)
	logger.SetLevel(DEBUG)
	return logger
}

func TestLoggerBasic(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	logger.Info("hello %s", "world")

	output := buf.String()
	if !strings.Contains(output, "[INFO ]") {
		t.Errorf("expected INFO level, got: %s", output)
	}
	if !strings.Contains(output, "test:") {
		t.Errorf("expected prefix 'test:', got: %s", output)
	}
	if !strings.Contains(output, "hello world") {
		t.Errorf("expected message 'hello world', got: %s", output)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)
	logger.SetLevel(WARN)

	logger.Debug("debug message")
	logger.Info("info message")
	if buf.Len() != 0 {
		t.Errorf("expected DEBUG and INFO to be filtered, got: %s", buf.String())
	}

	logger.Warn("warn message")
	logger.Error("error message")
	output := buf.String()
	if !strings.Contains(output, "warn message") || !strings.Contains(output, "error message") {
		t.Errorf("expected WARN and ERROR to pass, got: %s", output)
	}
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	logger.WithFields(Fields{"counts": 42, "dir": "cw"}).Info("pulse")

	output := buf.String()
	if !strings.Contains(output, "counts=42") {
		t.Errorf("expected counts field, got: %s", output)
	}
	if !strings.Contains(output, "dir=cw") {
		t.Errorf("expected dir field, got: %s", output)
	}
}

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)
	logger.SetFormat(FormatJSON)

	logger.WithField("line", 17).Warn("decode stall")

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if record["level"] != "WARN" {
		t.Errorf("expected level WARN, got %v", record["level"])
	}
	if record["component"] != "test" {
		t.Errorf("expected component test, got %v", record["component"])
	}
	if record["msg"] != "decode stall" {
		t.Errorf("expected msg 'decode stall', got %v", record["msg"])
	}
	if record["line"] != float64(17) {
		t.Errorf("expected line field 17, got %v", record["line"])
	}
}

func TestWithPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	sub := logger.WithPrefix("gpio")
	sub.Info("line requested")

	if !strings.Contains(buf.String(), "test.gpio:") {
		t.Errorf("expected nested prefix, got: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want LogLevel
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"warning", WARN},
		{"error", ERROR},
		{"bogus", INFO},
	}
	for _, c := range cases {
		if got := ParseLevel(c.in); got != c.want {
			t.Errorf("ParseLevel(%q) should be %v, got %v", c.in, c.want, got)
		}
	}
}
