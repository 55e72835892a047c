package debug

import (
	"bytes"
	"strings"
	"testing"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	prevEnabled, prevWarnings, prevLogger := enabled, warnings, logger
	t.Cleanup(func() {
		enabled, warnings, logger = prevEnabled, prevWarnings, prevLogger
	})
	var buf bytes.Buffer
	SetOutput(&buf)
	return &buf
}

func TestLogDisabledIsSilent(t *testing.T) {
	buf := capture(t)
	SetEnabled(false)
	warnings = false

	Log("hidden %d", 1)
	Warn("hidden warning")
	LogEnterExit("hidden")()

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestLogEnabled(t *testing.T) {
	buf := capture(t)
	SetEnabled(true)

	Log("loaded %d channels", 6)
	LogIf(false, "skipped")

	out := buf.String()
	if !strings.Contains(out, "loaded 6 channels") {
		t.Errorf("missing log line: %q", out)
	}
	if strings.Contains(out, "skipped") {
		t.Errorf("LogIf(false) wrote output: %q", out)
	}
	if !strings.Contains(out, prefix) {
		t.Errorf("missing prefix: %q", out)
	}
}

func TestWarnWithoutDebug(t *testing.T) {
	buf := capture(t)
	SetEnabled(false)
	SetWarnings(true)

	Warn("value %v outside domain", 42)
	Log("not a warning")

	out := buf.String()
	if !strings.Contains(out, "WARN value 42 outside domain") {
		t.Errorf("expected warning, got %q", out)
	}
	if strings.Contains(out, "not a warning") {
		t.Errorf("Log wrote while debug disabled: %q", out)
	}
}
