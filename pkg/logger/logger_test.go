package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { Init(""); SetOutput(&buf) })

	Init("warn")
	if got := LevelString(); got != "warn" {
		t.Fatalf("LevelString = %q, want warn", got)
	}

	Debugf("debug %d", 1)
	Infof("info %d", 2)
	Warnf("warn %d", 3)
	Errorf("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Fatalf("below-level messages should be suppressed, got: %q", out)
	}
	if !strings.Contains(out, "warn 3") || !strings.Contains(out, "error 4") {
		t.Fatalf("warn/error messages missing, got: %q", out)
	}
	if !strings.Contains(out, "[WARN]") {
		t.Fatalf("expected level header in output, got: %q", out)
	}
}

func TestInit_UnknownLevelDefaultsToInfo(t *testing.T) {
	Init("bogus")
	if got := LevelString(); got != "info" {
		t.Fatalf("LevelString = %q, want info", got)
	}
}
