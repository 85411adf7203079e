package logging

import (
	"bytes"
	"strings"
	"testing"

	clog "github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]clog.Level{
		"debug":  clog.DebugLevel,
		" WARN ": clog.WarnLevel,
		"error":  clog.ErrorLevel,
		"":       clog.InfoLevel,
		"loud":   clog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q): expected %v, got %v", in, want, got)
		}
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn")

	l.Info("card inserted")
	l.Warnf("card %s locked", "user123")

	out := buf.String()
	if strings.Contains(out, "card inserted") {
		t.Fatalf("expected info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "card user123 locked") {
		t.Fatalf("expected warning in output, got %q", out)
	}
}
