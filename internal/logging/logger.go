package logging

import (
	"io"
	"strings"
	"time"

	clog "github.com/charmbracelet/log"
)

// New returns a structured logger writing to w at the named level
// ("debug", "info", "warn", "error"). Unknown levels fall back to info.
func New(w io.Writer, level string) *clog.Logger {
	return clog.NewWithOptions(w, clog.Options{
		Level:           ParseLevel(level),
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "atm",
	})
}

// ParseLevel maps a level name to a charmbracelet/log level.
func ParseLevel(level string) clog.Level {
	lvl, err := clog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return clog.InfoLevel
	}
	return lvl
}
