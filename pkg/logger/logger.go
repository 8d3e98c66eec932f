// Package logger builds the slog loggers used across thoughtstream.
//
// CLI commands get colorized output through charmbracelet/log, the relay can
// switch to JSON for log shippers, and library code that was not handed a
// logger falls back to Nop.
package logger

import (
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

type config struct {
	level     slog.Level
	pretty    bool
	json      bool
	source    bool
	component string
	writers   []io.Writer
}

// New returns a *slog.Logger configured by opts. Without options it writes
// Info and above as slog text to stdout.
func New(opts ...Option) *slog.Logger {
	c := &config{level: slog.LevelInfo}
	for _, opt := range opts {
		opt(c)
	}

	var w io.Writer = os.Stdout
	switch len(c.writers) {
	case 0:
	case 1:
		w = c.writers[0]
	default:
		w = io.MultiWriter(c.writers...)
	}

	var h slog.Handler
	switch {
	case c.json:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: c.level, AddSource: c.source})
	case c.pretty:
		h = charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmlog.Level(c.level),
			ReportTimestamp: true,
			ReportCaller:    c.source,
		})
	default:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.level, AddSource: c.source})
	}

	l := slog.New(h)
	if c.component != "" {
		l = l.With("component", c.component)
	}
	return l
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
