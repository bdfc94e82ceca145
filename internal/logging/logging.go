// Package logging builds the single process-wide zerolog.Logger this
// server threads down through every component as a field — never a
// package-level global — matching how machinectl's own actor.Runner and
// serial.Worker already take a zerolog.Logger constructor argument.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds a logger at level, writing human-readable console output
// when pretty is true (a development terminal) or newline-delimited
// JSON otherwise (production, piped to a log collector).
func New(level string, pretty bool) zerolog.Logger {
	var w io.Writer = os.Stderr
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(parseLevel(level))
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "":
		return zerolog.InfoLevel
	default:
		lvl, err := zerolog.ParseLevel(level)
		if err != nil {
			return zerolog.InfoLevel
		}
		return lvl
	}
}
