/*
Package logging wires a single zerolog.Logger for the process, matching
aristath-sentinel's logging setup: console-pretty output by default,
JSON when running under a process supervisor.
*/
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process-wide logger. format is "json" or "console"
// (default); level is a zerolog level name ("debug", "info", "warn",
// "error"), defaulting to "info" on anything unrecognized.
func New(format, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var writer io.Writer = os.Stderr
	if strings.ToLower(format) != "json" {
		writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	return zerolog.New(writer).Level(lvl).With().Timestamp().Logger()
}
