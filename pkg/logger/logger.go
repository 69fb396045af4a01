package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the service logger. Output is JSON by default; format "console"
// switches to the human-readable writer for local development.
func New(service, level, format string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var output = os.Stdout
	var writer = zerolog.New(output)
	if format == "console" {
		writer = zerolog.New(zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"})
	}

	return writer.
		With().
		Timestamp().
		Str("service", service).
		Logger().
		Level(ParseLevel(level))
}

// ParseLevel maps a config string to a zerolog level, defaulting to info.
func ParseLevel(value string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
