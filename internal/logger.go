package internal

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

func NewLogger(w io.Writer, env string, level string) zerolog.Logger {
	l, err := zerolog.ParseLevel(level)
	if err != nil || l == zerolog.NoLevel {
		l = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	// JSON in production, human-readable console output everywhere else.
	if env != "prod" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	return zerolog.New(w).Level(l).With().Timestamp().Logger()
}
