package utils

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogger configures the global zerolog logger.
func SetupLogger(level string, pretty bool) {
	SetupLoggerTo(os.Stderr, level, pretty)
}

// SetupLoggerTo is SetupLogger with an explicit sink.
func SetupLoggerTo(w io.Writer, level string, pretty bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "2006-01-02 15:04:05.000"}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

// BotLogf provides centralized formatted logging tagged with an area
func BotLogf(area string, format string, args ...interface{}) {
	log.Info().Str("area", area).Msg(fmt.Sprintf(format, args...))
}

// BotErrorf logs a failure tagged with an area
func BotErrorf(area string, err error, format string, args ...interface{}) {
	log.Error().Err(err).Str("area", area).Msg(fmt.Sprintf(format, args...))
}
