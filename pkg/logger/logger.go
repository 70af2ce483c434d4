// Package logger builds the service-wide zerolog logger. One logger is
// constructed at startup and passed down through constructors; subsystems
// derive their own with .With().Str("component"/"repo"/"handler"/"job", ...).
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const serviceName = "wheeltrack"

// Config holds logger configuration
type Config struct {
	Level  string // trace, debug, info, warn, error
	Pretty bool   // console writer for local development
}

// New creates the root structured logger. Unknown or empty levels fall back
// to info rather than failing startup.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer = os.Stdout
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		}
	}

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// SetGlobalLogger sets the package-level logger, for code that has no logger
// handed to it (zerolog/log fallbacks in third-party middleware).
func SetGlobalLogger(l zerolog.Logger) {
	log.Logger = l
}
