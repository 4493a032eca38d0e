// Package logging builds the process-wide zerolog.Logger used by every
// seedlinkd component.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/luhtfiimanal/seedlink-go/internal/config"
)

// New builds a structured logger from cfg's level and format. An unknown
// level falls back to info rather than failing startup.
func New(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var output io.Writer = os.Stdout
	if cfg.LogFormat == "console" {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	return zerolog.New(output).With().Timestamp().Str("service", "seedlinkd").Logger()
}
