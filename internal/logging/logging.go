// Package logging builds the structured logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/Cyclone1070/deskpal/internal/config"
	"github.com/rs/zerolog"
)

// New returns a logger writing to w at the configured level.
// The console format is meant for an interactive terminal; json for log files.
func New(cfg config.LogConfig, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := w
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}
