// =============================================================================
// Tariff Reconciler - Logging Module
// =============================================================================
//
// Structured logging on zerolog. Terminals get the human-readable console
// writer; everything else gets JSON lines.
//
// Example usage:
//
//	log := logging.New(logging.Config{Level: "debug"})
//	log.Info().Str("mode", "tariff").Msg("Reconciliation started")
//
// The engine logs through a printf-style interface; Printf adapts a zerolog
// logger to it.
//
// =============================================================================

package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logger configuration options.
type Config struct {
	// Level is the minimum level to output (trace, debug, info, warn, error).
	Level string

	// Format is "console", "json" or "auto".
	Format string

	// Output defaults to os.Stderr.
	Output io.Writer

	// NoColor disables colors in console mode.
	NoColor bool
}

var defaultLogger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// New creates a logger from cfg.
func New(cfg Config) zerolog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	level := ParseLevel(cfg.Level)

	logger := zerolog.New(writer(output, cfg)).
		Level(level).
		With().
		Timestamp().
		Logger()

	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

// Default returns the process-wide logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// ParseLevel parses a level name, falling back to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "warning":
		return zerolog.WarnLevel
	case "disabled", "none", "off":
		return zerolog.Disabled
	case "":
		return zerolog.InfoLevel
	}
	if l, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil {
		return l
	}
	return zerolog.InfoLevel
}

func writer(output io.Writer, cfg Config) io.Writer {
	format := strings.ToLower(cfg.Format)
	if format == "" || format == "auto" {
		format = "json"
		if isTerminal(output) {
			format = "console"
		}
	}

	if format == "console" || format == "pretty" {
		return zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.Kitchen,
			NoColor:    cfg.NoColor || os.Getenv("NO_COLOR") != "",
		}
	}
	return output
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
