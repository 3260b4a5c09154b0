package logging

import (
	"fmt"

	"github.com/rs/zerolog"
)

// PrintfLogger adapts a zerolog logger to printf-style Debug/Info/Warn/Error
// methods.
type PrintfLogger struct {
	log zerolog.Logger
}

// Printf wraps logger.
func Printf(logger zerolog.Logger) *PrintfLogger {
	return &PrintfLogger{log: logger}
}

func (p *PrintfLogger) Debug(msg string, args ...interface{}) {
	p.log.Debug().Msg(format(msg, args))
}

func (p *PrintfLogger) Info(msg string, args ...interface{}) {
	p.log.Info().Msg(format(msg, args))
}

func (p *PrintfLogger) Warn(msg string, args ...interface{}) {
	p.log.Warn().Msg(format(msg, args))
}

func (p *PrintfLogger) Error(msg string, args ...interface{}) {
	p.log.Error().Msg(format(msg, args))
}

func format(msg string, args []interface{}) string {
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}
