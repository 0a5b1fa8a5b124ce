package logger

import (
	"io"

	"github.com/rs/zerolog"
)

// ZerologAdapter implements Logger on top of zerolog.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerolog writes JSON log lines to writer.
func NewZerolog(writer io.Writer, level zerolog.Level) *ZerologAdapter {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.DurationFieldInteger = true

	logger := zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Logger()

	return &ZerologAdapter{logger: logger}
}

// NewConsoleLogger writes human-readable lines to out. A stdio server must
// pass stderr.
func NewConsoleLogger(out io.Writer, level zerolog.Level) *ZerologAdapter {
	consoleWriter := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
		NoColor:    true,
	}
	return NewZerolog(consoleWriter, level)
}

// Nop returns a logger that discards everything.
func Nop() *ZerologAdapter {
	return &ZerologAdapter{logger: zerolog.Nop()}
}

func (z *ZerologAdapter) Info(component, message string, fields Fields) {
	if !z.logger.Info().Enabled() {
		return
	}
	z.logger.Info().Str("component", component).Fields(map[string]interface{}(fields)).Msg(message)
}

func (z *ZerologAdapter) Error(component string, err error, fields Fields) {
	if !z.logger.Error().Enabled() {
		return
	}
	z.logger.Error().Str("component", component).Err(err).Fields(map[string]interface{}(fields)).Msg("operation failed")
}

func (z *ZerologAdapter) Warning(component, message string, fields Fields) {
	if !z.logger.Warn().Enabled() {
		return
	}
	z.logger.Warn().Str("component", component).Fields(map[string]interface{}(fields)).Msg(message)
}

func (z *ZerologAdapter) Debug(component, message string, fields Fields) {
	if !z.logger.Debug().Enabled() {
		return
	}
	z.logger.Debug().Str("component", component).Fields(map[string]interface{}(fields)).Msg(message)
}
