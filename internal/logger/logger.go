// Package logger provides component-keyed structured logging for the server
// and the extraction pipeline.
package logger

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Fields carries structured context for one log entry.
type Fields map[string]interface{}

// Logger provides structured logging with context.
type Logger interface {
	Info(component, message string, fields Fields)
	Error(component string, err error, fields Fields)
	Warning(component, message string, fields Fields)
	Debug(component, message string, fields Fields)
}

// ParseLevel maps a level name ("debug", "info", "warn", "error", "off") to
// a zerolog level. An empty name selects info.
func ParseLevel(name string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return zerolog.InfoLevel, nil
	case "off", "none", "disabled":
		return zerolog.Disabled, nil
	case "warning":
		return zerolog.WarnLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}
