// Package gateway wires the catalog, selection, token, and cost subsystems
// into the request lifecycle pipeline and exposes one facade per operation
// family.
package gateway

import (
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/relaymesh/gateway/schemas"
)

// DefaultLogger implements schemas.Logger with stdout/stderr zerolog
// writers: info/debug/warn go to stdout, error/fatal to stderr, regardless
// of the current level (errors are never suppressed).
type DefaultLogger struct {
	stdout zerolog.Logger
	stderr zerolog.Logger
}

// LoggerOutputType selects the wire format DefaultLogger writes.
type LoggerOutputType string

const (
	LoggerOutputJSON   LoggerOutputType = "json"
	LoggerOutputPretty LoggerOutputType = "pretty"
)

func toZerologLevel(l schemas.LogLevel) zerolog.Level {
	switch l {
	case schemas.LogLevelDebug:
		return zerolog.DebugLevel
	case schemas.LogLevelInfo:
		return zerolog.InfoLevel
	case schemas.LogLevelWarn:
		return zerolog.WarnLevel
	case schemas.LogLevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewDefaultLogger builds a DefaultLogger at the given level, writing JSON
// to stdout/stderr.
func NewDefaultLogger(level schemas.LogLevel) *DefaultLogger {
	zerolog.SetGlobalLevel(toZerologLevel(level))
	zerolog.DisableSampling(true)
	zerolog.TimeFieldFormat = time.RFC3339
	return &DefaultLogger{
		stdout: zerolog.New(os.Stdout).With().Timestamp().Logger(),
		stderr: zerolog.New(os.Stderr).With().Timestamp().Logger(),
	}
}

func (l *DefaultLogger) Debug(msg string) { l.stdout.Debug().Msg(msg) }
func (l *DefaultLogger) Info(msg string)  { l.stdout.Info().Msg(msg) }
func (l *DefaultLogger) Warn(msg string)  { l.stdout.Warn().Msg(msg) }

func (l *DefaultLogger) Error(err error) {
	if err == nil {
		l.stderr.Error().Msg("nil error")
		return
	}
	l.stderr.Error().Msg(err.Error())
}

func (l *DefaultLogger) Fatal(msg string, err error) {
	if err == nil {
		err = errors.New("nil error")
	}
	l.stderr.Fatal().Err(err).Msg(msg)
}

// SetLevel changes the process-wide zerolog level.
func (l *DefaultLogger) SetLevel(level schemas.LogLevel) {
	zerolog.SetGlobalLevel(toZerologLevel(level))
}

// SetOutputType switches between JSON and human-readable console output.
func (l *DefaultLogger) SetOutputType(t LoggerOutputType) {
	switch t {
	case LoggerOutputPretty:
		l.stdout = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
		l.stderr = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	default:
		l.stdout = zerolog.New(os.Stdout).With().Timestamp().Logger()
		l.stderr = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}
