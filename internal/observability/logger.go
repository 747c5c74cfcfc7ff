// Package observability holds the logging and metrics seams shared by the
// puzzle and rules packages.
package observability

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// Logger is the structured logging surface used across the module. Args are
// alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}

// ZerologLogger adapts a zerolog.Logger to Logger.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger wraps l.
func NewZerologLogger(l zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{log: l}
}

// NewConsoleLogger builds the CLI logger: human readable unless json is set.
func NewConsoleLogger(w io.Writer, level string, json bool) (*ZerologLogger, error) {
	lvl := zerolog.WarnLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		lvl = parsed
	}
	out := w
	if !json {
		out = zerolog.ConsoleWriter{Out: w, NoColor: true}
	}
	return NewZerologLogger(zerolog.New(out).Level(lvl).With().Timestamp().Logger()), nil
}

func (z *ZerologLogger) Debug(msg string, args ...any) { emit(z.log.Debug(), msg, args) }
func (z *ZerologLogger) Info(msg string, args ...any)  { emit(z.log.Info(), msg, args) }
func (z *ZerologLogger) Warn(msg string, args ...any)  { emit(z.log.Warn(), msg, args) }
func (z *ZerologLogger) Error(msg string, args ...any) { emit(z.log.Error(), msg, args) }

func emit(e *zerolog.Event, msg string, args []any) {
	if e == nil {
		return
	}
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if i+1 >= len(args) {
			e = e.Str(key, "(MISSING)")
			break
		}
		switch v := args[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	e.Msg(msg)
}
