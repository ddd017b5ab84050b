// Package logging builds the leveled console logger used across todopro.
package logging

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
)

// Prefix is printed before every log line.
const Prefix = "todopro"

// Options holds configuration for the console logger.
type Options struct {
	Level           log.Level
	Formatter       log.Formatter
	ReportTimestamp bool
}

// DefaultOptions returns options for normal runs: warnings and errors only,
// so command output on stdout stays clean.
func DefaultOptions() Options {
	return Options{
		Level:     log.WarnLevel,
		Formatter: log.TextFormatter,
	}
}

// New creates a logger writing to w.
func New(w io.Writer, opts Options) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           opts.Level,
		Formatter:       opts.Formatter,
		ReportTimestamp: opts.ReportTimestamp,
		Prefix:          Prefix,
	})
}

// ParseLevel parses a level name. debug=true wins over an empty name;
// unknown names fall back to warn.
func ParseLevel(name string, debug bool) log.Level {
	if debug {
		return log.DebugLevel
	}
	switch name {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.WarnLevel
	}
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// WithContext stores logger in ctx.
func WithContext(ctx context.Context, logger *log.Logger) context.Context {
	return log.WithContext(ctx, logger)
}

// FromContext returns the logger stored in ctx, or a discarding logger.
// Unlike log.FromContext it never falls back to the package default,
// which writes to stderr.
func FromContext(ctx context.Context) *log.Logger {
	if logger, ok := ctx.Value(log.ContextKey).(*log.Logger); ok {
		return logger
	}
	return Discard()
}
