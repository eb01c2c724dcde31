package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog to provide subsystem-scoped child loggers.
type Logger struct {
	zl zerolog.Logger
}

// Options selects where and how a root logger writes.
type Options struct {
	Level string
	Style string // "pretty" | "json"
	File  string // optional; appended to in JSON alongside the console
}

// New creates a root logger writing to the given writer at the specified level.
// If w is nil, defaults to pretty console output on stderr.
func New(w io.Writer, level string) *Logger {
	if w == nil {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	zl := zerolog.New(w).With().Timestamp().Logger()
	zl = zl.Level(parseLevel(level))
	return &Logger{zl: zl}
}

// Open builds a root logger from Options. The returned closer releases the
// log file, if any, and is never nil.
func Open(console io.Writer, opts Options) (*Logger, io.Closer, error) {
	if console == nil {
		console = os.Stderr
	}
	var out io.Writer = console
	if opts.Style != "json" {
		out = zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339}
	}

	if opts.File == "" {
		return New(out, opts.Level), io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return New(zerolog.MultiLevelWriter(out, f), opts.Level), f, nil
}

// Sub returns a child logger tagged with a subsystem name.
func (l *Logger) Sub(subsystem string) *Logger {
	return &Logger{zl: l.zl.With().Str("subsystem", subsystem).Logger()}
}

// With returns a child logger carrying an extra string field.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{zl: l.zl.With().Str(key, value).Logger()}
}

// Level methods start an event on the wrapped logger.

func (l *Logger) Trace() *zerolog.Event { return l.zl.Trace() }

func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }

func (l *Logger) Info() *zerolog.Event { return l.zl.Info() }

func (l *Logger) Warn() *zerolog.Event { return l.zl.Warn() }

func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }

// Fatal exits the process after writing the event.
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }

// Zerolog exposes the wrapped logger, e.g. as an io.Writer for stdlib loggers.
func (l *Logger) Zerolog() zerolog.Logger { return l.zl }

// parseLevel accepts zerolog's level names in any case plus "silent".
// Anything unrecognised means info.
func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "silent" {
		return zerolog.Disabled
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
