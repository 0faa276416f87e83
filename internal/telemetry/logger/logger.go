// Package logger provides structured logging for gcportal.
//
// It wraps the standard library log/slog to provide structured logging
// with automatic sensitive data redaction.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the application logger interface.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithContext(ctx context.Context) Logger
	// Slog exposes the underlying slog.Logger for libraries that take one.
	Slog() *slog.Logger
}

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// Format is the output format (text, json). Empty means text.
	Format string
	// Output is the output writer (defaults to os.Stderr).
	Output io.Writer
	// AddSource adds source file information to log entries.
	AddSource bool
}

// DefaultConfig returns the CLI defaults: warnings and errors as text on
// stderr, so command output on stdout stays clean.
func DefaultConfig() Config {
	return Config{
		Level:  "warn",
		Format: "text",
		Output: os.Stderr,
	}
}

// level is shared by every logger built with New so a config reload can
// change verbosity for the whole process.
var level = new(slog.LevelVar)

// New creates a logger. Unknown levels and formats are errors.
func New(cfg Config) (Logger, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text", "console":
		handler = slog.NewTextHandler(out, opts)
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		return nil, fmt.Errorf("logger: unknown format %q (want text or json)", cfg.Format)
	}

	level.Set(lvl)
	return &structured{logger: slog.New(handler), ctx: context.Background()}, nil
}

// ParseLevel converts a level name. An empty name means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("logger: unknown level %q", name)
	}
}

// SetLevel changes the level of every logger built with New. An unknown
// name leaves the level unchanged.
func SetLevel(name string) error {
	lvl, err := ParseLevel(name)
	if err != nil {
		return err
	}
	level.Set(lvl)
	return nil
}

// GetLevel returns the current level name.
func GetLevel() string {
	switch l := level.Level(); {
	case l <= slog.LevelDebug:
		return "debug"
	case l <= slog.LevelInfo:
		return "info"
	case l <= slog.LevelWarn:
		return "warn"
	default:
		return "error"
	}
}

type structured struct {
	logger *slog.Logger
	ctx    context.Context
}

func (l *structured) Debug(msg string, args ...any) {
	l.logger.DebugContext(l.ctx, msg, args...)
}

func (l *structured) Info(msg string, args ...any) {
	l.logger.InfoContext(l.ctx, msg, args...)
}

func (l *structured) Warn(msg string, args ...any) {
	l.logger.WarnContext(l.ctx, msg, args...)
}

func (l *structured) Error(msg string, args ...any) {
	l.logger.ErrorContext(l.ctx, msg, args...)
}

func (l *structured) With(args ...any) Logger {
	return &structured{logger: l.logger.With(args...), ctx: l.ctx}
}

func (l *structured) WithContext(ctx context.Context) Logger {
	return &structured{logger: l.logger, ctx: ctx}
}

func (l *structured) Slog() *slog.Logger {
	return l.logger
}

// Discard returns a logger that drops every record.
func Discard() Logger {
	return &structured{
		logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 4})),
		ctx:    context.Background(),
	}
}

var defaultLogger atomic.Pointer[structured]

func init() {
	l, _ := New(DefaultConfig())
	defaultLogger.Store(l.(*structured))
}

// SetDefault replaces the logger returned by Default. Loggers not built by
// this package are ignored.
func SetDefault(l Logger) {
	if s, ok := l.(*structured); ok {
		defaultLogger.Store(s)
	}
}

// Default returns the process-wide logger used when none is injected.
func Default() Logger {
	return defaultLogger.Load()
}
