package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

type Config struct {
	Level        string // debug, info, warn, error
	Format       string // json, text
	Output       io.Writer
	EnableCaller bool
	Component    string
	Environment  string
}

// Logger wraps slog.Logger; errors optionally carry the caller position.
// The component attribute is kept apart from base so that WithComponent
// replaces it instead of stacking a second key.
type Logger struct {
	*slog.Logger
	base         *slog.Logger
	component    string
	enableCaller bool
}

func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	base := slog.New(handler)
	if cfg.Environment != "" {
		base = base.With("environment", cfg.Environment)
	}
	return build(base, cfg.Component, cfg.EnableCaller)
}

func build(base *slog.Logger, component string, enableCaller bool) *Logger {
	l := base
	if component != "" {
		l = base.With("component", component)
	}
	return &Logger{Logger: l, base: base, component: component, enableCaller: enableCaller}
}

// Nop discards everything. Used by tests and by callers without a logger.
func Nop() *Logger {
	return build(slog.New(slog.NewTextHandler(io.Discard, nil)), "", false)
}

func (l *Logger) With(args ...any) *Logger {
	return build(l.base.With(args...), l.component, l.enableCaller)
}

func (l *Logger) WithComponent(component string) *Logger {
	return build(l.base, component, l.enableCaller)
}

func (l *Logger) Error(msg string, args ...any) {
	l.errorAt(2, msg, args...)
}

func (l *Logger) Fatal(msg string, args ...any) {
	l.errorAt(2, msg, args...)
	exit(1)
}

var exit = os.Exit

// errorAt logs at error level; skip counts frames above errorAt itself.
func (l *Logger) errorAt(skip int, msg string, args ...any) {
	if l.enableCaller {
		if _, file, line, ok := runtime.Caller(skip); ok {
			args = append(args, "caller", fmt.Sprintf("%s:%d", filepath.Base(file), line))
		}
	}
	l.Logger.Error(msg, args...)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
