package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Handler formats.
const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatPretty = "pretty"
)

// Logger wraps slog.Logger and tags every record with a component.
type Logger struct {
	*slog.Logger
	component string
}

type Config struct {
	Level     slog.Level
	Format    string
	Component string
	Output    io.Writer
	Handler   slog.Handler
}

func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Format:    FormatText,
		Component: ComponentApp,
		Output:    os.Stdout,
	}
}

// NewHandler builds the slog handler for format. pretty uses tint with
// colours only when w is a terminal-like writer chosen by the caller.
func NewHandler(format string, level slog.Level, w io.Writer) (slog.Handler, error) {
	if w == nil {
		w = os.Stdout
	}
	switch format {
	case "", FormatText:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}), nil
	case FormatJSON:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}), nil
	case FormatPretty:
		return tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			NoColor:    w != os.Stderr && w != os.Stdout,
		}), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}

func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		h, err := NewHandler(config.Format, config.Level, config.Output)
		if err != nil {
			h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: config.Level})
		}
		handler = h
	}

	return &Logger{
		Logger:    slog.New(handler),
		component: config.Component,
	}
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		component: l.component,
	}
}

func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    l.Logger,
		component: component,
	}
}

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.Logger.InfoContext(ctx, msg, l.tag(args)...)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.Logger.WarnContext(ctx, msg, l.tag(args)...)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.Logger.ErrorContext(ctx, msg, l.tag(args)...)
}

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.Logger.DebugContext(ctx, msg, l.tag(args)...)
}

// Log logs at level with the component attached.
func (l *Logger) Log(ctx context.Context, level slog.Level, msg string, args ...any) {
	l.Logger.Log(ctx, level, msg, l.tag(args)...)
}

func (l *Logger) tag(args []any) []any {
	return append([]any{FieldComponent, l.component}, args...)
}

// SetDefault installs logger as the process-wide slog default.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}

func (l *Logger) Component() string {
	return l.component
}
