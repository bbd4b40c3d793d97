// Package logging configures log/slog for the server and the CLI and carries
// request-scoped attributes through context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the handler. Level is debug, info, warn or error; Format
// is text or json. Unknown values fall back to info and text.
type Options struct {
	Level  string
	Format string
	File   FileOptions

	// Stdout receives every entry; nil means os.Stdout.
	Stdout io.Writer
}

// FileOptions enables a size-rotated copy of the log when Path is set.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Setup installs the default logger. Close the returned io.Closer on exit to
// flush the log file.
func Setup(opts Options) io.Closer {
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}

	var closer io.Closer = nopCloser{}
	if f := opts.File; f.Path != "" {
		rotating := &lumberjack.Logger{
			Filename:   f.Path,
			MaxSize:    f.MaxSizeMB,
			MaxBackups: f.MaxBackups,
			MaxAge:     f.MaxAgeDays,
			Compress:   f.Compress,
		}
		out = io.MultiWriter(out, rotating)
		closer = rotating
	}

	slog.SetDefault(slog.New(NewHandler(out, opts.Level, opts.Format)))
	return closer
}

// NewHandler builds the slog handler Setup installs.
func NewHandler(w io.Writer, level, format string) slog.Handler {
	hopts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, hopts)
	}
	return slog.NewTextHandler(w, hopts)
}

// ParseLevel maps a level name to slog.Level. "warning" is accepted as warn.
func ParseLevel(s string) slog.Level {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type attrsKey struct{}

// With returns a context whose loggers carry args in addition to anything
// attached earlier.
func With(ctx context.Context, args ...any) context.Context {
	if len(args) == 0 {
		return ctx
	}
	prev, _ := ctx.Value(attrsKey{}).([]any)
	merged := make([]any, 0, len(prev)+len(args))
	merged = append(merged, prev...)
	merged = append(merged, args...)
	return context.WithValue(ctx, attrsKey{}, merged)
}

// FromContext returns the default logger tagged with the chi request ID and
// the attributes attached by With.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if id := middleware.GetReqID(ctx); id != "" {
		logger = logger.With("request_id", id)
	}
	if attrs, ok := ctx.Value(attrsKey{}).([]any); ok {
		logger = logger.With(attrs...)
	}
	return logger
}

// WithFields is FromContext plus one-off fields.
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
