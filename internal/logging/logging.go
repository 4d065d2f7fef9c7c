package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options selects the handler New builds.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	Output io.Writer
}

// New returns a logger configured with a text handler writing to STDOUT,
// or as described by opts.
func New(opts ...Options) (*slog.Logger, error) {
	o := Options{Level: "info", Format: "text", Output: os.Stdout}
	if len(opts) > 0 {
		if opts[0].Level != "" {
			o.Level = opts[0].Level
		}
		if opts[0].Format != "" {
			o.Format = opts[0].Format
		}
		if opts[0].Output != nil {
			o.Output = opts[0].Output
		}
	}
	level, err := ParseLevel(o.Level)
	if err != nil {
		return nil, err
	}
	ho := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(o.Format) {
	case "text":
		return slog.New(slog.NewTextHandler(o.Output, ho)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(o.Output, ho)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", o.Format)
	}
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type ctxKey struct{}

// NewContext returns a copy of ctx with the logger stored.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext retrieves a logger from ctx or returns slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
