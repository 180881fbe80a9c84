package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options controls the sinks built by Setup.
type Options struct {
	// Level of the console sink: debug, info, warn or error.
	Level string
	// Dir holds main/base.log and errors/errors.log. Empty disables file logging.
	Dir       string
	MaxSizeMB int
	MaxFiles  int
	// Console defaults to os.Stderr.
	Console io.Writer
}

// Setup builds the application logger: a text console sink at Options.Level plus,
// when Dir is set, a JSON debug log and a JSON error log, each size-rotated.
// Every sink sits behind a RedactingHandler. The returned func closes the files.
func Setup(opts Options) (*SlogLogger, func() error, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(console, &slog.HandlerOptions{Level: level}),
	}
	var closers []io.Closer

	if opts.Dir != "" {
		sinks := []struct {
			file  string
			level slog.Level
		}{
			{filepath.Join(opts.Dir, "main", "base.log"), slog.LevelDebug},
			{filepath.Join(opts.Dir, "errors", "errors.log"), slog.LevelError},
		}
		for _, s := range sinks {
			w, err := NewRotatingWriter(Rotation{File: s.file, MaxSizeMB: opts.MaxSizeMB, MaxFiles: opts.MaxFiles})
			if err != nil {
				closeAll(closers)
				return nil, nil, err
			}
			closers = append(closers, w)
			handlers = append(handlers, slog.NewJSONHandler(w, &slog.HandlerOptions{Level: s.level}))
		}
	}

	var h slog.Handler = handlers[0]
	if len(handlers) > 1 {
		h = fanout(handlers)
	}
	logger := NewSlogLogger(slog.New(NewRedactingHandler(h)))
	return logger, func() error { return closeAll(closers) }, nil
}

// ParseLevel maps a level name to slog.Level. An empty name means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

func closeAll(cs []io.Closer) error {
	var errs []error
	for _, c := range cs {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// fanout dispatches every record to each handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
