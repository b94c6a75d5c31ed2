// Package logging builds the application's slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
)

// Options describe how to configure a logger.
type Options struct {
	Level  string
	Format string // console, text or json
	Output io.Writer

	// LevelVar, when set, carries the level so it can be changed after
	// construction.
	LevelVar *slog.LevelVar
	NoColor  bool
}

// New creates a structured logger.
func New(opts Options) (*slog.Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	leveler := opts.LevelVar
	if leveler == nil {
		leveler = new(slog.LevelVar)
	}
	leveler.Set(lvl)

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console", "text":
		handler = tint.NewHandler(out, &tint.Options{
			Level:      leveler,
			TimeFormat: "15:04:05.000",
			NoColor:    opts.NoColor,
		})
	case "json":
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: leveler})
	default:
		return nil, fmt.Errorf("unsupported log format %q", opts.Format)
	}
	return slog.New(handler), nil
}

// ParseLevel maps a config level name onto a slog level. Empty means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unsupported log level %q", level)
	}
}
