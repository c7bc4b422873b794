// Package logging builds the structured logger shared by the CLI and the
// engine.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Output formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ParseLevel maps debug, info, warn and error (any case) to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q (expected debug, info, warn or error)", s)
	}
	return level, nil
}

// New returns a logger writing level-and-above records to w in the given
// format. Empty level and format mean info and text.
func New(level, format string, w io.Writer) (*slog.Logger, error) {
	lvl := slog.LevelInfo
	if level != "" {
		var err error
		if lvl, err = ParseLevel(level); err != nil {
			return nil, err
		}
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", FormatText:
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q (expected text or json)", format)
	}
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
