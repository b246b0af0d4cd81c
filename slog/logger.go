package slog

import (
	"io"
	"log/slog"
	"strings"

	"github.com/fwojciec/illustdl"
)

// NewLogger creates a logger writing to w. format is "text" or "json";
// level is one of debug, info, warn or error.
func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, illustdl.Errorf(illustdl.EINVALID, "invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, illustdl.Errorf(illustdl.EINVALID, "invalid log format %q", format)
	}
}
