package vm

import (
	"io"
	"log/slog"
)

// NewLogger builds a text logger at the named level (debug, info, warn, error).
// Unknown levels log at info.
func NewLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level

	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: lvl,
	})

	return slog.New(handler).With("component", "virtmem")
}
