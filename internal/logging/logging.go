// Package logging builds the structured logger shared by both binaries'
// command trees.
package logging

import (
	"io"
	"log/slog"
)

// New builds a text-handler slog.Logger writing to w at the given level.
// debug selects slog.LevelDebug; otherwise slog.LevelInfo.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
