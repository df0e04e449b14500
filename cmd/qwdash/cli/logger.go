// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates a structured logger for CLI command
// operations writing to w. When w is a terminal the output is
// slog.TextHandler for humans; otherwise slog.JSONHandler, matching
// the daemon's log format so piped output can be parsed the same way.
//
// Pass a *slog.LevelVar as level when a flag parsed after construction
// decides verbosity.
func NewCommandLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		return slog.New(slog.NewTextHandler(w, options))
	}
	return slog.New(slog.NewJSONHandler(w, options))
}
