// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/qwdash/qwdash/cmd/qwdash/cli"
	"github.com/qwdash/qwdash/lib/consoleui"
	"github.com/qwdash/qwdash/lib/control"
)

type watchParams struct {
	Connection connection
	Interval   time.Duration `flag:"interval" desc:"refresh interval" default:"1s"`
	Lines      int           `flag:"lines" desc:"status lines to keep on screen" default:"500"`
}

func watchCommand(ctx context.Context, log *commandLog) *cli.Command {
	var params watchParams
	params.Connection.log = log
	return &cli.Command{
		Name:    "watch",
		Summary: "Live console of the screen state and status lines",
		Description: "Open a full-screen console that follows the daemon's state and status\n" +
			"lines. Keys: o on, f off, a activity, r refresh, g/G top/follow, q quit.",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("watch", &params)
		},
		Run: func(args []string) error {
			if err := noArgs("watch", args); err != nil {
				return err
			}
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return cli.Validation("watch needs a terminal; use 'qwdash lines' or 'qwdash status' in scripts")
			}
			if params.Interval <= 0 {
				return cli.Validation("--interval must be positive, got %s", params.Interval)
			}

			// Fail early with a diagnosis instead of an error banner in the console.
			if err := params.Connection.call(ctx, control.ActionStatus, probeStatus); err != nil {
				return err
			}

			err := consoleui.Run(ctx, params.Connection.client(), consoleui.Options{
				PollInterval: params.Interval,
				LineLimit:    params.Lines,
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("console: %w", err)
			}
			return nil
		},
	}
}
