// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/qwdash/qwdash/cmd/qwdash/cli"
	"github.com/qwdash/qwdash/lib/consoleui"
	"github.com/qwdash/qwdash/lib/control"
	"github.com/qwdash/qwdash/lib/status"
)

type linesParams struct {
	cli.JSONOutput
	Connection connection
	Limit      int `flag:"limit,n" desc:"number of lines to print, 0 for all retained lines" default:"20"`
}

func linesCommand(ctx context.Context, stdout io.Writer, log *commandLog) *cli.Command {
	var params linesParams
	params.Connection.log = log
	return &cli.Command{
		Name:    "lines",
		Summary: "Print recent status lines",
		Description: "Print the daemon's most recent status lines, oldest first. These are\n" +
			"the same lines the dashboard's status panel shows.",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("lines", &params)
		},
		Examples: []cli.Example{
			{Description: "Every line the daemon still holds", Command: "qwdash lines --limit 0"},
		},
		Run: func(args []string) error {
			if err := noArgs("lines", args); err != nil {
				return err
			}
			if params.Limit < 0 {
				return cli.Validation("--limit must not be negative, got %d", params.Limit)
			}

			var lines []status.Line
			err := params.Connection.call(ctx, control.ActionLines, func(ctx context.Context, client *control.Client) error {
				var linesErr error
				lines, linesErr = client.Lines(ctx, params.Limit)
				return linesErr
			})
			if err != nil {
				return err
			}

			if done, err := params.EmitJSON(stdout, lines); done {
				return err
			}
			for _, line := range lines {
				if _, err := fmt.Fprintln(stdout, consoleui.FormatLine(line)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
