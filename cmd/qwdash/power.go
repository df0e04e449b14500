// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/qwdash/qwdash/cmd/qwdash/cli"
	"github.com/qwdash/qwdash/lib/control"
)

type powerParams struct {
	Connection connection
	Quiet      bool `flag:"quiet,q" desc:"print nothing on success"`
}

// powerCommand builds a command that sends one action and confirms it.
func powerCommand(ctx context.Context, stdout io.Writer, log *commandLog, name, action, summary, description, confirmation string,
	send func(*control.Client, context.Context) error) *cli.Command {
	var params powerParams
	params.Connection.log = log
	return &cli.Command{
		Name:        name,
		Summary:     summary,
		Description: description,
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams(name, &params)
		},
		Run: func(args []string) error {
			if err := noArgs(name, args); err != nil {
				return err
			}
			err := params.Connection.call(ctx, action, func(ctx context.Context, client *control.Client) error {
				return send(client, ctx)
			})
			if err != nil {
				return err
			}
			if !params.Quiet {
				fmt.Fprintln(stdout, confirmation)
			}
			return nil
		},
	}
}

func screenOnCommand(ctx context.Context, stdout io.Writer, log *commandLog) *cli.Command {
	return powerCommand(ctx, stdout, log, "on", control.ActionScreenOn, "Force the screen on",
		"Write the maximum brightness and restart the idle timer, as if the\n"+
			"dashboard had been touched.",
		"screen on", (*control.Client).ScreenOn)
}

func screenOffCommand(ctx context.Context, stdout io.Writer, log *commandLog) *cli.Command {
	return powerCommand(ctx, stdout, log, "off", control.ActionScreenOff, "Dim the screen to the floor brightness",
		"Dim the screen immediately and keep it low until the next activity.",
		"screen off", (*control.Client).ScreenOff)
}

func activityCommand(ctx context.Context, stdout io.Writer, log *commandLog) *cli.Command {
	return powerCommand(ctx, stdout, log, "activity", control.ActionActivity, "Report user activity",
		"Report user activity: the screen turns on if it was dimmed and the\n"+
			"idle timer restarts. Useful from motion sensors or door switches.",
		"activity reported", (*control.Client).Activity)
}
