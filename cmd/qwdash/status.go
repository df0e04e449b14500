// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/pflag"

	"github.com/qwdash/qwdash/cmd/qwdash/cli"
	"github.com/qwdash/qwdash/lib/codec"
	"github.com/qwdash/qwdash/lib/control"
	"github.com/qwdash/qwdash/lib/process"
	"github.com/qwdash/qwdash/lib/screen"
)

// exitScreenOff is the status exit code when the screen is dimmed.
const exitScreenOff = 3

type statusParams struct {
	cli.JSONOutput
	Connection connection
	Raw        bool   `flag:"raw" desc:"print the daemon's CBOR response in diagnostic notation"`
	Color      string `flag:"color" desc:"colorize output: auto, always or never" default:"auto"`
}

func statusCommand(ctx context.Context, stdout io.Writer, log *commandLog) *cli.Command {
	var params statusParams
	params.Connection.log = log
	return &cli.Command{
		Name:    "status",
		Summary: "Show the screen state",
		Description: "Show whether the screen is on, the idle phase, the resolved backlight\n" +
			"device and whether the daemon holds root access.\n\n" +
			"Exits 3 when the screen is dimmed.",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("status", &params)
		},
		Examples: []cli.Example{
			{Description: "Turn the screen on only if it is dimmed", Command: "qwdash status >/dev/null || qwdash on"},
			{Command: "qwdash status --json"},
		},
		Run: func(args []string) error {
			if err := noArgs("status", args); err != nil {
				return err
			}
			profile, forced, err := colorProfile(params.Color)
			if err != nil {
				return err
			}

			if params.Raw {
				var raw codec.RawMessage
				err := params.Connection.call(ctx, control.ActionStatus, func(ctx context.Context, client *control.Client) error {
					return client.Call(ctx, control.ActionStatus, nil, &raw)
				})
				if err != nil {
					return err
				}
				diagnostic, err := codec.Diagnose(raw)
				if err != nil {
					return fmt.Errorf("decoding status response: %w", err)
				}
				_, err = fmt.Fprintln(stdout, diagnostic)
				return err
			}

			var report screen.Report
			err = params.Connection.call(ctx, control.ActionStatus, func(ctx context.Context, client *control.Client) error {
				var statusErr error
				report, statusErr = client.Status(ctx)
				return statusErr
			})
			if err != nil {
				return err
			}

			if done, err := params.EmitJSON(stdout, report); done {
				if err != nil {
					return err
				}
			} else if err := writeReport(stdout, report, profile, forced, time.Now()); err != nil {
				return err
			}
			if !report.ScreenOn {
				return &process.ExitError{Code: exitScreenOff}
			}
			return nil
		},
	}
}

// colorProfile maps the --color flag to a termenv profile. forced is
// false when the profile should be detected from the output.
func colorProfile(mode string) (profile termenv.Profile, forced bool, err error) {
	switch mode {
	case "auto":
		return termenv.Ascii, false, nil
	case "always":
		return termenv.ANSI256, true, nil
	case "never":
		return termenv.Ascii, true, nil
	}
	return termenv.Ascii, false, cli.Validation("--color must be auto, always or never, got %q", mode)
}

func writeReport(w io.Writer, report screen.Report, profile termenv.Profile, forced bool, now time.Time) error {
	renderer := lipgloss.NewRenderer(w)
	if forced {
		renderer.SetColorProfile(profile)
	}
	good := renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	dim := renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
	bad := renderer.NewStyle().Foreground(lipgloss.Color("196"))
	faint := renderer.NewStyle().Foreground(lipgloss.Color("245"))

	screenState := good.Render("on")
	if !report.ScreenOn {
		screenState = dim.Render("off")
	}
	backlight := bad.Render("not found")
	if report.Resolved {
		backlight = report.BacklightPath + faint.Render(" (max "+strconv.Itoa(report.MaxBrightness)+")")
	}
	rootAccess := good.Render("granted")
	if !report.Elevated {
		rootAccess = bad.Render("unavailable")
	}
	lastActivity := faint.Render("none")
	if !report.LastActivity.IsZero() {
		ago := now.Sub(report.LastActivity).Truncate(time.Second)
		lastActivity = report.LastActivity.Local().Format(time.DateTime) + faint.Render(" ("+ago.String()+" ago)")
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "screen:\t%s\n", screenState)
	fmt.Fprintf(tw, "phase:\t%s\n", report.Phase)
	fmt.Fprintf(tw, "backlight:\t%s\n", backlight)
	fmt.Fprintf(tw, "root access:\t%s\n", rootAccess)
	fmt.Fprintf(tw, "last activity:\t%s\n", lastActivity)
	if report.Verification != "" {
		fmt.Fprintf(tw, "verification:\t%s\n", report.Verification)
	}
	return tw.Flush()
}
