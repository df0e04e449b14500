// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/qwdash/qwdash/cmd/qwdash/cli"
	"github.com/qwdash/qwdash/lib/version"
)

type versionParams struct {
	cli.JSONOutput
}

func versionCommand(stdout io.Writer) *cli.Command {
	var params versionParams
	return &cli.Command{
		Name:    "version",
		Summary: "Print build information",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("version", &params)
		},
		Run: func(args []string) error {
			if err := noArgs("version", args); err != nil {
				return err
			}
			if done, err := params.EmitJSON(stdout, version.Current()); done {
				return err
			}
			_, err := fmt.Fprintf(stdout, "qwdash %s\n", version.Full())
			return err
		},
	}
}
