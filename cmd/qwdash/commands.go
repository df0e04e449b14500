// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/qwdash/qwdash/cmd/qwdash/cli"
	"github.com/qwdash/qwdash/lib/config"
	"github.com/qwdash/qwdash/lib/control"
)

// SocketEnvironmentVariable overrides the default control socket path.
const SocketEnvironmentVariable = "QWDASH_SOCKET"

const defaultRequestTimeout = 10 * time.Second

// commandLog is the stderr logger shared by every command. It starts at
// warn; --verbose on a socket command lowers it to debug.
type commandLog struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

func newCommandLog(w io.Writer) *commandLog {
	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)
	return &commandLog{logger: cli.NewCommandLogger(w, level), level: level}
}

// connection holds the flags shared by every command that talks to the
// daemon.
type connection struct {
	SocketPath string
	Timeout    time.Duration
	Verbose    bool

	log *commandLog
}

// AddFlags implements cli.FlagBinder.
func (c *connection) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.SocketPath, "socket", defaultSocketPath(), "control socket of qwdash-backlightd (env "+SocketEnvironmentVariable+")")
	flagSet.DurationVar(&c.Timeout, "timeout", defaultRequestTimeout, "request timeout")
	flagSet.BoolVarP(&c.Verbose, "verbose", "v", false, "log each control request to stderr")
}

func defaultSocketPath() string {
	if path := os.Getenv(SocketEnvironmentVariable); path != "" {
		return path
	}
	return config.DefaultControlSocket()
}

func (c *connection) client() *control.Client {
	return control.NewClient(c.SocketPath)
}

func (c *connection) logger() *slog.Logger {
	if c.log == nil {
		return slog.New(slog.DiscardHandler)
	}
	if c.Verbose {
		c.log.level.Set(slog.LevelDebug)
	}
	return c.log.logger
}

// call bounds one request by the --timeout flag and turns socket
// failures into actionable errors.
func (c *connection) call(ctx context.Context, action string, request func(context.Context, *control.Client) error) error {
	logger := c.logger().With("socket", c.SocketPath, "action", action)
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	start := time.Now()
	err := c.diagnose(request(ctx, c.client()))
	elapsed := time.Since(start)
	if err != nil {
		logger.Info("control request failed", "elapsed", elapsed, "category", errorCategory(err), "error", err)
		return err
	}
	logger.Debug("control request", "elapsed", elapsed)
	return nil
}

func errorCategory(err error) string {
	var toolError *cli.ToolError
	if errors.As(err, &toolError) {
		return string(toolError.Category)
	}
	var serviceError *control.ServiceError
	if errors.As(err, &serviceError) {
		return "service"
	}
	return "internal"
}

func (c *connection) diagnose(err error) error {
	if err == nil {
		return nil
	}
	var serviceError *control.ServiceError
	if errors.As(err, &serviceError) {
		return err
	}
	if toolError := cli.DiagnoseSocketError(err, c.SocketPath); toolError != nil {
		return toolError
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return cli.Transient("qwdash-backlightd did not answer within %s", c.Timeout)
	}
	return fmt.Errorf("control socket %s: %w", c.SocketPath, err)
}

func rootCommand(ctx context.Context, stdout, stderr io.Writer) *cli.Command {
	log := newCommandLog(stderr)
	return &cli.Command{
		Name:        "qwdash",
		Description: "Control the QWDash dashboard backlight through qwdash-backlightd.",
		Subcommands: []*cli.Command{
			statusCommand(ctx, stdout, log),
			linesCommand(ctx, stdout, log),
			screenOnCommand(ctx, stdout, log),
			screenOffCommand(ctx, stdout, log),
			activityCommand(ctx, stdout, log),
			watchCommand(ctx, log),
			versionCommand(stdout),
		},
	}
}

func noArgs(command string, args []string) error {
	if len(args) > 0 {
		return cli.Validation("%s takes no arguments, got %q", command, args)
	}
	return nil
}

func probeStatus(ctx context.Context, client *control.Client) error {
	_, err := client.Status(ctx)
	return err
}
