// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package rootshell

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrElevation means no privileged session could be started, for
	// example because the device is not rooted or su is missing.
	ErrElevation = errors.New("failed to get root access")

	// ErrTimeout means the command exceeded the configured timeout and
	// its process group was killed.
	ErrTimeout = errors.New("privileged command timed out")

	// ErrClosed means Run was called after Close.
	ErrClosed = errors.New("root shell closed")
)

// Runner executes one shell command with privilege. *Channel is the
// production implementation; rootshelltest.Script is the test double.
type Runner interface {
	Run(ctx context.Context, command string) Result
}

// Result is the captured outcome of one command.
type Result struct {
	// Stdout and Stderr hold the command's output, one
	// newline-terminated entry per line read.
	Stdout string
	Stderr string

	// ExitCode is the process exit status, or -1 when the command did
	// not run to completion.
	ExitCode int

	// Err is non-nil when the command was not executed or did not
	// finish: elevation failure, timeout, cancellation or a start
	// error. A command that ran and exited non-zero has a nil Err.
	Err error
}

// Failed reports whether the command did not run or exited non-zero.
func (r Result) Failed() bool {
	return r.Err != nil || r.ExitCode != 0
}

// Error describes a failed result for logs and status lines. It
// returns nil for a successful result.
func (r Result) Error() error {
	switch {
	case r.Err != nil:
		return r.Err
	case r.ExitCode != 0 && r.Stderr != "":
		return fmt.Errorf("exit status %d: %s", r.ExitCode, trimOutput(r.Stderr))
	case r.ExitCode != 0:
		return fmt.Errorf("exit status %d", r.ExitCode)
	}
	return nil
}

// notExecuted builds the result returned when a command never ran.
func notExecuted(err error) Result {
	return Result{ExitCode: -1, Err: err}
}
