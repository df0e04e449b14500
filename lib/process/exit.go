// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ExitError carries a specific exit code out of run(). Commands use it
// when the exit status itself is the answer, such as "qwdash status"
// reporting the screen is off.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// Fatal writes "error: err" to stderr and exits. The exit code is 1
// unless err wraps an *ExitError. An ExitError without a message exits
// silently.
func Fatal(err error) {
	os.Exit(report(os.Stderr, err))
}

func report(w io.Writer, err error) int {
	var exitError *ExitError
	if errors.As(err, &exitError) {
		if exitError.Err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
		}
		return exitError.Code
	}
	fmt.Fprintf(w, "error: %v\n", err)
	return 1
}
