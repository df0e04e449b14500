// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ErrorCategory classifies command errors.
type ErrorCategory string

const (
	// CategoryValidation means the user gave bad input.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound means something the command needs does not
	// exist, such as the control socket.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryForbidden means the user lacks permission.
	CategoryForbidden ErrorCategory = "forbidden"

	// CategoryTransient means retrying may succeed.
	CategoryTransient ErrorCategory = "transient"
)

// ToolError is a categorized command error with an optional hint
// telling the user what to do about it.
type ToolError struct {
	Category ErrorCategory
	Err      error
	Hint     string
}

// Error returns the message followed by the hint, if any.
func (e *ToolError) Error() string {
	if e.Hint == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + "\n\n" + e.Hint
}

func (e *ToolError) Unwrap() error { return e.Err }

// WithHint sets the hint and returns e.
func (e *ToolError) WithHint(hint string) *ToolError {
	e.Hint = hint
	return e
}

// Validation creates a validation error.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// NotFound creates a not-found error.
func NotFound(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

// Forbidden creates a forbidden error.
func Forbidden(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryForbidden, Err: fmt.Errorf(format, args...)}
}

// Transient creates a transient error.
func Transient(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryTransient, Err: fmt.Errorf(format, args...)}
}
