// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"testing"
)

func dialError(errno syscall.Errno) error {
	return fmt.Errorf("connecting: %w", &net.OpError{
		Op:   "dial",
		Net:  "unix",
		Addr: &net.UnixAddr{Name: "/run/qwdash/backlight.sock", Net: "unix"},
		Err:  errno,
	})
}

func TestDiagnoseSocketError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		hint     string
	}{
		{"missing", dialError(syscall.ENOENT), CategoryNotFound, "Is qwdash-backlightd running?"},
		{"refused", dialError(syscall.ECONNREFUSED), CategoryTransient, "Restart qwdash-backlightd"},
		{"permission", dialError(syscall.EACCES), CategoryForbidden, "ls -la /run/qwdash/backlight.sock"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := DiagnoseSocketError(test.err, "/run/qwdash/backlight.sock")
			if result == nil {
				t.Fatal("DiagnoseSocketError() = nil")
			}
			if result.Category != test.category {
				t.Errorf("Category = %q, want %q", result.Category, test.category)
			}
			if !strings.Contains(result.Hint, test.hint) {
				t.Errorf("Hint = %q, want it to mention %q", result.Hint, test.hint)
			}
			if !strings.Contains(result.Error(), result.Hint) {
				t.Error("Error() omits the hint")
			}
		})
	}
}

func TestDiagnoseSocketError_Unrecognized(t *testing.T) {
	if result := DiagnoseSocketError(errors.New("reading response: EOF"), "/tmp/x.sock"); result != nil {
		t.Fatalf("DiagnoseSocketError() = %v, want nil", result)
	}
}

func TestToolErrorUnwrap(t *testing.T) {
	inner := errors.New("limit must not be negative")
	toolError := &ToolError{Category: CategoryValidation, Err: inner}
	wrapped := fmt.Errorf("lines: %w", toolError.WithHint("pass --limit 0 for every line"))

	var target *ToolError
	if !errors.As(wrapped, &target) || target.Hint != "pass --limit 0 for every line" {
		t.Fatalf("errors.As = %v", target)
	}
	if !errors.Is(wrapped, inner) {
		t.Error("errors.Is does not reach the inner error")
	}
	if Validation("bad %s", "input").Error() != "bad input" {
		t.Error("hintless Error() changed the message")
	}
}
