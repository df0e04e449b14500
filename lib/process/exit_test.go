// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

func TestReport(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantOutput string
	}{
		{"plain error", errors.New("connecting: no such file"), 1, "error: connecting: no such file\n"},
		{"silent exit code", &ExitError{Code: 3}, 3, ""},
		{"wrapped exit code", fmt.Errorf("status: %w", &ExitError{Code: 2, Err: errors.New("daemon not running")}), 2, "error: status: daemon not running\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var output bytes.Buffer
			if code := report(&output, test.err); code != test.wantCode {
				t.Errorf("code = %d, want %d", code, test.wantCode)
			}
			if output.String() != test.wantOutput {
				t.Errorf("output = %q, want %q", output.String(), test.wantOutput)
			}
		})
	}
}
