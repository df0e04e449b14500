// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

// Package rootshell executes shell commands with superuser privilege
// through su.
//
// A Channel keeps one long-lived su process open as the privileged
// session. The session proves elevation works and stays attached for
// the lifetime of the daemon, but commands are not piped through it:
// each Run starts its own "su -c <command>" so stdout, stderr and the
// exit code belong unambiguously to that command. The session only
// receives a comment line naming each command.
//
// Failures never panic or exit. When elevation is unavailable every
// Run returns a Result whose Err wraps ErrElevation, and callers treat
// it as "command not executed".
package rootshell
