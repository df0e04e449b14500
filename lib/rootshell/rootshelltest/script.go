// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

// Package rootshelltest provides a scripted rootshell.Runner for
// tests of code that drives privileged commands.
package rootshelltest

import (
	"context"
	"fmt"
	"sync"

	"github.com/qwdash/qwdash/lib/rootshell"
)

// Script answers commands from a fixed table and records every
// command it receives. Commands missing from the table get a result
// with exit code 1 and a "no such command" stderr, the same shape a
// real shell produces for an unknown path.
//
// Script also implements the session methods of rootshell.Channel so
// it can stand in for a whole channel.
type Script struct {
	mu        sync.Mutex
	responses map[string]rootshell.Result
	commands  []string
	elevated  bool
	closed    bool
}

// New returns an elevated Script with no responses.
func New() *Script {
	return &Script{responses: make(map[string]rootshell.Result), elevated: true}
}

// Respond makes command print stdout and exit 0.
func (s *Script) Respond(command, stdout string) *Script {
	return s.RespondResult(command, rootshell.Result{Stdout: stdout})
}

// RespondResult makes command return result.
func (s *Script) RespondResult(command string, result rootshell.Result) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[command] = result
	return s
}

// SetElevated controls what EnsureSession reports. A Script that is
// not elevated fails every Run with rootshell.ErrElevation.
func (s *Script) SetElevated(elevated bool) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elevated = elevated
	return s
}

// Run implements rootshell.Runner.
func (s *Script) Run(_ context.Context, command string) rootshell.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.elevated {
		return rootshell.Result{ExitCode: -1, Err: rootshell.ErrElevation}
	}
	s.commands = append(s.commands, command)
	if result, ok := s.responses[command]; ok {
		return result
	}
	return rootshell.Result{
		ExitCode: 1,
		Stderr:   fmt.Sprintf("sh: %s: no such command\n", command),
	}
}

// EnsureSession reports the configured elevation.
func (s *Script) EnsureSession(context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elevated && !s.closed
}

// Elevated reports the configured elevation.
func (s *Script) Elevated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elevated && !s.closed
}

// Close records that the session was closed.
func (s *Script) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *Script) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Commands returns every command run so far, in order.
func (s *Script) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// Count returns how many times command was run.
func (s *Script) Count(command string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, seen := range s.commands {
		if seen == command {
			count++
		}
	}
	return count
}

// Reset forgets recorded commands, keeping responses.
func (s *Script) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = nil
}
