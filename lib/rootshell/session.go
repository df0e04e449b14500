// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package rootshell

import (
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/qwdash/qwdash/lib/clock"
)

// exitGrace is how long a session gets to honor "exit" before it is
// killed.
const exitGrace = 2 * time.Second

// session is the long-lived su process.
type session struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	done    chan struct{}
	waitErr error
}

func startSession(suPath string) (*session, error) {
	cmd := exec.Command(suPath)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", suPath, err)
	}
	started := &session{cmd: cmd, stdin: stdin, done: make(chan struct{})}
	go func() {
		started.waitErr = cmd.Wait()
		close(started.done)
	}()
	return started, nil
}

func (s *session) pid() int { return s.cmd.Process.Pid }

// exitError is the session's Wait result, or nil while it runs.
func (s *session) exitError() error {
	select {
	case <-s.done:
		return s.waitErr
	default:
		return nil
	}
}

// alive reports whether the session can still be used. With probe set
// the process table is consulted too, catching a session that was
// stopped or left as a zombie by its su wrapper.
func (s *session) alive(probe bool) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	if !probe {
		return true
	}
	proc, err := process.NewProcess(int32(s.pid()))
	if err != nil {
		return false
	}
	running, err := proc.IsRunning()
	if err != nil || !running {
		return false
	}
	statuses, err := proc.Status()
	if err != nil {
		return true
	}
	return !slices.Contains(statuses, process.Zombie) && !slices.Contains(statuses, process.Stop)
}

// annotate writes the command to the session as a shell comment. The
// session never executes it; a failed write only means the session is
// going away, which the next alive check notices.
func (s *session) annotate(command string, logger *slog.Logger) {
	line := "# " + strings.ReplaceAll(command, "\n", " ") + "\n"
	if _, err := io.WriteString(s.stdin, line); err != nil {
		logger.Debug("writing to privileged session failed", "pid", s.pid(), "error", err)
	}
}

// close asks the shell to exit and waits up to exitGrace before
// killing it.
func (s *session) close(clk clock.Clock) error {
	_, writeErr := io.WriteString(s.stdin, "exit\n")
	s.stdin.Close()
	select {
	case <-s.done:
		return nil
	case <-clk.After(exitGrace):
	}
	if err := s.cmd.Process.Kill(); err != nil {
		return fmt.Errorf("killing session %d: %w", s.pid(), err)
	}
	<-s.done
	if writeErr != nil {
		return fmt.Errorf("sending exit to session %d: %w", s.pid(), writeErr)
	}
	return fmt.Errorf("session %d ignored exit and was killed", s.pid())
}

// discard releases a dead session's resources.
func (s *session) discard() {
	s.stdin.Close()
}
