// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package rootshell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/qwdash/qwdash/lib/clock"
)

// DefaultSuPath is the su binary used when Options.SuPath is empty.
const DefaultSuPath = "su"

// killGrace bounds how long Wait keeps reading output after a timed
// out command's process group was killed.
const killGrace = 2 * time.Second

// maxLineLength is the longest single output line captured.
const maxLineLength = 1024 * 1024

// Options configures a Channel.
type Options struct {
	// SuPath is the elevation binary. It is started bare for the
	// session and as "<SuPath> -c <command>" for each command.
	SuPath string

	// CommandTimeout bounds a single Run. Zero waits for the command
	// indefinitely.
	CommandTimeout time.Duration

	// ProbeSession asks the process table, not only the Wait result,
	// whether the session is still alive before each reuse.
	ProbeSession bool

	Clock  clock.Clock
	Logger *slog.Logger
}

// Channel runs privileged commands. It is safe for concurrent use,
// though QWDash only calls it from the scheduler's worker.
type Channel struct {
	suPath  string
	timeout time.Duration
	probe   bool
	clock   clock.Clock
	logger  *slog.Logger

	mu      sync.Mutex
	session *session
	closed  bool
}

// New returns a Channel. No process is started until EnsureSession or
// Run is called.
func New(options Options) *Channel {
	channel := &Channel{
		suPath:  options.SuPath,
		timeout: options.CommandTimeout,
		probe:   options.ProbeSession,
		clock:   options.Clock,
		logger:  options.Logger,
	}
	if channel.suPath == "" {
		channel.suPath = DefaultSuPath
	}
	if channel.clock == nil {
		channel.clock = clock.Real()
	}
	if channel.logger == nil {
		channel.logger = slog.Default()
	}
	return channel
}

// EnsureSession reports whether a privileged session is usable,
// starting one if none exists or the previous one died.
func (c *Channel) EnsureSession(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.ensureLocked(ctx)
	return err == nil
}

// Elevated reports whether a live session exists, without starting
// one.
func (c *Channel) Elevated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil && c.session.alive(c.probe)
}

// Run executes command as "su -c <command>" and returns its captured
// output. It never returns a Go error; failures are described by the
// Result.
func (c *Channel) Run(ctx context.Context, command string) Result {
	start := c.clock.Now()

	c.mu.Lock()
	session, err := c.ensureLocked(ctx)
	if err == nil {
		session.annotate(command, c.logger)
	}
	c.mu.Unlock()

	var result Result
	if err != nil {
		result = notExecuted(err)
	} else {
		result = c.execute(ctx, command)
	}
	c.audit(command, result, c.clock.Now().Sub(start))
	return result
}

// Close ends the session by sending "exit", then kills it if it does
// not exit promptly. Later Run calls fail with ErrClosed.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.session == nil {
		return nil
	}
	err := c.session.close(c.clock)
	c.session = nil
	if err != nil {
		c.logger.Warn("privileged session did not exit cleanly", "error", err)
		return err
	}
	c.logger.Info("privileged session closed")
	return nil
}

func (c *Channel) ensureLocked(ctx context.Context) (*session, error) {
	if c.closed {
		return nil, ErrClosed
	}
	if c.session != nil {
		if c.session.alive(c.probe) {
			return c.session, nil
		}
		c.logger.Warn("privileged session exited, restarting",
			"pid", c.session.pid(),
			"error", c.session.exitError(),
		)
		c.session.discard()
		c.session = nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	started, err := startSession(c.suPath)
	if err != nil {
		c.logger.Warn("privileged session unavailable", "su_path", c.suPath, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrElevation, err)
	}
	c.session = started
	c.logger.Info("privileged session started", "su_path", c.suPath, "pid", started.pid())
	return started, nil
}

func (c *Channel) execute(ctx context.Context, command string) Result {
	runContext := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runContext, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runContext, c.suPath, "-c", command)
	// Own process group, so a timeout kills the shell's children too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}
	cmd.WaitDelay = killGrace

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return notExecuted(fmt.Errorf("stdout pipe: %w", err))
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return notExecuted(fmt.Errorf("stderr pipe: %w", err))
	}
	if err := cmd.Start(); err != nil {
		return notExecuted(fmt.Errorf("starting %s: %w", c.suPath, err))
	}

	var stdout, stderr string
	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		stdout = drainLines(stdoutPipe)
	}()
	go func() {
		defer readers.Done()
		stderr = drainLines(stderrPipe)
	}()
	readers.Wait()
	waitErr := cmd.Wait()

	result := Result{Stdout: stdout, Stderr: stderr, ExitCode: -1}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}
	if waitErr == nil {
		return result
	}

	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		result.ExitCode = -1
		result.Err = ctx.Err()
	case runContext.Err() != nil:
		result.ExitCode = -1
		result.Err = fmt.Errorf("%w after %v", ErrTimeout, c.timeout)
	case errors.As(waitErr, &exitErr):
		// Ran and exited non-zero; ExitCode already says so.
	default:
		result.Err = waitErr
	}
	return result
}

// audit logs every command with its outcome.
func (c *Channel) audit(command string, result Result, elapsed time.Duration) {
	if result.Failed() || result.Stderr != "" {
		c.logger.Warn("privileged command failed",
			"command", command,
			"exit_code", result.ExitCode,
			"stderr", trimOutput(result.Stderr),
			"error", result.Error(),
			"duration", elapsed,
		)
		return
	}
	c.logger.Debug("privileged command",
		"command", command,
		"exit_code", result.ExitCode,
		"stdout", trimOutput(result.Stdout),
		"duration", elapsed,
	)
}

// drainLines reads r line by line until EOF, keeping each line with a
// trailing newline.
func drainLines(r io.Reader) string {
	var output strings.Builder
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)
	for scanner.Scan() {
		output.WriteString(scanner.Text())
		output.WriteByte('\n')
	}
	if scanner.Err() != nil {
		// Keep the pipe flowing so the child is never blocked on write.
		_, _ = io.Copy(io.Discard, r)
	}
	return output.String()
}

func trimOutput(output string) string {
	const limit = 512
	output = strings.TrimSpace(output)
	if len(output) > limit {
		return output[:limit] + "..."
	}
	return output
}
