// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"os"
	"os/user"
	"strconv"
	"syscall"
)

// DiagnoseSocketError turns a control socket dial failure into a
// ToolError with a hint. Returns nil when err is not one of the
// recognized failures and the caller should wrap it itself.
func DiagnoseSocketError(err error, socketPath string) *ToolError {
	switch {
	case errors.Is(err, syscall.ENOENT):
		return NotFound("control socket %s does not exist", socketPath).
			WithHint("Is qwdash-backlightd running? Start it, or pass --socket if it listens elsewhere.")

	case errors.Is(err, syscall.ECONNREFUSED):
		return Transient("nothing is listening on %s", socketPath).
			WithHint("The socket file is left over from a daemon that exited. Restart qwdash-backlightd.")

	case errors.Is(err, syscall.EACCES), errors.Is(err, syscall.EPERM):
		group := socketGroup(socketPath)
		if group == "" {
			return Forbidden("permission denied accessing %s", socketPath).
				WithHint("Check the socket's ownership and mode: ls -la " + socketPath)
		}
		return Forbidden("permission denied accessing %s", socketPath).
			WithHint("The socket belongs to the " + group + " group. Add your user to it and log in again:\n" +
				"  sudo usermod -aG " + group + " $USER")
	}
	return nil
}

// socketGroup returns the name of the group owning path, or "" if it
// cannot be determined.
func socketGroup(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return ""
	}
	group, err := user.LookupGroupId(strconv.FormatUint(uint64(stat.Gid), 10))
	if err != nil {
		return ""
	}
	return group.Name
}
