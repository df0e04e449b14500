// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

// Qwdash is the operator CLI for qwdash-backlightd.
//
// Every command except "version" talks to the daemon over its control
// socket, located with --socket or, by default, at
// ${XDG_RUNTIME_DIR:-/run}/qwdash/backlight.sock:
//
//	qwdash status            screen state, backlight path and phase
//	qwdash lines --limit 20  the most recent status lines
//	qwdash on | off          force the screen on or dim it to the floor
//	qwdash activity          report user activity, restarting the idle timer
//	qwdash watch             live terminal console
//	qwdash version           build information
//
// "qwdash status" exits 3 when the screen is dimmed so scripts can
// branch on the exit status alone.
package main
