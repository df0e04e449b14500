// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

// Qwdash-backlightd owns the dashboard's backlight.
//
// It holds one privileged shell session, resolves the panel's sysfs
// backlight device through it and runs the idle scheduler that dims the
// screen to the floor brightness after a period without activity. The
// rest of the system reaches it through:
//
//   - the control socket (qwdash CLI, dashboard UI): activity,
//     screen-on, screen-off, status, lines
//   - the optional websocket status feed (feed.listen)
//   - input devices under /dev/input, any key press or motion counting
//     as activity
//   - logind's PrepareForSleep signal, which re-applies the brightness
//     after resume
//
// A device that is not rooted, or has no backlight, is not fatal: the
// daemon reports it as a status line and keeps answering queries.
//
// Configuration is read from --config, else from the file named by
// QWDASH_CONFIG, else the built-in defaults apply.
package main
