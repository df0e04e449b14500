// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

// Package consoleui is the live terminal console behind "qwdash
// watch".
//
// The console polls a Source (normally a control.Client) for the
// subsystem report and the recent status lines, shows the power state
// in a header and the lines in a scrolling viewport that follows the
// newest line until the user scrolls up. Keys force the screen on or
// off and simulate activity, which makes it a convenient way to
// exercise a dashboard's backlight from an SSH session.
package consoleui
