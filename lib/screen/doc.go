// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

// Package screen assembles the backlight subsystem: the privileged
// shell, device discovery, the power controller, the idle scheduler
// and the status feed.
//
// Start never fails because the device is not rooted or has no
// backlight. Those conditions are reported as status lines and the
// Subsystem keeps answering queries with every write a no-op, so the
// surrounding application can run on unprivileged hardware.
package screen
