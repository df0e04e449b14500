// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

// Package wake reports resume from system sleep.
//
// Firmware and display drivers commonly restore the panel's brightness
// on resume, which silently undoes a dimmed screen. A Monitor listens
// for logind's PrepareForSleep signal on the system bus and calls
// OnResume when the system wakes, so the caller can reassert its
// intended brightness immediately instead of waiting for the next
// periodic reassert.
package wake
