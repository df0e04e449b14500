// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

// Package power holds the believed on/off state of the backlight and
// turns asserted intents into brightness writes.
//
// AssertOn writes the device maximum and AssertOff writes the floor
// brightness. Without force, an assert that matches the believed state
// is a no-op; with force the write always happens, which is how
// out-of-band brightness changes get corrected. The believed state
// follows every issued write whether or not the write succeeded; the
// periodic reassertion in package idle is the compensating control.
package power
