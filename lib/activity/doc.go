// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

// Package activity turns Linux input events into user-activity
// signals for the idle scheduler.
//
// A Monitor reads every evdev node in a directory (normally
// /dev/input/event*) and calls OnActivity for key presses and for
// absolute or relative motion, which covers touch panels, mice and
// keyboards. Bursts are debounced: a touch drag produces hundreds of
// events a second but at most one signal per Debounce interval.
//
// The directory is watched with fsnotify so devices plugged in later
// are opened and removed devices are closed. A device that cannot be
// opened is logged and skipped. Reading /dev/input normally needs root
// or membership of the input group.
package activity
