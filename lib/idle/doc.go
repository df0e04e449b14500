// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

// Package idle turns user activity and elapsed time into backlight
// power intents.
//
// A Scheduler owns two timers. The idle timer fires after IdleTimeout
// without activity and dims the screen with a non-forced AssertOff.
// Dimming arms the reassert timer, which re-applies a forced AssertOff
// every ReassertInterval for as long as the screen stays dimmed,
// undoing any brightness restored behind QWDash's back. Activity
// cancels both timers, forces the screen on and re-arms the idle timer.
//
// All decisions are made on one event loop goroutine. Timer callbacks
// only post events tagged with the generation of the timer that
// produced them, so a callback that raced with a cancellation is
// recognized as stale and ignored. Device writes run on a single
// worker goroutine in the order they were decided, so a slow
// privileged command never stalls the loop and two writes never race.
package idle
