// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time so the idle scheduler, the status feed
// and the input debouncer can be driven deterministically in tests.
//
// Production code receives Real(). Tests receive Fake(t) and move time
// explicitly:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	scheduler := idle.NewScheduler(idle.Options{Clock: fake, ...})
//	scheduler.Start()
//	fake.Advance(30 * time.Second) // idle timer fires here
//
// A FakeClock fires waiters one at a time in deadline order. While a
// waiter fires, Now reports that waiter's deadline, so callbacks that
// arm follow-up timers schedule them relative to the moment they fired.
package clock
