// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// FakeClock is a manually advanced Clock. It is safe for concurrent
// use. Callbacks and channel sends happen in the goroutine calling
// Advance, never while the clock's lock is held, so a callback may
// itself call AfterFunc, Stop or Now.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	nextID  uint64
	pending []*pendingWait
	changed chan struct{}
}

// pendingWait is one registered timer, ticker or After channel.
type pendingWait struct {
	id       uint64
	deadline time.Time
	period   time.Duration
	callback func()
	channel  chan time.Time
}

// Fake returns a FakeClock that reports start until advanced.
func Fake(start time.Time) *FakeClock {
	return &FakeClock{now: start, changed: make(chan struct{})}
}

// Now returns the fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After returns a channel that receives once the clock has advanced
// by d.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	channel := make(chan time.Time, 1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if d <= 0 {
		channel <- c.now
		return channel
	}
	c.addLocked(&pendingWait{deadline: c.now.Add(d), channel: channel})
	return channel
}

// AfterFunc registers f to run during the Advance call that crosses
// now+d. A non-positive d runs f before AfterFunc returns.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		f()
		return &Timer{stop: func() bool { return false }}
	}
	c.mu.Lock()
	wait := &pendingWait{deadline: c.now.Add(d), callback: f}
	c.addLocked(wait)
	c.mu.Unlock()
	return &Timer{stop: func() bool { return c.remove(wait.id) }}
}

// NewTicker returns a ticker that fires every d of fake time.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive ticker period")
	}
	channel := make(chan time.Time, 1)
	c.mu.Lock()
	wait := &pendingWait{deadline: c.now.Add(d), period: d, channel: channel}
	c.addLocked(wait)
	c.mu.Unlock()
	return &Ticker{C: channel, stop: func() { c.remove(wait.id) }}
}

// Advance moves the clock forward by d, firing every waiter whose
// deadline is reached, earliest first. Waiters registered by a
// callback fire in the same Advance if their deadline also falls
// inside the window.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		if len(c.pending) == 0 || c.pending[0].deadline.After(target) {
			c.now = target
			c.mu.Unlock()
			return
		}
		wait := c.pending[0]
		c.pending = c.pending[1:]
		if wait.deadline.After(c.now) {
			c.now = wait.deadline
		}
		firedAt := c.now
		if wait.period > 0 {
			wait.deadline = wait.deadline.Add(wait.period)
			c.insertLocked(wait)
		}
		c.mu.Unlock()

		if wait.callback != nil {
			wait.callback()
			continue
		}
		select {
		case wait.channel <- firedAt:
		default:
		}
	}
}

// Pending reports how many timers, tickers and After channels are
// still waiting to fire.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// WaitForPending blocks until at least n waiters are registered. Tests
// use it when another goroutine arms a timer asynchronously.
func (c *FakeClock) WaitForPending(n int) {
	for {
		c.mu.Lock()
		if len(c.pending) >= n {
			c.mu.Unlock()
			return
		}
		changed := c.changed
		c.mu.Unlock()
		<-changed
	}
}

func (c *FakeClock) addLocked(wait *pendingWait) {
	c.nextID++
	wait.id = c.nextID
	c.insertLocked(wait)
	close(c.changed)
	c.changed = make(chan struct{})
}

// insertLocked keeps pending ordered by deadline, then registration
// order.
func (c *FakeClock) insertLocked(wait *pendingWait) {
	index := sort.Search(len(c.pending), func(i int) bool {
		other := c.pending[i]
		if other.deadline.Equal(wait.deadline) {
			return other.id > wait.id
		}
		return other.deadline.After(wait.deadline)
	})
	c.pending = append(c.pending, nil)
	copy(c.pending[index+1:], c.pending[index:])
	c.pending[index] = wait
}

func (c *FakeClock) remove(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, wait := range c.pending {
		if wait.id == id {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return true
		}
	}
	return false
}
