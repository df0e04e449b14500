// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package status

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/qwdash/qwdash/lib/clock"
)

// DefaultCapacity is the backlog size used when NewFeed gets zero.
const DefaultCapacity = 500

// subscriberBuffer is how many lines a subscriber may fall behind
// before it is dropped.
const subscriberBuffer = 64

// Line is one status message.
type Line struct {
	Time time.Time `json:"time"`
	Text string    `json:"text"`
}

// Feed stores the most recent lines and delivers new ones to
// subscribers. It is safe for concurrent use.
type Feed struct {
	clock    clock.Clock
	capacity int

	mu          sync.Mutex
	lines       []Line
	subscribers map[uint64]chan Line
	nextID      uint64
}

// NewFeed returns a Feed keeping at most capacity lines.
func NewFeed(capacity int, clk clock.Clock) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Feed{
		clock:       clk,
		capacity:    capacity,
		subscribers: make(map[uint64]chan Line),
	}
}

// Append records text as a new line. Trailing newlines are dropped;
// interior newlines split the text into several lines.
func (f *Feed) Append(text string) {
	text = strings.TrimRight(text, "\r\n")
	now := f.clock.Now()

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, part := range strings.Split(text, "\n") {
		f.appendLocked(Line{Time: now, Text: part})
	}
}

// Appendf formats and appends a line.
func (f *Feed) Appendf(format string, args ...any) {
	f.Append(fmt.Sprintf(format, args...))
}

// Lines returns the backlog, oldest first.
func (f *Feed) Lines() []Line {
	return f.Tail(0)
}

// Tail returns the most recent n lines, oldest first. n <= 0 returns
// the whole backlog.
func (f *Feed) Tail(n int) []Line {
	f.mu.Lock()
	defer f.mu.Unlock()
	start := 0
	if n > 0 && n < len(f.lines) {
		start = len(f.lines) - n
	}
	return append([]Line(nil), f.lines[start:]...)
}

// Subscribe delivers lines appended from now on. The returned channel
// is closed by cancel, or by the Feed when the subscriber falls more
// than a buffer behind.
func (f *Feed) Subscribe() (<-chan Line, func()) {
	_, lines, cancel := f.Follow()
	return lines, cancel
}

// Follow returns the current backlog and a subscription starting right
// after it, with no line lost or repeated in between.
func (f *Feed) Follow() ([]Line, <-chan Line, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	backlog := append([]Line(nil), f.lines...)
	f.nextID++
	id := f.nextID
	channel := make(chan Line, subscriberBuffer)
	f.subscribers[id] = channel

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if current, ok := f.subscribers[id]; ok {
				delete(f.subscribers, id)
				close(current)
			}
		})
	}
	return backlog, channel, cancel
}

func (f *Feed) appendLocked(line Line) {
	if len(f.lines) == f.capacity {
		copy(f.lines, f.lines[1:])
		f.lines = f.lines[:len(f.lines)-1]
	}
	f.lines = append(f.lines, line)

	for id, subscriber := range f.subscribers {
		select {
		case subscriber <- line:
		default:
			delete(f.subscribers, id)
			close(subscriber)
		}
	}
}
