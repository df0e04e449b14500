// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package activity

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/qwdash/qwdash/lib/clock"
)

const (
	// DefaultDir is where evdev nodes live.
	DefaultDir = "/dev/input"

	// DefaultDebounce is the minimum spacing between two signals.
	DefaultDebounce = 250 * time.Millisecond
)

// DefaultPatterns matches evdev nodes and skips the legacy mouse and
// joystick interfaces that duplicate them.
var DefaultPatterns = []string{"event*"}

// Options configures a Monitor.
type Options struct {
	Dir      string
	Patterns []string
	Debounce time.Duration

	// OnActivity is called from a reader goroutine. It must not
	// block; idle.Scheduler.OnUserActivity only posts an event.
	OnActivity func()

	Clock  clock.Clock
	Logger *slog.Logger
}

// Monitor watches input devices for user activity.
type Monitor struct {
	dir        string
	patterns   []string
	debounce   time.Duration
	onActivity func()
	clock      clock.Clock
	logger     *slog.Logger

	signalMu   sync.Mutex
	lastSignal time.Time
	signals    uint64

	devicesMu sync.Mutex
	devices   map[string]*device
}

// NewMonitor returns a Monitor; call Run to start reading.
func NewMonitor(options Options) *Monitor {
	monitor := &Monitor{
		dir:        options.Dir,
		patterns:   options.Patterns,
		debounce:   options.Debounce,
		onActivity: options.OnActivity,
		clock:      options.Clock,
		logger:     options.Logger,
		devices:    make(map[string]*device),
	}
	if monitor.dir == "" {
		monitor.dir = DefaultDir
	}
	if len(monitor.patterns) == 0 {
		monitor.patterns = DefaultPatterns
	}
	if monitor.debounce <= 0 {
		monitor.debounce = DefaultDebounce
	}
	if monitor.onActivity == nil {
		monitor.onActivity = func() {}
	}
	if monitor.clock == nil {
		monitor.clock = clock.Real()
	}
	if monitor.logger == nil {
		monitor.logger = slog.Default()
	}
	return monitor
}

// Devices returns the paths of the devices currently open.
func (m *Monitor) Devices() []string {
	m.devicesMu.Lock()
	defer m.devicesMu.Unlock()
	paths := make([]string, 0, len(m.devices))
	for path := range m.devices {
		paths = append(paths, path)
	}
	return paths
}

// Signals returns how many activity signals were delivered.
func (m *Monitor) Signals() uint64 {
	m.signalMu.Lock()
	defer m.signalMu.Unlock()
	return m.signals
}

func (m *Monitor) matches(path string) bool {
	if filepath.Dir(path) != filepath.Clean(m.dir) {
		return false
	}
	name := filepath.Base(path)
	for _, pattern := range m.patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// signal delivers one activity signal unless one was delivered less
// than the debounce interval ago.
func (m *Monitor) signal() {
	now := m.clock.Now()
	m.signalMu.Lock()
	if !m.lastSignal.IsZero() && now.Sub(m.lastSignal) < m.debounce {
		m.signalMu.Unlock()
		return
	}
	m.lastSignal = now
	m.signals++
	m.signalMu.Unlock()
	m.onActivity()
}
