// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package wake

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const (
	loginPath      = "/org/freedesktop/login1"
	loginInterface = "org.freedesktop.login1.Manager"
	sleepMember    = "PrepareForSleep"
	sleepSignal    = loginInterface + "." + sleepMember
)

// Options configures a Monitor.
type Options struct {
	// OnResume is called after the system wakes.
	OnResume func()
	// OnSuspend is optional and called as the system goes to sleep.
	OnSuspend func()

	// Connect opens the bus connection. Nil uses the system bus.
	Connect func() (*dbus.Conn, error)

	Logger *slog.Logger
}

// Monitor listens for logind sleep transitions.
type Monitor struct {
	onResume  func()
	onSuspend func()
	connect   func() (*dbus.Conn, error)
	logger    *slog.Logger
}

// NewMonitor returns a Monitor; call Run to start listening.
func NewMonitor(options Options) *Monitor {
	monitor := &Monitor{
		onResume:  options.OnResume,
		onSuspend: options.OnSuspend,
		connect:   options.Connect,
		logger:    options.Logger,
	}
	if monitor.onResume == nil {
		monitor.onResume = func() {}
	}
	if monitor.onSuspend == nil {
		monitor.onSuspend = func() {}
	}
	if monitor.connect == nil {
		monitor.connect = func() (*dbus.Conn, error) { return dbus.ConnectSystemBus() }
	}
	if monitor.logger == nil {
		monitor.logger = slog.Default()
	}
	return monitor
}

// Run listens until ctx is cancelled. A missing system bus is not an
// error: the monitor logs it and returns nil, since the periodic
// reassert still covers resume.
func (m *Monitor) Run(ctx context.Context) error {
	conn, err := m.connect()
	if err != nil {
		m.logger.Debug("system bus unavailable, wake monitor disabled", "error", err)
		return nil
	}
	defer conn.Close()

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(loginPath),
		dbus.WithMatchInterface(loginInterface),
		dbus.WithMatchMember(sleepMember),
	); err != nil {
		return fmt.Errorf("subscribing to %s: %w", sleepSignal, err)
	}

	signals := make(chan *dbus.Signal, 8)
	conn.Signal(signals)
	defer conn.RemoveSignal(signals)

	m.logger.Info("wake monitor started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case signal, ok := <-signals:
			if !ok || signal == nil {
				m.logger.Warn("system bus connection closed, wake monitor stopped")
				return nil
			}
			m.handle(signal)
		}
	}
}

func (m *Monitor) handle(signal *dbus.Signal) {
	if signal.Name != sleepSignal || len(signal.Body) < 1 {
		return
	}
	entering, ok := signal.Body[0].(bool)
	if !ok {
		return
	}
	if entering {
		m.logger.Info("system going to sleep")
		m.onSuspend()
		return
	}
	m.logger.Info("system resumed")
	m.onResume()
}
