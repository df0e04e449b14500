// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/qwdash/qwdash/lib/activity"
	"github.com/qwdash/qwdash/lib/clock"
	"github.com/qwdash/qwdash/lib/config"
	"github.com/qwdash/qwdash/lib/control"
	"github.com/qwdash/qwdash/lib/screen"
	"github.com/qwdash/qwdash/lib/statusws"
	"github.com/qwdash/qwdash/lib/wake"
)

// daemon wires the backlight subsystem to its control surfaces and
// activity sources.
type daemon struct {
	config *config.Config
	clock  clock.Clock
	logger *slog.Logger

	// ready is closed once the control socket accepts connections.
	ready chan struct{}
}

func newDaemon(cfg *config.Config, logger *slog.Logger) *daemon {
	return &daemon{
		config: cfg,
		clock:  clock.Real(),
		logger: logger,
		ready:  make(chan struct{}),
	}
}

// run starts everything and blocks until ctx is cancelled or the
// control socket or status feed fails. Shutdown stops the surfaces
// first, then the scheduler, then the privileged session.
func (d *daemon) run(ctx context.Context) error {
	cfg := d.config

	subsystem, err := screen.Start(ctx, screen.Options{
		SuPath:           cfg.Shell.SuPath,
		CommandTimeout:   cfg.Shell.CommandTimeout,
		ProbeSession:     cfg.Shell.SessionProbe,
		BaseDir:          cfg.Backlight.BaseDir,
		FloorBrightness:  cfg.Backlight.FloorBrightness,
		VerifyWrites:     cfg.Backlight.VerifyWrites,
		IdleTimeout:      cfg.Idle.Timeout,
		ReassertInterval: cfg.Idle.ReassertInterval,
		StatusCapacity:   cfg.Status.Capacity,
		Clock:            d.clock,
		Logger:           d.logger,
	})
	if err != nil {
		return fmt.Errorf("starting backlight subsystem: %w", err)
	}
	defer func() {
		if err := subsystem.Shutdown(); err != nil {
			d.logger.Error("backlight subsystem shutdown failed", "error", err)
		}
		d.logger.Info("backlight subsystem stopped")
	}()

	report := subsystem.Status()
	d.logger.Info("backlight subsystem started",
		"elevated", report.Elevated,
		"backlight_path", report.BacklightPath,
		"max_brightness", report.MaxBrightness,
	)

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	var wg sync.WaitGroup
	// essential runs fn in the background; its failure stops the daemon.
	essential := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(runCtx); err != nil {
				cancel(fmt.Errorf("%s: %w", name, err))
			}
		}()
	}
	// optional runs fn in the background; its failure is only logged.
	optional := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(runCtx); err != nil && runCtx.Err() == nil {
				d.logger.Warn(name+" stopped", "error", err)
			}
		}()
	}

	server := control.NewServer(cfg.Control.SocketPath, cfg.Control.SocketMode, d.logger)
	control.Register(server, subsystem)
	essential("control socket", server.Serve)
	go func() {
		select {
		case <-server.Ready():
			d.logger.Info("control socket listening", "socket_path", cfg.Control.SocketPath)
			close(d.ready)
		case <-runCtx.Done():
		}
	}()

	if cfg.Feed.Listen != "" {
		handler := statusws.NewHandler(statusws.Options{
			Feed:           subsystem.Feed(),
			AllowedOrigins: cfg.Feed.AllowedOrigins,
			Clock:          d.clock,
			Logger:         d.logger,
		})
		essential("status feed", func(ctx context.Context) error {
			d.logger.Info("status feed listening", "listen", cfg.Feed.Listen, "path", statusws.Path)
			return statusws.ListenAndServe(ctx, cfg.Feed.Listen, handler)
		})
	}

	if cfg.Input.Enabled {
		monitor := activity.NewMonitor(activity.Options{
			Dir:        cfg.Input.Dir,
			Patterns:   cfg.Input.Devices,
			Debounce:   cfg.Input.Debounce,
			OnActivity: subsystem.OnUserActivity,
			Clock:      d.clock,
			Logger:     d.logger,
		})
		optional("input monitor", monitor.Run)
	}

	if cfg.Wake.Enabled {
		monitor := wake.NewMonitor(wake.Options{
			OnResume: subsystem.Reassert,
			OnSuspend: func() {
				d.logger.Info("system suspending", "screen_on", subsystem.IsScreenOn())
			},
			Logger: d.logger,
		})
		optional("wake monitor", monitor.Run)
	}

	<-runCtx.Done()
	cause := context.Cause(runCtx)
	cancel(nil)
	wg.Wait()

	if ctx.Err() != nil && errors.Is(cause, ctx.Err()) {
		d.logger.Info("shutting down", "reason", cause.Error())
		return nil
	}
	return cause
}
