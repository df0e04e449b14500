// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package screen

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/qwdash/qwdash/lib/backlight"
	"github.com/qwdash/qwdash/lib/clock"
	"github.com/qwdash/qwdash/lib/idle"
	"github.com/qwdash/qwdash/lib/power"
	"github.com/qwdash/qwdash/lib/rootshell"
	"github.com/qwdash/qwdash/lib/status"
)

// Shell is the privileged command channel. *rootshell.Channel
// implements it.
type Shell interface {
	rootshell.Runner
	EnsureSession(ctx context.Context) bool
	Elevated() bool
	Close() error
}

// Options configures a Subsystem. Zero values select the defaults of
// the underlying packages.
type Options struct {
	// Shell replaces the su channel built from SuPath, CommandTimeout
	// and ProbeSession.
	Shell          Shell
	SuPath         string
	CommandTimeout time.Duration
	ProbeSession   bool

	BaseDir         string
	FloorBrightness int
	VerifyWrites    bool

	IdleTimeout      time.Duration
	ReassertInterval time.Duration

	StatusCapacity int

	Clock  clock.Clock
	Logger *slog.Logger
}

// Report is a point-in-time view of the subsystem.
type Report struct {
	ScreenOn      bool               `json:"screen_on"`
	Phase         string             `json:"phase"`
	BacklightPath string             `json:"backlight_path,omitempty"`
	MaxBrightness int                `json:"max_brightness,omitempty"`
	Resolved      bool               `json:"resolved"`
	Elevated      bool               `json:"elevated"`
	LastActivity  time.Time          `json:"last_activity"`
	Verification  power.Verification `json:"verification"`
}

// Subsystem is the running backlight subsystem.
type Subsystem struct {
	shell      Shell
	controller *power.Controller
	scheduler  *idle.Scheduler
	feed       *status.Feed
	logger     *slog.Logger

	shutdownOnce sync.Once
	shutdownErr  error
}

// Start acquires root access, discovers the backlight and starts the
// idle scheduler. The screen is assumed on and the idle timer is armed
// when Start returns. The returned error is non-nil only when ctx was
// cancelled during startup.
func Start(ctx context.Context, options Options) (*Subsystem, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := options.Clock
	if clk == nil {
		clk = clock.Real()
	}

	shell := options.Shell
	if shell == nil {
		shell = rootshell.New(rootshell.Options{
			SuPath:         options.SuPath,
			CommandTimeout: options.CommandTimeout,
			ProbeSession:   options.ProbeSession,
			Clock:          clk,
			Logger:         logger.With("component", "rootshell"),
		})
	}

	feed := status.NewFeed(options.StatusCapacity, clk)
	feed.Append("subsystem started")

	controller := power.NewController(power.ControllerOptions{
		Runner:          shell,
		FloorBrightness: options.FloorBrightness,
		VerifyWrites:    options.VerifyWrites,
		Logger:          logger.With("component", "power"),
	})

	feed.Append("requesting root access...")
	if shell.EnsureSession(ctx) {
		feed.Append("root access granted")
		logger.Info("root access granted")
	} else {
		feed.Append("root access failed: ensure the device is rooted")
		logger.Warn("root access failed, backlight control disabled")
	}
	if err := ctx.Err(); err != nil {
		shell.Close()
		return nil, err
	}

	baseDir := options.BaseDir
	if baseDir == "" {
		baseDir = backlight.DefaultBaseDir
	}
	if device, ok := backlight.Discover(ctx, shell, baseDir, logger.With("component", "backlight")); ok {
		controller.Init(device)
		feed.Append("backlight path: " + device.BrightnessPath)
		if floor := controller.Floor(); floor >= device.MaxBrightness {
			feed.Appendf("floor brightness %d is not below max %d: dimming has no effect", floor, device.MaxBrightness)
			logger.Warn("floor brightness is not below the device maximum",
				"floor_brightness", floor,
				"max_brightness", device.MaxBrightness,
				"backlight_path", device.BrightnessPath,
			)
		}
	} else {
		feed.Append("backlight path not found")
		logger.Warn("no backlight device found, backlight control disabled", "base_dir", baseDir)
	}
	if err := ctx.Err(); err != nil {
		shell.Close()
		return nil, err
	}

	scheduler := idle.NewScheduler(idle.Options{
		Controller:       controller,
		Clock:            clk,
		IdleTimeout:      options.IdleTimeout,
		ReassertInterval: options.ReassertInterval,
		Status:           feed,
		Logger:           logger.With("component", "idle"),
	})
	scheduler.Start()

	return &Subsystem{
		shell:      shell,
		controller: controller,
		scheduler:  scheduler,
		feed:       feed,
		logger:     logger,
	}, nil
}

// OnUserActivity reports a touch, key press or motion event.
func (s *Subsystem) OnUserActivity() { s.scheduler.OnUserActivity() }

// ForceScreenOn turns the screen on and restarts the idle timeout.
func (s *Subsystem) ForceScreenOn() { s.scheduler.ForceOn() }

// ForceScreenOff dims the screen until the next activity.
func (s *Subsystem) ForceScreenOff() { s.scheduler.ForceOff() }

// Reassert re-applies the current intent, as after resume from sleep.
func (s *Subsystem) Reassert() { s.scheduler.Reassert() }

// Flush waits until every request made so far has been written.
func (s *Subsystem) Flush() { s.scheduler.Flush() }

// IsScreenOn returns the believed power state.
func (s *Subsystem) IsScreenOn() bool { return s.controller.IsOn() }

// BacklightPath returns the brightness file in use.
func (s *Subsystem) BacklightPath() (string, bool) {
	device, ok := s.controller.BacklightDevice()
	return device.BrightnessPath, ok
}

// Feed returns the status feed.
func (s *Subsystem) Feed() *status.Feed { return s.feed }

// Lines returns the most recent status lines, all of them when limit
// is not positive.
func (s *Subsystem) Lines(limit int) []status.Line {
	if limit <= 0 {
		return s.feed.Lines()
	}
	return s.feed.Tail(limit)
}

// Status returns a Report.
func (s *Subsystem) Status() Report {
	device, resolved := s.controller.BacklightDevice()
	return Report{
		ScreenOn:      s.controller.IsOn(),
		Phase:         s.scheduler.State().String(),
		BacklightPath: device.BrightnessPath,
		MaxBrightness: device.MaxBrightness,
		Resolved:      resolved,
		Elevated:      s.shell.Elevated(),
		LastActivity:  s.scheduler.LastActivity(),
		Verification:  s.controller.Verification(),
	}
}

// Shutdown stops the scheduler, waiting for an in-flight write, then
// closes the privileged session. It is safe to call more than once.
func (s *Subsystem) Shutdown() error {
	s.shutdownOnce.Do(func() {
		s.scheduler.Stop()
		if err := s.shell.Close(); err != nil {
			s.shutdownErr = fmt.Errorf("closing root shell: %w", err)
			s.logger.Warn("closing root shell", "error", err)
		}
		s.logger.Info("backlight subsystem shut down")
	})
	return s.shutdownErr
}
