// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package power

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/qwdash/qwdash/lib/backlight"
	"github.com/qwdash/qwdash/lib/rootshell"
)

// DefaultFloorBrightness is the "off" level. It stays above zero so
// the panel never goes fully black and unrecoverable.
const DefaultFloorBrightness = 1

// ErrDeviceUnresolved is returned by asserts when no backlight device
// was resolved.
var ErrDeviceUnresolved = errors.New("backlight device not resolved")

// State is the believed power state.
type State int

const (
	// On means the backlight is believed to be at maximum.
	On State = iota
	// Off means the backlight is believed to be at the floor.
	Off
)

func (s State) String() string {
	if s == Off {
		return "off"
	}
	return "on"
}

// Verification is the outcome of reading a write back.
type Verification string

const (
	// Unverified means read-back is disabled or nothing was written.
	Unverified Verification = "unverified"
	// Verified means the last write read back as written.
	Verified Verification = "verified"
	// Mismatch means the last write read back differently.
	Mismatch Verification = "mismatch"
)

// ControllerOptions configures a Controller.
type ControllerOptions struct {
	Runner rootshell.Runner

	// FloorBrightness is written by AssertOff. Zero means
	// DefaultFloorBrightness.
	FloorBrightness int

	// VerifyWrites reads the brightness file back after each write.
	VerifyWrites bool

	Logger *slog.Logger
}

// Controller is the power state machine for one backlight device.
// Methods are safe for concurrent use.
type Controller struct {
	runner rootshell.Runner
	floor  int
	verify bool
	logger *slog.Logger

	writeMu sync.Mutex

	mu           sync.Mutex
	device       backlight.Device
	resolved     bool
	state        State
	verification Verification
	writes       int
}

// NewController returns a Controller in the On state with no device.
// Until Init is called every assert returns ErrDeviceUnresolved.
func NewController(options ControllerOptions) *Controller {
	controller := &Controller{
		runner:       options.Runner,
		floor:        options.FloorBrightness,
		verify:       options.VerifyWrites,
		logger:       options.Logger,
		state:        On,
		verification: Unverified,
	}
	if controller.floor <= 0 {
		controller.floor = DefaultFloorBrightness
	}
	if controller.logger == nil {
		controller.logger = slog.Default()
	}
	return controller
}

// Init installs the resolved device.
func (c *Controller) Init(device backlight.Device) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.device = device
	c.resolved = true
	c.logger.Info("power controller ready",
		"backlight_path", device.BrightnessPath,
		"max_brightness", device.MaxBrightness,
		"floor_brightness", c.floor,
	)
}

// Floor is the brightness written by AssertOff.
func (c *Controller) Floor() int { return c.floor }

// AssertOn writes the maximum brightness if the state is Off or force
// is set, and moves to On.
func (c *Controller) AssertOn(ctx context.Context, force bool) error {
	return c.assert(ctx, On, force)
}

// AssertOff writes the floor brightness if the state is On or force
// is set, and moves to Off.
func (c *Controller) AssertOff(ctx context.Context, force bool) error {
	return c.assert(ctx, Off, force)
}

// IsOn reports whether the backlight is believed to be on.
func (c *Controller) IsOn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == On
}

// State returns the believed state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// BacklightDevice returns the resolved device, if any.
func (c *Controller) BacklightDevice() (backlight.Device, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.device, c.resolved
}

// Verification returns the read-back outcome of the last write.
func (c *Controller) Verification() Verification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verification
}

// Writes returns how many brightness writes were issued.
func (c *Controller) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

func (c *Controller) assert(ctx context.Context, target State, force bool) error {
	// Writes are serialized; state reads stay available meanwhile.
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	if !c.resolved {
		c.mu.Unlock()
		c.logger.Debug("assert skipped, no backlight device", "target", target.String(), "force", force)
		return ErrDeviceUnresolved
	}
	if c.state == target && !force {
		c.mu.Unlock()
		c.logger.Debug("backlight already in target state", "state", target.String())
		return nil
	}
	device := c.device
	value := device.MaxBrightness
	if target == Off {
		value = c.floor
	}
	c.state = target
	c.verification = Unverified
	c.writes++
	c.mu.Unlock()

	result := c.runner.Run(ctx, backlight.WriteCommand(device.BrightnessPath, value))
	if result.Failed() {
		return fmt.Errorf("writing brightness %d to %s: %w", value, device.BrightnessPath, result.Error())
	}
	c.logger.Debug("backlight asserted", "state", target.String(), "brightness", value, "force", force)

	if c.verify {
		verification := c.readBack(ctx, device, value)
		c.mu.Lock()
		c.verification = verification
		c.mu.Unlock()
	}
	return nil
}

func (c *Controller) readBack(ctx context.Context, device backlight.Device, written int) Verification {
	readBack, err := backlight.ReadBrightness(ctx, c.runner, device)
	switch {
	case err != nil:
		c.logger.Warn("brightness read-back failed", "backlight_path", device.BrightnessPath, "error", err)
		return Unverified
	case readBack != written:
		c.logger.Warn("brightness read-back mismatch",
			"backlight_path", device.BrightnessPath,
			"written", written,
			"read_back", readBack,
		)
		return Mismatch
	}
	return Verified
}
