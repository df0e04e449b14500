// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package power

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/qwdash/qwdash/lib/backlight"
	"github.com/qwdash/qwdash/lib/rootshell"
	"github.com/qwdash/qwdash/lib/rootshell/rootshelltest"
)

var panel = backlight.Device{
	Name:              "panel1",
	BrightnessPath:    "/sys/class/backlight/panel1/brightness",
	MaxBrightnessPath: "/sys/class/backlight/panel1/max_brightness",
	MaxBrightness:     4095,
}

var (
	writeMax   = "echo 4095 > /sys/class/backlight/panel1/brightness"
	writeFloor = "echo 1 > /sys/class/backlight/panel1/brightness"
	readBack   = "cat /sys/class/backlight/panel1/brightness"
)

func newController(t *testing.T, verify bool) (*Controller, *rootshelltest.Script) {
	t.Helper()
	script := rootshelltest.New().Respond(writeMax, "").Respond(writeFloor, "")
	controller := NewController(ControllerOptions{
		Runner:       script,
		VerifyWrites: verify,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	controller.Init(panel)
	return controller, script
}

func TestInitialStateIsOn(t *testing.T) {
	controller, script := newController(t, false)
	if !controller.IsOn() {
		t.Fatal("IsOn() = false before any assert")
	}
	if len(script.Commands()) != 0 {
		t.Errorf("Init issued commands: %v", script.Commands())
	}
}

func TestAssertOnWithoutForceWhenOnIsNoop(t *testing.T) {
	controller, script := newController(t, false)

	if err := controller.AssertOn(context.Background(), false); err != nil {
		t.Fatalf("AssertOn: %v", err)
	}
	if n := len(script.Commands()); n != 0 {
		t.Fatalf("AssertOn(false) while on issued %d writes", n)
	}
}

func TestAssertOnWithForceAlwaysWrites(t *testing.T) {
	controller, script := newController(t, false)

	for range 3 {
		if err := controller.AssertOn(context.Background(), true); err != nil {
			t.Fatalf("AssertOn: %v", err)
		}
	}
	if n := script.Count(writeMax); n != 3 {
		t.Fatalf("forced AssertOn wrote %d times, want 3", n)
	}
	if !controller.IsOn() {
		t.Error("IsOn() = false after AssertOn")
	}
}

func TestAssertOffTwiceWritesOnce(t *testing.T) {
	controller, script := newController(t, false)

	if err := controller.AssertOff(context.Background(), false); err != nil {
		t.Fatalf("first AssertOff: %v", err)
	}
	if err := controller.AssertOff(context.Background(), false); err != nil {
		t.Fatalf("second AssertOff: %v", err)
	}

	if got := script.Commands(); len(got) != 1 || got[0] != writeFloor {
		t.Fatalf("commands = %v, want a single floor write", got)
	}
	if controller.IsOn() {
		t.Error("IsOn() = true after AssertOff")
	}
}

func TestAssertOnAfterOffWrites(t *testing.T) {
	controller, script := newController(t, false)
	ctx := context.Background()

	controller.AssertOff(ctx, false)
	controller.AssertOn(ctx, false)

	want := []string{writeFloor, writeMax}
	got := script.Commands()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("commands = %v, want %v", got, want)
	}
	if controller.Writes() != 2 {
		t.Errorf("Writes() = %d, want 2", controller.Writes())
	}
}

func TestCustomFloor(t *testing.T) {
	script := rootshelltest.New()
	controller := NewController(ControllerOptions{Runner: script, FloorBrightness: 7})
	controller.Init(panel)

	controller.AssertOff(context.Background(), true)

	if got := script.Commands(); len(got) != 1 || got[0] != "echo 7 > "+panel.BrightnessPath {
		t.Fatalf("commands = %v", got)
	}
}

func TestFloor(t *testing.T) {
	if got := NewController(ControllerOptions{}).Floor(); got != DefaultFloorBrightness {
		t.Errorf("default Floor() = %d, want %d", got, DefaultFloorBrightness)
	}
	if got := NewController(ControllerOptions{FloorBrightness: 9}).Floor(); got != 9 {
		t.Errorf("Floor() = %d, want 9", got)
	}
}

func TestUnresolvedDeviceIsNoop(t *testing.T) {
	script := rootshelltest.New()
	controller := NewController(ControllerOptions{Runner: script})

	if err := controller.AssertOn(context.Background(), true); !errors.Is(err, ErrDeviceUnresolved) {
		t.Errorf("AssertOn err = %v, want ErrDeviceUnresolved", err)
	}
	if err := controller.AssertOff(context.Background(), true); !errors.Is(err, ErrDeviceUnresolved) {
		t.Errorf("AssertOff err = %v, want ErrDeviceUnresolved", err)
	}
	if len(script.Commands()) != 0 {
		t.Errorf("unresolved controller issued commands: %v", script.Commands())
	}
	if _, ok := controller.BacklightDevice(); ok {
		t.Error("BacklightDevice() reported a device")
	}
	if !controller.IsOn() {
		t.Error("state changed without a device")
	}
}

func TestFailedWriteStillMovesState(t *testing.T) {
	script := rootshelltest.New().RespondResult(writeFloor, rootshell.Result{
		ExitCode: 1,
		Stderr:   "sh: can't create /sys/class/backlight/panel1/brightness: Permission denied\n",
	})
	controller := NewController(ControllerOptions{Runner: script})
	controller.Init(panel)

	err := controller.AssertOff(context.Background(), false)
	if err == nil {
		t.Fatal("AssertOff returned nil for a failed write")
	}
	if controller.IsOn() {
		t.Error("believed state did not follow the issued write")
	}
	// The failed write is not retried without force.
	controller.AssertOff(context.Background(), false)
	if n := script.Count(writeFloor); n != 1 {
		t.Errorf("floor written %d times, want 1", n)
	}
}

func TestVerification(t *testing.T) {
	controller, script := newController(t, true)
	ctx := context.Background()

	if controller.Verification() != Unverified {
		t.Fatalf("initial Verification = %q", controller.Verification())
	}

	script.Respond(readBack, "1\n")
	controller.AssertOff(ctx, false)
	if got := controller.Verification(); got != Verified {
		t.Errorf("after matching read-back Verification = %q, want verified", got)
	}

	// Something outside QWDash restored the brightness.
	script.Respond(readBack, "2000\n")
	controller.AssertOff(ctx, true)
	if got := controller.Verification(); got != Mismatch {
		t.Errorf("after mismatched read-back Verification = %q, want mismatch", got)
	}
	if controller.IsOn() {
		t.Error("verification changed the believed state")
	}
}

func TestVerificationDisabled(t *testing.T) {
	controller, script := newController(t, false)
	controller.AssertOff(context.Background(), false)
	if script.Count(readBack) != 0 {
		t.Error("read-back issued with verification disabled")
	}
	if controller.Verification() != Unverified {
		t.Errorf("Verification = %q", controller.Verification())
	}
}
