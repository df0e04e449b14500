// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package screen

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/qwdash/qwdash/lib/clock"
	"github.com/qwdash/qwdash/lib/power"
	"github.com/qwdash/qwdash/lib/rootshell/rootshelltest"
)

const base = "/sys/class/backlight"

var (
	epoch      = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	writeMax   = "echo 4095 > " + base + "/panel1/brightness"
	writeFloor = "echo 1 > " + base + "/panel1/brightness"
)

func rootedScript() *rootshelltest.Script {
	return rootshelltest.New().
		Respond("ls "+base, "panel1\n").
		Respond("[ -f "+base+"/panel1/brightness ] && echo exists || echo 'not found'", "exists\n").
		Respond("cat "+base+"/panel1/max_brightness", "4095\n").
		Respond("cat "+base+"/panel1/brightness", "4095\n").
		Respond(writeMax, "").
		Respond(writeFloor, "")
}

func startSubsystem(t *testing.T, script *rootshelltest.Script, fake *clock.FakeClock) *Subsystem {
	t.Helper()
	subsystem, err := Start(context.Background(), Options{
		Shell:   script,
		BaseDir: base,
		Clock:   fake,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { subsystem.Shutdown() })
	return subsystem
}

func texts(subsystem *Subsystem) []string {
	var result []string
	for _, line := range subsystem.Lines(0) {
		result = append(result, line.Text)
	}
	return result
}

func TestStartRooted(t *testing.T) {
	script := rootedScript()
	subsystem := startSubsystem(t, script, clock.Fake(epoch))

	want := []string{
		"subsystem started",
		"requesting root access...",
		"root access granted",
		"backlight path: " + base + "/panel1/brightness",
	}
	if got := texts(subsystem); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("status lines = %q, want %q", got, want)
	}

	path, ok := subsystem.BacklightPath()
	if !ok || path != base+"/panel1/brightness" {
		t.Errorf("BacklightPath() = %q, %v", path, ok)
	}
	if !subsystem.IsScreenOn() {
		t.Error("IsScreenOn() = false after start")
	}
	if script.Count(writeMax)+script.Count(writeFloor) != 0 {
		t.Errorf("start wrote brightness: %v", script.Commands())
	}
}

func TestStartWarnsWhenFloorReachesMax(t *testing.T) {
	var logs bytes.Buffer
	subsystem, err := Start(context.Background(), Options{
		Shell:           rootedScript(),
		BaseDir:         base,
		FloorBrightness: 4095,
		Clock:           clock.Fake(epoch),
		Logger:          slog.New(slog.NewTextHandler(&logs, nil)),
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { subsystem.Shutdown() })

	lines := texts(subsystem)
	if last := lines[len(lines)-1]; last != "floor brightness 4095 is not below max 4095: dimming has no effect" {
		t.Errorf("last status line = %q", last)
	}
	if !strings.Contains(logs.String(), "floor brightness is not below the device maximum") {
		t.Errorf("no warning logged:\n%s", logs.String())
	}
}

func TestStartUnrooted(t *testing.T) {
	script := rootshelltest.New().SetElevated(false)
	fake := clock.Fake(epoch)
	subsystem := startSubsystem(t, script, fake)

	want := []string{
		"subsystem started",
		"requesting root access...",
		"root access failed: ensure the device is rooted",
		"backlight path not found",
	}
	if got := texts(subsystem); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("status lines = %q, want %q", got, want)
	}
	if _, ok := subsystem.BacklightPath(); ok {
		t.Error("BacklightPath() resolved without root")
	}

	// Every request degrades to a no-op.
	subsystem.OnUserActivity()
	subsystem.ForceScreenOff()
	fake.Advance(time.Minute)
	subsystem.Flush()
	if len(script.Commands()) != 0 {
		t.Errorf("unrooted subsystem issued commands: %v", script.Commands())
	}
	if !subsystem.IsScreenOn() {
		t.Error("believed state changed without a device")
	}

	report := subsystem.Status()
	if report.Resolved || report.Elevated {
		t.Errorf("Status() = %+v, want unresolved and unelevated", report)
	}
}

func TestIdleDimAndActivityThroughSubsystem(t *testing.T) {
	script := rootedScript()
	fake := clock.Fake(epoch)
	subsystem := startSubsystem(t, script, fake)
	script.Reset()

	fake.Advance(30 * time.Second)
	subsystem.Flush()
	if subsystem.IsScreenOn() {
		t.Fatal("IsScreenOn() = true after the idle timeout")
	}
	if got := script.Commands(); len(got) != 1 || got[0] != writeFloor {
		t.Fatalf("commands = %v, want a floor write", got)
	}

	report := subsystem.Status()
	if report.Phase != "dimmed" || report.ScreenOn {
		t.Errorf("Status() = %+v", report)
	}

	subsystem.OnUserActivity()
	subsystem.Flush()
	if !subsystem.IsScreenOn() {
		t.Fatal("IsScreenOn() = false after activity")
	}
	if script.Count(writeMax) != 1 {
		t.Errorf("commands = %v, want one max write", script.Commands())
	}
}

func TestForceScreenOffAndOn(t *testing.T) {
	script := rootedScript()
	subsystem := startSubsystem(t, script, clock.Fake(epoch))

	subsystem.ForceScreenOff()
	subsystem.Flush()
	if subsystem.IsScreenOn() {
		t.Fatal("IsScreenOn() = true after ForceScreenOff")
	}
	subsystem.ForceScreenOn()
	subsystem.Flush()
	if !subsystem.IsScreenOn() {
		t.Fatal("IsScreenOn() = false after ForceScreenOn")
	}

	lines := texts(subsystem)
	tail := strings.Join(lines[len(lines)-2:], "|")
	if tail != "screen forced off|screen forced on" {
		t.Errorf("last status lines = %q", lines[len(lines)-2:])
	}
}

func TestStatusReport(t *testing.T) {
	subsystem := startSubsystem(t, rootedScript(), clock.Fake(epoch))

	report := subsystem.Status()
	want := Report{
		ScreenOn:      true,
		Phase:         "active",
		BacklightPath: base + "/panel1/brightness",
		MaxBrightness: 4095,
		Resolved:      true,
		Elevated:      true,
		LastActivity:  epoch,
		Verification:  power.Unverified,
	}
	if report != want {
		t.Fatalf("Status() = %+v, want %+v", report, want)
	}
}

func TestLinesLimit(t *testing.T) {
	subsystem := startSubsystem(t, rootedScript(), clock.Fake(epoch))

	lines := subsystem.Lines(2)
	if len(lines) != 2 || lines[1].Text != "backlight path: "+base+"/panel1/brightness" {
		t.Fatalf("Lines(2) = %+v", lines)
	}
	if len(subsystem.Lines(0)) != 4 {
		t.Errorf("Lines(0) returned %d lines, want 4", len(subsystem.Lines(0)))
	}
}

func TestShutdownClosesShellOnce(t *testing.T) {
	script := rootedScript()
	fake := clock.Fake(epoch)
	subsystem := startSubsystem(t, script, fake)

	if err := subsystem.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := subsystem.Shutdown(); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}
	if !script.Closed() {
		t.Error("Shutdown did not close the shell")
	}
	if fake.Pending() != 0 {
		t.Errorf("Pending() = %d after Shutdown", fake.Pending())
	}

	// Requests after shutdown are ignored.
	script.Reset()
	subsystem.ForceScreenOff()
	subsystem.Flush()
	if len(script.Commands()) != 0 {
		t.Errorf("commands after Shutdown: %v", script.Commands())
	}
}

func TestStartCancelled(t *testing.T) {
	script := rootedScript()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Start(ctx, Options{Shell: script, BaseDir: base, Clock: clock.Fake(epoch)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Start err = %v, want context.Canceled", err)
	}
	if !script.Closed() {
		t.Error("cancelled Start left the shell open")
	}
}
