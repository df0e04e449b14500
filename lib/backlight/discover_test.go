// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package backlight

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/qwdash/qwdash/lib/rootshell"
	"github.com/qwdash/qwdash/lib/rootshell/rootshelltest"
)

const base = "/sys/class/backlight"

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func existsCommand(device string) string {
	return "[ -f " + base + "/" + device + "/brightness ] && echo exists || echo 'not found'"
}

func TestDiscoverSelectsFirstDeviceWithBrightness(t *testing.T) {
	script := rootshelltest.New().
		Respond("ls "+base, "panel0\npanel1\n").
		Respond(existsCommand("panel0"), "not found\n").
		Respond(existsCommand("panel1"), "exists\n").
		Respond("cat "+base+"/panel1/max_brightness", "4095\n").
		Respond("cat "+base+"/panel1/brightness", "1200\n")

	device, ok := Discover(context.Background(), script, base, quietLogger)

	if !ok {
		t.Fatal("Discover() found nothing")
	}
	if device.BrightnessPath != base+"/panel1/brightness" {
		t.Errorf("BrightnessPath = %q", device.BrightnessPath)
	}
	if device.MaxBrightnessPath != base+"/panel1/max_brightness" {
		t.Errorf("MaxBrightnessPath = %q", device.MaxBrightnessPath)
	}
	if device.MaxBrightness != 4095 {
		t.Errorf("MaxBrightness = %d, want 4095", device.MaxBrightness)
	}
	if device.Name != "panel1" {
		t.Errorf("Name = %q, want panel1", device.Name)
	}
}

func TestDiscoverStopsAtFirstMatch(t *testing.T) {
	script := rootshelltest.New().
		Respond("ls "+base, "a\nb\n").
		Respond(existsCommand("a"), "exists\n").
		Respond(existsCommand("b"), "exists\n").
		Respond("cat "+base+"/a/max_brightness", "100\n")

	device, ok := Discover(context.Background(), script, base, quietLogger)

	if !ok || device.Name != "a" {
		t.Fatalf("Discover() = %+v, %v; want device a", device, ok)
	}
	if script.Count(existsCommand("b")) != 0 {
		t.Error("candidate b was examined after a matched")
	}
}

func TestDiscoverNone(t *testing.T) {
	tests := []struct {
		name   string
		script *rootshelltest.Script
	}{
		{
			name:   "empty listing",
			script: rootshelltest.New().Respond("ls "+base, ""),
		},
		{
			name: "listing fails",
			script: rootshelltest.New().RespondResult("ls "+base, rootshell.Result{
				ExitCode: 2,
				Stderr:   "ls: cannot access '/sys/class/backlight': No such file or directory\n",
			}),
		},
		{
			name:   "not elevated",
			script: rootshelltest.New().SetElevated(false),
		},
		{
			name: "no brightness file",
			script: rootshelltest.New().
				Respond("ls "+base, "panel0\npanel1\n").
				Respond(existsCommand("panel0"), "not found\n").
				Respond(existsCommand("panel1"), "not found\n"),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if device, ok := Discover(context.Background(), test.script, base, quietLogger); ok {
				t.Fatalf("Discover() = %+v, want none", device)
			}
		})
	}
}

func TestDiscoverMaxBrightnessFallback(t *testing.T) {
	tests := []struct {
		name   string
		result rootshell.Result
	}{
		{"non-numeric", rootshell.Result{Stdout: "bright\n"}},
		{"empty", rootshell.Result{Stdout: ""}},
		{"zero", rootshell.Result{Stdout: "0\n"}},
		{"unreadable", rootshell.Result{ExitCode: 1, Stderr: "Permission denied\n"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			script := rootshelltest.New().
				Respond("ls "+base, "panel0\n").
				Respond(existsCommand("panel0"), "exists\n").
				RespondResult("cat "+base+"/panel0/max_brightness", test.result)

			device, ok := Discover(context.Background(), script, base, quietLogger)
			if !ok {
				t.Fatal("Discover() found nothing")
			}
			if device.MaxBrightness != DefaultMaxBrightness {
				t.Errorf("MaxBrightness = %d, want %d", device.MaxBrightness, DefaultMaxBrightness)
			}
		})
	}
}

func TestReadBrightness(t *testing.T) {
	device := Device{BrightnessPath: base + "/panel0/brightness"}
	script := rootshelltest.New().Respond("cat "+device.BrightnessPath, " 42\n")

	value, err := ReadBrightness(context.Background(), script, device)
	if err != nil {
		t.Fatalf("ReadBrightness: %v", err)
	}
	if value != 42 {
		t.Errorf("ReadBrightness = %d, want 42", value)
	}

	script.Respond("cat "+device.BrightnessPath, "garbage")
	if _, err := ReadBrightness(context.Background(), script, device); err == nil {
		t.Error("ReadBrightness accepted non-numeric content")
	}
}

func TestWriteCommand(t *testing.T) {
	if got := WriteCommand(base+"/panel1/brightness", 4095); got != "echo 4095 > "+base+"/panel1/brightness" {
		t.Errorf("WriteCommand = %q", got)
	}
}

func TestQuote(t *testing.T) {
	tests := map[string]string{
		"/sys/class/backlight/intel_backlight": "/sys/class/backlight/intel_backlight",
		"":                                     "''",
		"/tmp/with space":                      "'/tmp/with space'",
		"it's":                                 `'it'\''s'`,
		"/tmp/$(reboot)":                       "'/tmp/$(reboot)'",
	}
	for input, want := range tests {
		if got := Quote(input); got != want {
			t.Errorf("Quote(%q) = %q, want %q", input, got, want)
		}
	}
}
