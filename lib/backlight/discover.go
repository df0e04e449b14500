// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package backlight

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/qwdash/qwdash/lib/rootshell"
)

const (
	// DefaultBaseDir is the sysfs class directory holding one
	// subdirectory per backlight device.
	DefaultBaseDir = "/sys/class/backlight"

	// DefaultMaxBrightness is used when max_brightness cannot be
	// parsed.
	DefaultMaxBrightness = 255

	brightnessFile    = "brightness"
	maxBrightnessFile = "max_brightness"
	existsMarker      = "exists"
)

// Device is a resolved backlight control surface. It is immutable;
// re-run Discover to pick up a different device.
type Device struct {
	// Name is the device directory name, such as "panel1".
	Name string `json:"name"`

	// BrightnessPath is the file brightness values are written to.
	BrightnessPath string `json:"brightness_path"`

	// MaxBrightnessPath is the sibling file holding the maximum.
	MaxBrightnessPath string `json:"max_brightness_path"`

	// MaxBrightness is the parsed maximum, or DefaultMaxBrightness.
	MaxBrightness int `json:"max_brightness"`
}

// Discover resolves the first device under baseDir that has a
// brightness file. It returns false when the listing fails or is
// empty, or when no entry passes the existence test. A nil logger
// uses slog.Default().
func Discover(ctx context.Context, runner rootshell.Runner, baseDir string, logger *slog.Logger) (Device, bool) {
	if logger == nil {
		logger = slog.Default()
	}
	if baseDir == "" {
		baseDir = DefaultBaseDir
	}
	logger = logger.With("base_dir", baseDir)

	listing := runner.Run(ctx, "ls "+Quote(baseDir))
	if listing.Failed() {
		logger.Warn("listing backlight directory failed", "error", listing.Error())
		return Device{}, false
	}
	entries := strings.Fields(listing.Stdout)
	if len(entries) == 0 {
		logger.Warn("backlight directory is empty")
		return Device{}, false
	}

	for _, entry := range entries {
		directory := filepath.Join(baseDir, entry)
		brightnessPath := filepath.Join(directory, brightnessFile)
		if !exists(ctx, runner, brightnessPath) {
			logger.Debug("backlight candidate has no brightness file", "candidate", entry)
			continue
		}

		device := Device{
			Name:              entry,
			BrightnessPath:    brightnessPath,
			MaxBrightnessPath: filepath.Join(directory, maxBrightnessFile),
		}
		device.MaxBrightness = readMax(ctx, runner, device.MaxBrightnessPath, logger)

		attributes := []any{
			"device", device.Name,
			"backlight_path", device.BrightnessPath,
			"max_brightness", device.MaxBrightness,
		}
		if current, err := ReadBrightness(ctx, runner, device); err == nil {
			attributes = append(attributes, "current_brightness", current)
		}
		logger.Info("backlight device resolved", attributes...)
		return device, true
	}

	logger.Warn("no backlight device exposes a brightness file", "candidates", len(entries))
	return Device{}, false
}

// ReadBrightness returns the value currently in the device's
// brightness file.
func ReadBrightness(ctx context.Context, runner rootshell.Runner, device Device) (int, error) {
	result := runner.Run(ctx, "cat "+Quote(device.BrightnessPath))
	if result.Failed() {
		return 0, fmt.Errorf("reading %s: %w", device.BrightnessPath, result.Error())
	}
	value, err := parseInt(result.Stdout)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", device.BrightnessPath, err)
	}
	return value, nil
}

// WriteCommand is the shell command that stores value in path.
func WriteCommand(path string, value int) string {
	return fmt.Sprintf("echo %d > %s", value, Quote(path))
}

func exists(ctx context.Context, runner rootshell.Runner, path string) bool {
	quoted := Quote(path)
	result := runner.Run(ctx, "[ -f "+quoted+" ] && echo "+existsMarker+" || echo 'not found'")
	return result.Err == nil && strings.TrimSpace(result.Stdout) == existsMarker
}

func readMax(ctx context.Context, runner rootshell.Runner, path string, logger *slog.Logger) int {
	result := runner.Run(ctx, "cat "+Quote(path))
	if result.Failed() {
		logger.Warn("reading max brightness failed, using default",
			"path", path, "default", DefaultMaxBrightness, "error", result.Error())
		return DefaultMaxBrightness
	}
	value, err := parseInt(result.Stdout)
	if err != nil || value <= 0 {
		logger.Warn("unparsable max brightness, using default",
			"path", path, "content", strings.TrimSpace(result.Stdout), "default", DefaultMaxBrightness)
		return DefaultMaxBrightness
	}
	return value
}

func parseInt(output string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(output))
}
