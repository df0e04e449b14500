// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file for Load.
const EnvironmentVariable = "QWDASH_CONFIG"

// Config is the qwdash-backlightd configuration.
type Config struct {
	Shell     ShellConfig     `yaml:"shell"`
	Backlight BacklightConfig `yaml:"backlight"`
	Idle      IdleConfig      `yaml:"idle"`
	Status    StatusConfig    `yaml:"status"`
	Control   ControlConfig   `yaml:"control"`
	Feed      FeedConfig      `yaml:"feed"`
	Input     InputConfig     `yaml:"input"`
	Wake      WakeConfig      `yaml:"wake"`
}

// ShellConfig configures the privileged command channel.
type ShellConfig struct {
	// SuPath is the elevation binary.
	// Default: su
	SuPath string `yaml:"su_path"`

	// CommandTimeout bounds one privileged command; 0 disables it.
	// Default: 15s
	CommandTimeout time.Duration `yaml:"command_timeout"`

	// SessionProbe checks the process table for the long-lived root
	// session before reusing it.
	// Default: true
	SessionProbe bool `yaml:"session_probe"`
}

// BacklightConfig configures discovery and writes.
type BacklightConfig struct {
	// BaseDir is scanned for backlight devices.
	// Default: /sys/class/backlight
	BaseDir string `yaml:"base_dir"`

	// FloorBrightness is written when the screen is off. It must stay
	// above zero.
	// Default: 1
	FloorBrightness int `yaml:"floor_brightness"`

	// VerifyWrites reads the brightness back after each write.
	// Default: false
	VerifyWrites bool `yaml:"verify_writes"`
}

// IdleConfig configures the idle scheduler.
type IdleConfig struct {
	// Timeout without activity before dimming.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// ReassertInterval between forced dims while dimmed.
	// Default: 30s
	ReassertInterval time.Duration `yaml:"reassert_interval"`
}

// StatusConfig configures the status feed.
type StatusConfig struct {
	// Capacity is how many lines are kept.
	// Default: 500
	Capacity int `yaml:"capacity"`
}

// ControlConfig configures the control socket.
type ControlConfig struct {
	// SocketPath is the Unix socket the CLI talks to.
	// Default: ${XDG_RUNTIME_DIR:-/run}/qwdash/backlight.sock
	SocketPath string `yaml:"socket_path"`

	// SocketMode is the socket file's permission bits, in octal.
	// Default: 0660
	SocketMode os.FileMode `yaml:"socket_mode"`
}

// FeedConfig configures the websocket status feed.
type FeedConfig struct {
	// Listen is the TCP address to serve on. Empty disables the feed.
	// Default: "" (disabled)
	Listen string `yaml:"listen"`

	// AllowedOrigins lists browser origins allowed to connect. Empty
	// allows same-host origins only.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// InputConfig configures the input activity monitor.
type InputConfig struct {
	// Enabled turns input monitoring on.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Dir holds the evdev nodes.
	// Default: /dev/input
	Dir string `yaml:"dir"`

	// Devices are glob patterns for node names in Dir.
	// Default: [event*]
	Devices []string `yaml:"devices"`

	// Debounce is the minimum spacing between activity signals.
	// Default: 250ms
	Debounce time.Duration `yaml:"debounce"`
}

// WakeConfig configures sleep/wake reassertion.
type WakeConfig struct {
	// Enabled turns the logind monitor on.
	// Default: true
	Enabled bool `yaml:"enabled"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Shell: ShellConfig{
			SuPath:         "su",
			CommandTimeout: 15 * time.Second,
			SessionProbe:   true,
		},
		Backlight: BacklightConfig{
			BaseDir:         "/sys/class/backlight",
			FloorBrightness: 1,
		},
		Idle: IdleConfig{
			Timeout:          30 * time.Second,
			ReassertInterval: 30 * time.Second,
		},
		Status: StatusConfig{
			Capacity: 500,
		},
		Control: ControlConfig{
			SocketPath: DefaultControlSocket(),
			SocketMode: 0o660,
		},
		Input: InputConfig{
			Enabled:  true,
			Dir:      "/dev/input",
			Devices:  []string{"event*"},
			Debounce: 250 * time.Millisecond,
		},
		Wake: WakeConfig{
			Enabled: true,
		},
	}
}

// DefaultSocketPath is the unexpanded default control socket path.
const DefaultSocketPath = "${XDG_RUNTIME_DIR:-/run}/qwdash/backlight.sock"

// DefaultControlSocket returns DefaultSocketPath expanded against the
// environment. The CLI uses it to find the daemon.
func DefaultControlSocket() string {
	return expandVars(DefaultSocketPath)
}

// Load loads configuration from the file named by QWDASH_CONFIG. It
// fails when the variable is not set.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your backlightd.yaml config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) expandVariables() {
	c.Shell.SuPath = expandVars(c.Shell.SuPath)
	c.Backlight.BaseDir = expandVars(c.Backlight.BaseDir)
	c.Control.SocketPath = expandVars(c.Control.SocketPath)
	c.Input.Dir = expandVars(c.Input.Dir)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} from the environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors, reporting all of them.
func (c *Config) Validate() error {
	var errs []error

	if c.Shell.SuPath == "" {
		errs = append(errs, errors.New("shell.su_path is required"))
	}
	if c.Shell.CommandTimeout < 0 {
		errs = append(errs, fmt.Errorf("shell.command_timeout must not be negative, got %s", c.Shell.CommandTimeout))
	}

	if c.Backlight.BaseDir == "" {
		errs = append(errs, errors.New("backlight.base_dir is required"))
	} else if !filepath.IsAbs(c.Backlight.BaseDir) {
		errs = append(errs, fmt.Errorf("backlight.base_dir must be absolute, got %q", c.Backlight.BaseDir))
	}
	if c.Backlight.FloorBrightness <= 0 {
		errs = append(errs, fmt.Errorf("backlight.floor_brightness must be greater than 0, got %d", c.Backlight.FloorBrightness))
	}

	if c.Idle.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("idle.timeout must be positive, got %s", c.Idle.Timeout))
	}
	if c.Idle.ReassertInterval <= 0 {
		errs = append(errs, fmt.Errorf("idle.reassert_interval must be positive, got %s", c.Idle.ReassertInterval))
	}

	if c.Status.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("status.capacity must be positive, got %d", c.Status.Capacity))
	}

	if c.Control.SocketPath == "" {
		errs = append(errs, errors.New("control.socket_path is required"))
	}
	if c.Control.SocketMode&^os.ModePerm != 0 {
		errs = append(errs, fmt.Errorf("control.socket_mode must be permission bits only, got %o", uint32(c.Control.SocketMode)))
	}

	if c.Input.Enabled {
		if c.Input.Dir == "" {
			errs = append(errs, errors.New("input.dir is required when input is enabled"))
		}
		for _, pattern := range c.Input.Devices {
			if _, err := filepath.Match(pattern, ""); err != nil {
				errs = append(errs, fmt.Errorf("input.devices: invalid pattern %q: %w", pattern, err))
			}
		}
		if c.Input.Debounce < 0 {
			errs = append(errs, fmt.Errorf("input.debounce must not be negative, got %s", c.Input.Debounce))
		}
	}

	return errors.Join(errs...)
}
