// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/qwdash/qwdash/lib/config"
	"github.com/qwdash/qwdash/lib/process"
	"github.com/qwdash/qwdash/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		logLevel    string
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("qwdash-backlightd", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to backlightd.yaml (default $"+config.EnvironmentVariable+", else built-in defaults)")
	flagSet.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("qwdash-backlightd %s\n", version.Info())
		return nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, source, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", source, err)
	}
	logger.Info("starting qwdash-backlightd",
		"version", version.Short(),
		"config", source,
		"socket_path", cfg.Control.SocketPath,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return newDaemon(cfg, logger).run(ctx)
}

// loadConfig resolves the configuration source: the --config flag,
// then QWDASH_CONFIG, then the defaults. It also returns a description
// of the source for logging.
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.LoadFile(path)
		return cfg, path, err
	}
	if envPath := os.Getenv(config.EnvironmentVariable); envPath != "" {
		cfg, err := config.Load()
		return cfg, envPath, err
	}
	return config.Default(), "defaults", nil
}
