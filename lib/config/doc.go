// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for
// qwdash-backlightd.
//
// Configuration is loaded from a single file named by either the
// QWDASH_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no automatic file search. Values missing
// from the file keep the [Default] values.
//
// Variable expansion is performed on path fields after loading:
// ${VAR} and ${VAR:-default} patterns are expanded from the
// environment, so the control socket can live under
// ${XDG_RUNTIME_DIR:-/run}. No other environment variables override
// config values.
//
// Durations are written the way time.ParseDuration reads them: "30s",
// "1m30s". Bare integers are rejected. A command_timeout of "0s" waits
// for privileged commands indefinitely.
package config
