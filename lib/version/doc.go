// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for QWDash
// binaries.
//
// Four package-level variables are injected at build time via
// -ldflags -X:
//
//   - [GitCommit] -- short git SHA of the build
//   - [GitDirty] -- "true" if there were uncommitted changes
//   - [BuildTime] -- UTC timestamp of the build
//   - [Version] -- semantic version string (set manually for releases)
//
// These default to "unknown" / "0.1.0-dev" when not injected, which
// occurs during development builds and test runs.
//
// [Info] is the one-line --version string, [Full] adds the Go version
// and platform, and [Current] returns the same data as a struct for
// JSON output.
package version
