// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds helpers shared by QWDash package tests.
//
// [RequireReceive], [RequireNoReceive] and [RequireClosed] wrap the
// select-with-timeout pattern so individual tests never call time.After
// themselves. [SocketDir] returns a short directory for Unix sockets,
// whose paths are limited to 108 bytes.
package testutil
