// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

// Package status is the append-only sink for human-readable status
// lines ("screen on", "backlight path: ...") shown by consoles and the
// websocket feed. It keeps a bounded backlog and fans new lines out to
// subscribers.
package status
