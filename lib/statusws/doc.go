// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

// Package statusws streams the status feed to websocket clients.
//
// A client that connects to /status/lines first receives the backlog,
// then every new line, each as a JSON text frame
//
//	{"time": "2026-02-01T09:00:30Z", "text": "screen dimmed to minimum (30s without activity)"}
//
// A client that falls too far behind is disconnected with a policy
// violation close frame and may reconnect to resynchronize from the
// backlog.
package statusws
