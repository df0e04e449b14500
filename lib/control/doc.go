// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

// Package control exposes the backlight subsystem on a Unix socket.
//
// The protocol is CBOR request-response with one request per
// connection. A request is a CBOR map with an "action" field and any
// action-specific fields. The response envelope is
//
//	{ok: true, data: <cbor>}   or   {ok: false, error: "..."}
//
// The actions registered by Register are:
//
//   - activity: report user activity.
//   - screen-on, screen-off: force the screen on or off. The reply is
//     sent after the resulting write finished.
//   - status: return a screen.Report.
//   - lines: return the most recent status lines, optionally capped
//     by a "limit" field.
//
// Client wraps the protocol for the qwdash CLI and other local
// processes. Access control is the socket file's permissions.
package control
