// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides QWDash's CBOR encoding configuration.
//
// CBOR frames the control socket protocol between qwdash-backlightd
// and its clients. JSON is used for everything a person or a browser
// reads: CLI --json output and the websocket status feed.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (sockets):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// # Struct Tag Rules
//
// A `cbor` tag marks a type that only ever crosses the control socket.
// A `json` tag marks a type that is also printed as JSON; fxamacker/cbor
// reads `json` tags when `cbor` tags are absent, so one tag names the
// field in both formats. Never put both tags on the same field.
package codec
