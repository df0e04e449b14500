// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers. Fatal is the one
// place a QWDash binary writes raw text to stderr and exits, for
// errors from run() that may precede the structured logger.
package process
