// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package activity

import (
	"context"
	"errors"
)

type device struct{}

// Run reports that input monitoring is unavailable.
func (m *Monitor) Run(context.Context) error {
	return errors.New("input activity monitoring requires linux evdev")
}
