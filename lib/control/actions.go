// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"context"
	"fmt"

	"github.com/qwdash/qwdash/lib/codec"
	"github.com/qwdash/qwdash/lib/screen"
	"github.com/qwdash/qwdash/lib/status"
)

// Action names.
const (
	ActionActivity  = "activity"
	ActionScreenOn  = "screen-on"
	ActionScreenOff = "screen-off"
	ActionStatus    = "status"
	ActionLines     = "lines"
)

// Backlight is the subsystem surface served over the socket.
// *screen.Subsystem implements it.
type Backlight interface {
	OnUserActivity()
	ForceScreenOn()
	ForceScreenOff()
	Flush()
	Status() screen.Report
	Lines(limit int) []status.Line
}

// LinesRequest is the body of a lines request.
type LinesRequest struct {
	Limit int `cbor:"limit,omitempty"`
}

// LinesResponse is the data of a lines reply.
type LinesResponse struct {
	Lines []status.Line `json:"lines"`
}

// Register installs the backlight actions on server.
func Register(server *Server, backlight Backlight) {
	server.Handle(ActionActivity, func(context.Context, []byte) (any, error) {
		backlight.OnUserActivity()
		return nil, nil
	})
	server.Handle(ActionScreenOn, func(context.Context, []byte) (any, error) {
		backlight.ForceScreenOn()
		backlight.Flush()
		return nil, nil
	})
	server.Handle(ActionScreenOff, func(context.Context, []byte) (any, error) {
		backlight.ForceScreenOff()
		backlight.Flush()
		return nil, nil
	})
	server.Handle(ActionStatus, func(context.Context, []byte) (any, error) {
		return backlight.Status(), nil
	})
	server.Handle(ActionLines, func(_ context.Context, raw []byte) (any, error) {
		var request LinesRequest
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, fmt.Errorf("invalid lines request: %w", err)
		}
		if request.Limit < 0 {
			return nil, fmt.Errorf("limit must not be negative, got %d", request.Limit)
		}
		return LinesResponse{Lines: backlight.Lines(request.Limit)}, nil
	})
}
