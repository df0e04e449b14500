// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/qwdash/qwdash/lib/codec"
	"github.com/qwdash/qwdash/lib/screen"
	"github.com/qwdash/qwdash/lib/status"
)

// dialTimeout covers only the connect phase.
const dialTimeout = 5 * time.Second

// responseReadTimeout matches the server's read plus write timeouts.
const responseReadTimeout = 45 * time.Second

const maxResponseSize = 4 * 1024 * 1024

const unknownActionPrefix = "unknown action"

// ErrUnknownAction matches a *ServiceError for an action the server
// does not implement, typically a newer CLI talking to an older
// daemon.
var ErrUnknownAction = errors.New(unknownActionPrefix)

// ServiceError is returned by Call when the server answers ok=false.
type ServiceError struct {
	Action  string
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("control error on %q: %s", e.Action, e.Message)
}

// Is reports whether the server rejected the action as unknown.
func (e *ServiceError) Is(target error) bool {
	return target == ErrUnknownAction && strings.HasPrefix(e.Message, unknownActionPrefix)
}

// Client sends requests to a control socket. Each Call opens a new
// connection.
type Client struct {
	socketPath string
}

// NewClient returns a Client for socketPath.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// SocketPath returns the socket the client dials.
func (c *Client) SocketPath() string { return c.socketPath }

// Call sends action with fields and decodes the response data into
// result when both are non-nil. fields must not contain "action".
// Server-side failures are returned as *ServiceError; connection and
// encoding failures as plain errors.
func (c *Client) Call(ctx context.Context, action string, fields map[string]any, result any) error {
	request := make(map[string]any, len(fields)+1)
	for key, value := range fields {
		request[key] = value
	}
	request["action"] = action

	response, err := c.send(ctx, request)
	if err != nil {
		return fmt.Errorf("calling %q on %s: %w", action, c.socketPath, err)
	}
	if !response.OK {
		return &ServiceError{Action: action, Message: response.Error}
	}
	if result != nil && len(response.Data) > 0 {
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return fmt.Errorf("decoding response data for %q: %w", action, err)
		}
	}
	return nil
}

// Activity reports user activity.
func (c *Client) Activity(ctx context.Context) error {
	return c.Call(ctx, ActionActivity, nil, nil)
}

// ScreenOn forces the screen on.
func (c *Client) ScreenOn(ctx context.Context) error {
	return c.Call(ctx, ActionScreenOn, nil, nil)
}

// ScreenOff forces the screen off.
func (c *Client) ScreenOff(ctx context.Context) error {
	return c.Call(ctx, ActionScreenOff, nil, nil)
}

// Status fetches the subsystem report.
func (c *Client) Status(ctx context.Context) (screen.Report, error) {
	var report screen.Report
	err := c.Call(ctx, ActionStatus, nil, &report)
	return report, err
}

// Lines fetches the most recent status lines, all of them when limit
// is not positive.
func (c *Client) Lines(ctx context.Context, limit int) ([]status.Line, error) {
	var fields map[string]any
	if limit > 0 {
		fields = map[string]any{"limit": limit}
	}
	var response LinesResponse
	if err := c.Call(ctx, ActionLines, fields, &response); err != nil {
		return nil, err
	}
	return response.Lines, nil
}

func (c *Client) send(ctx context.Context, request any) (*Response, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	if _, ok := ctx.Deadline(); !ok {
		conn.SetReadDeadline(time.Now().Add(responseReadTimeout))
	}
	var response Response
	if err := codec.NewDecoder(io.LimitReader(conn, maxResponseSize)).Decode(&response); err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return &response, nil
}
