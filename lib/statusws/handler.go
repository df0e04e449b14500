// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package statusws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/qwdash/qwdash/lib/clock"
	"github.com/qwdash/qwdash/lib/status"
)

// Path is where the feed is served.
const Path = "/status/lines"

const (
	// DefaultPingInterval is how often an idle connection is pinged.
	DefaultPingInterval = 30 * time.Second

	writeTimeout      = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Options configures a Handler.
type Options struct {
	Feed *status.Feed

	// AllowedOrigins lists browser origins that may connect. Requests
	// without an Origin header are always accepted; when the list is
	// empty, only same-host origins are.
	AllowedOrigins []string

	PingInterval time.Duration
	Clock        clock.Clock
	Logger       *slog.Logger
}

// Handler upgrades requests to websocket status streams.
type Handler struct {
	feed         *status.Feed
	pingInterval time.Duration
	clock        clock.Clock
	logger       *slog.Logger
	origins      map[string]bool
	upgrader     websocket.Upgrader
}

// NewHandler returns a Handler for options.Feed.
func NewHandler(options Options) *Handler {
	handler := &Handler{
		feed:         options.Feed,
		pingInterval: options.PingInterval,
		clock:        options.Clock,
		logger:       options.Logger,
		origins:      make(map[string]bool),
	}
	if handler.pingInterval <= 0 {
		handler.pingInterval = DefaultPingInterval
	}
	if handler.clock == nil {
		handler.clock = clock.Real()
	}
	if handler.logger == nil {
		handler.logger = slog.Default()
	}
	for _, origin := range options.AllowedOrigins {
		handler.origins[origin] = true
	}
	handler.upgrader = websocket.Upgrader{CheckOrigin: handler.checkOrigin}
	return handler
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(h.origins) > 0 {
		return h.origins[origin]
	}
	parsed, err := url.Parse(origin)
	return err == nil && parsed.Host == r.Host
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	h.logger.Debug("status feed client connected", "remote", r.RemoteAddr)
	reason := h.stream(r.Context(), conn)
	h.logger.Debug("status feed client disconnected", "remote", r.RemoteAddr, "reason", reason)
}

// stream writes the backlog and follows the feed until the client
// leaves, falls behind, or ctx ends. It returns why it stopped.
func (h *Handler) stream(ctx context.Context, conn *websocket.Conn) string {
	backlog, lines, cancel := h.feed.Follow()
	defer cancel()

	// The reader only exists to process control frames and notice the
	// client going away.
	gone := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for _, line := range backlog {
		if err := h.writeLine(conn, line); err != nil {
			return "write failed"
		}
	}

	ticker := h.clock.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				h.close(conn, websocket.ClosePolicyViolation, "client too slow")
				return "too slow"
			}
			if err := h.writeLine(conn, line); err != nil {
				return "write failed"
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return "ping failed"
			}
		case <-gone:
			return "client closed"
		case <-ctx.Done():
			h.close(conn, websocket.CloseGoingAway, "shutting down")
			return "shutdown"
		}
	}
}

func (h *Handler) writeLine(conn *websocket.Conn, line status.Line) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(line)
}

func (h *Handler) close(conn *websocket.Conn, code int, text string) {
	message := websocket.FormatCloseMessage(code, text)
	conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(writeTimeout))
}

// ListenAndServe serves the feed at Path on address until ctx is
// cancelled.
func ListenAndServe(ctx context.Context, address string, handler *Handler) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", address, err)
	}
	return Serve(ctx, listener, handler)
}

// Serve serves the feed at Path on listener until ctx is cancelled.
func Serve(ctx context.Context, listener net.Listener, handler *Handler) error {
	mux := http.NewServeMux()
	mux.Handle("GET "+Path, handler)

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	handler.logger.Info("status feed listening", "address", listener.Addr().String(), "path", Path)
	err := server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		<-done
		return nil
	}
	return err
}
