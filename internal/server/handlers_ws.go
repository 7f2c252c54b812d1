package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/pawhncho/futurepulse/internal/metrics"
	"github.com/pawhncho/futurepulse/internal/notify"
)

const feedWriteDeadline = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Feeds are public; no origin restriction
	},
}

// acquireConn enforces connection limits and upgrades the request.
// The returned release function must be deferred.
func (s *Server) acquireConn(c echo.Context) (*websocket.Conn, func(), error) {
	ip := c.RealIP()

	ok, reason := s.limits.Acquire(ip)
	if !ok {
		metrics.WebSocketConnectionsRejected.WithLabelValues(string(reason)).Inc()
		slog.Warn("WebSocket connection rejected", "ip", ip, "reason", reason)
		return nil, nil, echo.NewHTTPError(http.StatusServiceUnavailable, "connection limit reached")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.limits.Release(ip)
		return nil, nil, fmt.Errorf("failed to upgrade WebSocket: %w", err)
	}

	metrics.WebSocketActiveConnections.Inc()
	release := func() {
		metrics.WebSocketActiveConnections.Dec()
		s.limits.Release(ip)
		_ = conn.Close()
	}
	return conn, release, nil
}

// handleReportFeed serves the report pull feed: every inbound frame, whatever
// its content, triggers a fresh snapshot pushed back on the same connection.
func (s *Server) handleReportFeed(c echo.Context) error {
	conn, release, err := s.acquireConn(c)
	if err != nil {
		return err
	}
	defer release()

	s.servePullFeed(c, conn, func() (any, error) {
		return s.feeds.ReportSnapshot(c.Request().Context())
	})
	return nil
}

// handlePredictionFeed serves the prediction pull feed.
func (s *Server) handlePredictionFeed(c echo.Context) error {
	conn, release, err := s.acquireConn(c)
	if err != nil {
		return err
	}
	defer release()

	s.servePullFeed(c, conn, func() (any, error) {
		return s.feeds.PredictionSnapshot(c.Request().Context())
	})
	return nil
}

// servePullFeed runs the poll loop until the client disconnects. A snapshot
// failure is reported to this client as an error frame; the connection stays
// open for subsequent polls.
func (s *Server) servePullFeed(c echo.Context, conn *websocket.Conn, snapshot func() (any, error)) {
	for {
		// Inbound message content is ignored; any frame is a poll trigger.
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}

		data, err := snapshot()
		_ = conn.SetWriteDeadline(s.clock.Now().Add(feedWriteDeadline))
		if err != nil {
			slog.Error("Snapshot query failed", "path", c.Path(), "error", err)
			if err := conn.WriteJSON(map[string]string{"error": "failed to load snapshot"}); err != nil {
				return
			}
			continue
		}

		if err := conn.WriteJSON(data); err != nil {
			return
		}
	}
}

// handleNotifications registers the connection on the notifications topic and
// keeps it open until the client disconnects. The hub owns all outbound writes.
func (s *Server) handleNotifications(c echo.Context) error {
	conn, release, err := s.acquireConn(c)
	if err != nil {
		return err
	}
	defer release()

	if err := s.hub.Subscribe(notify.TopicNotifications, conn); err != nil {
		slog.Error("Failed to subscribe to notifications", "error", err)
		return nil
	}

	// Read pump - blocks until the connection closes, then synchronously
	// unregisters before resources are released.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.hub.Unsubscribe(notify.TopicNotifications, conn)
	return nil
}
