package events

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const writeTimeout = 5 * time.Second

// StreamHandler serves the live event feed over WebSocket.
type StreamHandler struct {
	hub            *Hub
	originPatterns []string
}

// NewStreamHandler creates a handler for hub. originPatterns follow
// websocket.AcceptOptions; "*" accepts any origin.
func NewStreamHandler(hub *Hub, originPatterns []string) *StreamHandler {
	return &StreamHandler{hub: hub, originPatterns: originPatterns}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "ip", r.RemoteAddr)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr)
		}
	}()

	events, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()
	slog.Info("Event stream subscriber connected", "ip", r.RemoteAddr, "subscribers", h.hub.Subscribers())

	// The feed is one-way; CloseRead handles control frames and cancels
	// ctx once the client goes away.
	ctx := ws.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			slog.Debug("Event stream subscriber disconnected", "ip", r.RemoteAddr)
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(ctx, ws, e); err != nil {
				slog.Debug("Event stream write failed", "error", err)
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, ws *websocket.Conn, e Event) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, ws, e)
}
