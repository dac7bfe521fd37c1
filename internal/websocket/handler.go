package websocket

import (
	"log/slog"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/set-night/screenwatch/internal/service"
)

// ServeWs attaches a websocket peer to the event broadcaster. The
// subscription replays the retained latest event of each topic before live
// traffic, so a client connecting mid-session immediately sees current
// state.
func ServeWs(events *service.Broadcaster, c *websocket.Conn) {
	client := &Client{
		ID:     uuid.New(),
		Conn:   c,
		Events: events,
		Sub:    events.Subscribe(),
	}
	slog.Debug("websocket client connected", "client_id", client.ID)

	go client.writePump()
	client.readPump()

	slog.Debug("websocket client disconnected", "client_id", client.ID)
}
