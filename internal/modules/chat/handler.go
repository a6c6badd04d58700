package chat

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
)

// Handler holds dependencies for the chat module's HTTP handlers.
type Handler struct {
	coord   *Coordinator
	origins []string
}

// NewHandler creates a new chat handler with its dependencies.
func NewHandler(coord *Coordinator, origins []string) *Handler {
	return &Handler{coord: coord, origins: origins}
}

// ServeWS upgrades the request to a WebSocket connection and hands it
// to the session coordinator. The connection arrives anonymous and
// stays unbound until a join_room event succeeds.
func (h *Handler) ServeWS(c echo.Context) error {
	opts := &websocket.AcceptOptions{}
	if len(h.origins) == 1 && h.origins[0] == "*" {
		opts.InsecureSkipVerify = true
	} else {
		opts.OriginPatterns = h.origins
	}

	conn, err := websocket.Accept(c.Response(), c.Request(), opts)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket connection", "error", err)
		return c.String(http.StatusInternalServerError, "Failed to upgrade to WebSocket")
	}

	client := newClient(h.coord, conn)
	h.coord.Attach(client)
	slog.Debug("WebSocket connection established", "connID", client.id)

	go client.writePump()
	go client.readPump()

	return nil
}
