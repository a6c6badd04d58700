package chat

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// writeWait is the time allowed to write a single frame to the peer.
const writeWait = 10 * time.Second

// Client is the handle for one WebSocket connection. It carries the
// outbound send channel the coordinator pushes frames into; the
// coordinator itself tracks whether the connection is bound to a room.
type Client struct {
	// id uniquely identifies the connection (not the user; a user id
	// only exists once the connection has joined a room).
	id string

	conn  *websocket.Conn
	coord *Coordinator

	// mu guards send against a concurrent close. Closing happens once,
	// from the coordinator's disconnect handling.
	mu   sync.RWMutex
	send chan []byte
}

func newClient(coord *Coordinator, conn *websocket.Conn) *Client {
	return &Client{
		id:    uuid.NewString(),
		conn:  conn,
		coord: coord,
		send:  make(chan []byte, 256),
	}
}

// trySend queues a frame for delivery without blocking. Frames to a
// closed or saturated connection are dropped; a dead recipient must
// never stall a broadcast to the rest of the room.
func (c *Client) trySend(frame []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.send == nil {
		return
	}
	select {
	case c.send <- frame:
	default:
		slog.Warn("Client send channel full, dropping frame", "connID", c.id)
	}
}

// closeSend closes the client's send channel exactly once, which in
// turn terminates the writePump.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.send != nil {
		close(c.send)
		c.send = nil
	}
}

// readPump reads frames from the WebSocket connection and hands them to
// the coordinator. It runs once per connection; when the read loop ends
// the connection is detached, which triggers the disconnect cleanup
// path exactly once.
func (c *Client) readPump() {
	defer func() {
		c.coord.Detach(c)
		c.conn.Close(websocket.StatusNormalClosure, "client disconnected")
	}()

	for {
		_, frame, err := c.conn.Read(context.Background())
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				slog.Info("WebSocket closed by client", "connID", c.id)
			} else if err != io.EOF {
				slog.Error("WebSocket read error", "connID", c.id, "error", err)
			}
			break
		}
		c.coord.Deliver(c, frame)
	}
}

// writePump drains the send channel into the WebSocket connection. It
// exits when the coordinator closes the channel.
func (c *Client) writePump() {
	defer c.conn.Close(websocket.StatusNormalClosure, "server-side cleanup")

	c.mu.RLock()
	send := c.send
	c.mu.RUnlock()
	if send == nil {
		// The connection was detached before the pump started.
		return
	}

	for frame := range send {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		err := c.conn.Write(ctx, websocket.MessageText, frame)
		cancel()
		if err != nil {
			slog.Error("WebSocket write error", "connID", c.id, "error", err)
			return
		}
	}
}
