package realtime

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

// Client is one subscriber. Messages arrive on the send channel until the
// hub closes it.
type Client struct {
	hub  *Hub
	send chan Message
}

// Messages returns the channel the hub delivers on. The channel closes when
// the client is unsubscribed or dropped.
func (c *Client) Messages() <-chan Message {
	return c.send
}

// WritePump copies hub messages onto the websocket connection, pinging on
// the configured interval. It unsubscribes and closes the connection on the
// way out, so the caller only needs to run the read side.
func (c *Client) WritePump(ctx context.Context, conn *websocket.Conn) {
	cfg := c.hub.cfg
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.hub.Unsubscribe(c)
		conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
