package realtime

import (
	"context"

	"github.com/coldrackhq/coldrack-backend/pkg/config"
	"github.com/coldrackhq/coldrack-backend/pkg/enums"
	"github.com/coldrackhq/coldrack-backend/pkg/logger"
)

// Message is the coarse change notification pushed to dashboard clients.
// Clients react by refetching the affected collection.
type Message struct {
	Table  enums.ChangeTable  `json:"table"`
	Action enums.ChangeAction `json:"action"`
}

// Hub fans change messages out to connected websocket clients. All client
// set mutations happen on the Run goroutine.
type Hub struct {
	cfg  config.RealtimeConfig
	logg *logger.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan Message
	done       chan struct{}
	clients    map[*Client]struct{}
}

// NewHub constructs a hub. Run must be started before Subscribe is called.
func NewHub(cfg config.RealtimeConfig, logg *logger.Logger) *Hub {
	return &Hub{
		cfg:        cfg,
		logg:       logg,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Message, 64),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
	}
}

// Run owns the client set. Returns when the context is canceled, closing
// every client's message channel.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return ctx.Err()
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case msg := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Client cannot keep up; drop it rather than block
					// every other subscriber.
					delete(h.clients, client)
					close(client.send)
					if h.logg != nil {
						h.logg.Warn(ctx, "dropped slow realtime client")
					}
				}
			}
		}
	}
}

// Subscribe registers a new client with a buffered send channel.
func (h *Hub) Subscribe() *Client {
	client := &Client{
		hub:  h,
		send: make(chan Message, h.sendBuffer()),
	}
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
	return client
}

// Unsubscribe removes the client. Safe to call more than once.
func (h *Hub) Unsubscribe(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues a message for every connected client. Messages sent
// after the hub stops are discarded.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

func (h *Hub) sendBuffer() int {
	if h.cfg.SendBufferSize > 0 {
		return h.cfg.SendBufferSize
	}
	return 16
}
