// Package websocket streams visible-set snapshots of the notification
// panel to connected admin dashboard sessions.
package websocket

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Hub maintains the set of connected admin sessions and fans each panel
// snapshot out to all of them. Every admin sees the same panel, so the
// hub only broadcasts; there is no per-user routing.
type Hub struct {
	// Registered sessions.
	clients map[*Client]bool

	// Outbound snapshots.
	broadcast chan []byte

	// Register requests from new sessions.
	register chan *Client

	// Unregister requests from closing sessions.
	unregister chan *Client

	stop     chan struct{}
	stopOnce sync.Once

	sessions atomic.Int32
	logger   *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		stop:       make(chan struct{}),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.sessions.Store(int32(len(h.clients)))
			h.logger.Info("admin session connected", "sessions", len(h.clients))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.sessions.Store(int32(len(h.clients)))
				h.logger.Info("admin session disconnected", "sessions", len(h.clients))
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer; drop the session rather than block
					// snapshot delivery to everyone else.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.sessions.Store(int32(len(h.clients)))
		case <-h.stop:
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.sessions.Store(0)
			return
		}
	}
}

// Broadcast sends a snapshot to every connected session. Safe to call
// after Stop; the message is discarded.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.stop:
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
}

// SessionCount reports the number of attached sessions.
func (h *Hub) SessionCount() int {
	return int(h.sessions.Load())
}
