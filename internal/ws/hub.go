// Package ws carries dispatcher traffic over websockets: one Client per
// socket and a Hub that routes events to connections by ID.
package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/mcoot/duoplay/internal/model"
)

// Hub holds every live client keyed by connection ID. It implements the
// dispatcher's Sender.
type Hub struct {
	clients map[model.ConnectionID]*Client
	mu      sync.RWMutex
	logger  *slog.Logger
}

// NewHub creates an empty Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[model.ConnectionID]*Client),
		logger:  logger.With(slog.String("component", "ws")),
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.id] = client
	clientCount := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("ws client registered",
		slog.String("conn", string(client.id)),
		slog.String("user", string(client.identity.UserID)),
		slog.Int("total_clients", clientCount))
}

// Unregister removes a client and closes its outbound queue
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	current, ok := h.clients[client.id]
	if ok && current == client {
		delete(h.clients, client.id)
	}
	clientCount := len(h.clients)
	h.mu.Unlock()
	if !ok || current != client {
		return
	}
	client.closeSend()
	h.logger.Info("ws client unregistered",
		slog.String("conn", string(client.id)),
		slog.Duration("connection_duration", client.clock.Now().Sub(client.connectedAt)),
		slog.Int("total_clients", clientCount))
}

// Send queues ev for conn. A full queue drops the event.
func (h *Hub) Send(conn model.ConnectionID, ev model.Event) {
	h.mu.RLock()
	client, ok := h.clients[conn]
	h.mu.RUnlock()
	if !ok {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("ws event encode failed",
			slog.String("type", string(ev.Type)),
			slog.String("error", err.Error()))
		return
	}
	if !client.enqueue(data) {
		h.logger.Warn("ws message dropped - client buffer full",
			slog.String("conn", string(conn)),
			slog.String("type", string(ev.Type)))
	}
}

// Close ends conn's session. The write pump sends a close frame once the
// queue drains.
func (h *Hub) Close(conn model.ConnectionID) {
	h.mu.RLock()
	client, ok := h.clients[conn]
	h.mu.RUnlock()
	if ok {
		client.closeSend()
	}
}

// Shutdown closes every client
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for id, client := range h.clients {
		clients = append(clients, client)
		delete(h.clients, id)
	}
	h.mu.Unlock()

	for _, client := range clients {
		client.closeSend()
	}
	h.logger.Info("ws hub stopped", slog.Int("disconnected_clients", len(clients)))
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
