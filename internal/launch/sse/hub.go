package sse

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Event represents a Server-Sent Event
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client represents a connected SSE client
type Client struct {
	ID     string
	UserID string
	Events chan Event
}

// Hub manages all SSE client connections
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

// NewHub creates a new SSE Hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger.Named("sse"),
	}
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("client registered",
		zap.String("client_id", client.ID), zap.String("user_id", client.UserID), zap.Int("total", len(h.clients)))
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("client unregistered", zap.String("client_id", clientID), zap.Int("total", len(h.clients)))
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to all connected clients
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		h.deliver(client, event)
	}
}

// SendToUser sends an event to every connection of one user
func (h *Hub) SendToUser(userID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.UserID == userID {
			h.deliver(client, event)
		}
	}
}

// deliver never blocks; a full buffer drops the event. Caller holds h.mu.
func (h *Hub) deliver(client *Client, event Event) {
	select {
	case client.Events <- event:
	default:
		h.logger.Warn("client buffer full, dropping event",
			zap.String("client_id", client.ID), zap.String("event", event.EventType))
	}
}

func encode(v interface{}) string {
	b, _ := json.Marshal(v)
	return string(b)
}

// PublishProductUpdate announces product level changes (create, update, status, delete)
func (h *Hub) PublishProductUpdate(productID, action string) {
	h.Broadcast(Event{
		EventType: "product_update",
		Data:      encode(map[string]string{"product_id": productID, "action": action}),
	})
}

// PublishActivityUpdate announces an activity change to everyone
func (h *Hub) PublishActivityUpdate(productID, activityID, action string) {
	h.Broadcast(Event{
		EventType: "activity_update",
		Data:      encode(map[string]string{"product_id": productID, "activity_id": activityID, "action": action}),
	})
}

// PublishUserActivityUpdate refreshes one user's activity list
func (h *Hub) PublishUserActivityUpdate(userID, productID, activityID, action string) {
	h.SendToUser(userID, Event{
		EventType: "my_activity_update",
		Data:      encode(map[string]string{"product_id": productID, "activity_id": activityID, "action": action}),
	})
}
