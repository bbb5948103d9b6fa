// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/plexwatch/internal/logging"
	"github.com/tomtom215/plexwatch/internal/metrics"
)

// Message types for WebSocket communication
const (
	MessageTypePing              = "ping"
	MessageTypePong              = "pong"
	MessageTypeSnapshotPublished = "snapshot_published"
	MessageTypeRefreshFailed     = "refresh_failed"
)

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// SnapshotPublishedData is the payload of a snapshot_published message.
type SnapshotPublishedData struct {
	Timestamp    string `json:"timestamp"`
	Version      int64  `json:"version"`
	ItemCount    int    `json:"item_count"`
	ProfileCount int    `json:"profile_count"`
}

// RefreshFailedData is the payload of a refresh_failed message. Version is
// the snapshot still being served (0 before the first publish).
type RefreshFailedData struct {
	Timestamp           string `json:"timestamp"`
	Version             int64  `json:"version"`
	Error               string `json:"error"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Serve runs the hub until ctx is cancelled, at which point all connected
// clients are closed and ctx.Err() is returned. Designed for suture
// supervision so a restarted hub never leaves orphaned connections.
//
// DETERMINISM: selection is prioritized - shutdown first, then client
// lifecycle events, then broadcasts - so client state is always consistent
// before a message fans out, instead of depending on Go's random choice
// among ready channels.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		// Priority 1: shutdown (non-blocking check)
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: client lifecycle events (non-blocking check)
		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		// Priority 3: block for whichever event arrives next
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (h *Hub) String() string {
	return "websocket-hub"
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

// broadcastToClients fans one message out to every connected client.
// Clients are visited in ID order so delivery order is reproducible; a
// client whose send buffer is full is dropped on the spot rather than
// allowed to block the hub loop.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
			metrics.WebSocketMessagesSent.Inc()
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		logging.Warn().Uint64("client_id", client.id).Msg("dropping slow websocket client")
	}
}

// shutdown closes every client in ID order and logs the reason. The
// context error is expected here, so it is logged as a field rather than
// an error.
func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	metrics.WebSocketConnections.Set(0)

	reason := "context_canceled"
	if ctx.Err() == context.DeadlineExceeded {
		reason = "context_deadline"
	}
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", reason).
		Int("clients_closed", len(clients)).
		Msg("websocket hub stopped")
}

// BroadcastSnapshotPublished notifies all clients that a new snapshot
// version is live.
func (h *Hub) BroadcastSnapshotPublished(version int64, itemCount, profileCount int) {
	data := SnapshotPublishedData{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Version:      version,
		ItemCount:    itemCount,
		ProfileCount: profileCount,
	}

	select {
	case h.broadcast <- Message{Type: MessageTypeSnapshotPublished, Data: data}:
		logging.Debug().Int64("version", version).Int("clients", h.ClientCount()).Msg("broadcast snapshot_published")
	default:
		logging.Warn().Msg("broadcast channel full, dropping snapshot_published message")
	}
}

// BroadcastRefreshFailed notifies all clients that a refresh cycle failed
// and the previous snapshot (if any) is now stale.
func (h *Hub) BroadcastRefreshFailed(version int64, errMsg string, consecutiveFailures int) {
	data := RefreshFailedData{
		Timestamp:           time.Now().UTC().Format(time.RFC3339),
		Version:             version,
		Error:               errMsg,
		ConsecutiveFailures: consecutiveFailures,
	}

	select {
	case h.broadcast <- Message{Type: MessageTypeRefreshFailed, Data: data}:
		logging.Debug().Int64("version", version).Int("clients", h.ClientCount()).Msg("broadcast refresh_failed")
	default:
		logging.Warn().Msg("broadcast channel full, dropping refresh_failed message")
	}
}

// BroadcastJSON sends an arbitrary typed payload to all connected clients.
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	select {
	case h.broadcast <- Message{Type: messageType, Data: data}:
	default:
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
