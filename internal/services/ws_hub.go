package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"bitebuddy-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSMessage represents a WebSocket event sent to connected clients
type WSMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// WSHub manages WebSocket connections. Delivery is best-effort and only
// ever attempted after the triggering write has committed; the API
// response never depends on it.
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*websocket.Conn
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		connections: make(map[string]*websocket.Conn),
	}
}

// Register registers a new WebSocket connection for a user
func (h *WSHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Close existing connection if any
	if existingConn, exists := h.connections[userID]; exists {
		existingConn.Close()
	}

	h.connections[userID] = conn

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes a user's WebSocket connection. A handler whose
// connection was replaced by a reconnect still runs its cleanup, so the
// entry is removed only while it still points at conn.
func (h *WSHub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, exists := h.connections[userID]; exists && current == conn {
		conn.Close()
		delete(h.connections, userID)
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	}
}

// IsOnline checks if a user is connected
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.connections[userID]
	return exists
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	conn, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.Unregister(userID, conn)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// Broadcast sends a message to every listed user that is connected
func (h *WSHub) Broadcast(userIDs []string, message WSMessage) {
	for _, userID := range userIDs {
		if !h.IsOnline(userID) {
			continue
		}
		if err := h.SendToUser(userID, message); err != nil {
			log.Error().Err(err).
				Str("user_id", userID).
				Str("type", message.Type).
				Msg("Failed to deliver WebSocket event")
		}
	}
}

// NotifyMatchFound pushes a new match to a session's members
func (h *WSHub) NotifyMatchFound(memberIDs []string, match models.MatchWithRestaurant) {
	h.Broadcast(memberIDs, WSMessage{
		Type:      "match_found",
		SessionID: match.SessionID,
		Data:      match,
	})
}

// NotifyMemberJoined pushes a membership change to a session's members
func (h *WSHub) NotifyMemberJoined(memberIDs []string, member models.SessionMember) {
	h.Broadcast(memberIDs, WSMessage{
		Type:      "member_joined",
		SessionID: member.SessionID,
		Data:      member,
	})
}

// NotifySessionStarted tells a session's members that swiping is open
func (h *WSHub) NotifySessionStarted(memberIDs []string, sessionID string, restaurantCount int) {
	h.Broadcast(memberIDs, WSMessage{
		Type:      "session_started",
		SessionID: sessionID,
		Data:      map[string]interface{}{"restaurant_count": restaurantCount},
	})
}
