package handlers

import (
	"encoding/json"
	"net/http"

	"bitebuddy-backend/internal/middleware"
	"bitebuddy-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// FriendshipHandler handles friend-graph HTTP requests
type FriendshipHandler struct {
	friendshipService *services.FriendshipService
	wsHub             *services.WSHub
}

// NewFriendshipHandler creates a new friendship handler
func NewFriendshipHandler(friendshipService *services.FriendshipService, wsHub *services.WSHub) *FriendshipHandler {
	return &FriendshipHandler{
		friendshipService: friendshipService,
		wsHub:             wsHub,
	}
}

// ListFriends handles GET /api/v1/friends
func (h *FriendshipHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	friends, err := h.friendshipService.ListFriends(r.Context(), userID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, friends)
}

// ListRequests handles GET /api/v1/friends/requests
func (h *FriendshipHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	requests, err := h.friendshipService.ListIncomingRequests(r.Context(), userID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, requests)
}

// ListSentRequests handles GET /api/v1/friends/requests/sent
func (h *FriendshipHandler) ListSentRequests(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	requests, err := h.friendshipService.ListSentRequests(r.Context(), userID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, requests)
}

// Search handles GET /api/v1/friends/search?q=
func (h *FriendshipHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	q := r.URL.Query().Get("q")

	profiles, err := h.friendshipService.Search(r.Context(), userID, q)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, profiles)
}

// FriendRequestPayload represents the request body for a friend request
type FriendRequestPayload struct {
	Username string `json:"username"`
}

// Request handles POST /api/v1/friends/request
func (h *FriendshipHandler) Request(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req FriendRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	friendship, err := h.friendshipService.Request(r.Context(), userID, req.Username)
	if err != nil {
		respondAppError(w, err)
		return
	}

	log.Info().
		Str("requester_id", userID).
		Str("addressee_id", friendship.AddresseeID).
		Msg("Friend request sent")

	// Best-effort nudge to the addressee if connected.
	if h.wsHub.IsOnline(friendship.AddresseeID) {
		h.wsHub.Broadcast([]string{friendship.AddresseeID}, services.WSMessage{
			Type: "friend_request",
			Data: friendship,
		})
	}

	respondData(w, http.StatusCreated, friendship)
}

// FriendRespondPayload represents the request body for responding to a
// friend request
type FriendRespondPayload struct {
	FriendshipID string `json:"friendship_id"`
	Action       string `json:"action"`
}

// Respond handles POST /api/v1/friends/respond
func (h *FriendshipHandler) Respond(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req FriendRespondPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	friendship, err := h.friendshipService.Respond(r.Context(), userID, req.FriendshipID, req.Action)
	if err != nil {
		respondAppError(w, err)
		return
	}

	log.Info().
		Str("friendship_id", friendship.ID).
		Str("status", friendship.Status).
		Msg("Friend request answered")

	respondData(w, http.StatusOK, friendship)
}
