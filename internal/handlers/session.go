package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"bitebuddy-backend/internal/metrics"
	"bitebuddy-backend/internal/middleware"
	"bitebuddy-backend/internal/models"
	"bitebuddy-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// SessionHandler handles session lifecycle and swipe HTTP requests
type SessionHandler struct {
	sessionService *services.SessionService
	swipeService   *services.SwipeService
	wsHub          *services.WSHub
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionService *services.SessionService, swipeService *services.SwipeService, wsHub *services.WSHub) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		swipeService:   swipeService,
		wsHub:          wsHub,
	}
}

// CreateSessionRequest represents the request body for creating a session
type CreateSessionRequest struct {
	Name           string   `json:"name"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	RadiusMeters   int      `json:"radius_meters"`
	PriceFilter    []string `json:"price_filter"`
	CategoryFilter *string  `json:"category_filter"`
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.sessionService.Create(r.Context(), userID, services.CreateSessionParams{
		Name:           req.Name,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		RadiusMeters:   req.RadiusMeters,
		PriceFilter:    req.PriceFilter,
		CategoryFilter: req.CategoryFilter,
	})
	if err != nil {
		respondAppError(w, err)
		return
	}

	log.Info().
		Str("session_id", session.ID).
		Str("created_by", userID).
		Msg("Session created")

	respondData(w, http.StatusCreated, session)
}

// List handles GET /api/v1/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	status := r.URL.Query().Get("status")

	sessions, err := h.sessionService.List(r.Context(), userID, status)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	respondData(w, http.StatusOK, sessions)
}

// Detail handles GET /api/v1/sessions/{session_id}
func (h *SessionHandler) Detail(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	details, err := h.sessionService.Detail(r.Context(), sessionID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, details)
}

// InviteRequest represents the request body for inviting friends
type InviteRequest struct {
	UserIDs []string `json:"user_ids"`
}

// Invite handles POST /api/v1/sessions/{session_id}/invite
func (h *SessionHandler) Invite(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	sessionID := chi.URLParam(r, "session_id")

	var req InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	members, err := h.sessionService.Invite(r.Context(), sessionID, userID, req.UserIDs)
	if err != nil {
		respondAppError(w, err)
		return
	}

	for _, member := range members {
		h.wsHub.Broadcast([]string{member.UserID}, services.WSMessage{
			Type:      "session_invite",
			SessionID: sessionID,
			Data:      member,
		})
	}

	respondData(w, http.StatusCreated, members)
}

// Join handles POST /api/v1/sessions/{session_id}/join
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	sessionID := chi.URLParam(r, "session_id")

	member, err := h.sessionService.Join(r.Context(), sessionID, userID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	h.notifyMembers(r, sessionID, func(memberIDs []string) {
		h.wsHub.NotifyMemberJoined(memberIDs, *member)
	})

	respondData(w, http.StatusCreated, member)
}

// Start handles POST /api/v1/sessions/{session_id}/start
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	sessionID := chi.URLParam(r, "session_id")

	restaurants, err := h.sessionService.Start(r.Context(), sessionID, userID)
	if err != nil {
		log.Error().Err(err).
			Str("session_id", sessionID).
			Str("user_id", userID).
			Msg("Failed to start session")
		respondAppError(w, err)
		return
	}

	log.Info().
		Str("session_id", sessionID).
		Int("restaurant_count", len(restaurants)).
		Msg("Session started")

	h.notifyMembers(r, sessionID, func(memberIDs []string) {
		h.wsHub.NotifySessionStarted(memberIDs, sessionID, len(restaurants))
	})

	respondData(w, http.StatusOK, map[string]int{"restaurant_count": len(restaurants)})
}

// Restaurants handles GET /api/v1/sessions/{session_id}/restaurants
func (h *SessionHandler) Restaurants(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	restaurants, err := h.sessionService.Restaurants(r.Context(), sessionID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if restaurants == nil {
		restaurants = []models.Restaurant{}
	}
	respondData(w, http.StatusOK, restaurants)
}

// SwipeRequest represents the request body for a swipe
type SwipeRequest struct {
	RestaurantID string `json:"restaurant_id"`
	Liked        *bool  `json:"liked"`
}

// Swipe handles POST /api/v1/sessions/{session_id}/swipe
func (h *SessionHandler) Swipe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	sessionID := chi.URLParam(r, "session_id")

	var req SwipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.RestaurantID == "" || req.Liked == nil {
		respondError(w, "restaurant_id and liked are required", http.StatusBadRequest)
		return
	}

	result, err := h.swipeService.RecordSwipe(r.Context(), sessionID, userID, req.RestaurantID, *req.Liked)
	if err != nil {
		respondAppError(w, err)
		return
	}

	metrics.RecordSwipe(*req.Liked)

	if result.IsMatch && result.Match != nil {
		metrics.MatchesTotal.Inc()
		matched := models.MatchWithRestaurant{Match: *result.Match}
		if result.Restaurant != nil {
			matched.Restaurant = *result.Restaurant
		}
		h.notifyMembers(r, sessionID, func(memberIDs []string) {
			h.wsHub.NotifyMatchFound(memberIDs, matched)
		})
	}

	respondData(w, http.StatusOK, result)
}

// Results handles GET /api/v1/sessions/{session_id}/results
func (h *SessionHandler) Results(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	results, err := h.sessionService.Results(r.Context(), sessionID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, results)
}

// RecentMatches handles GET /api/v1/sessions/recent-matches
func (h *SessionHandler) RecentMatches(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	matches, err := h.sessionService.RecentMatches(r.Context(), userID, limit)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"matches": matches})
}

// notifyMembers runs a hub notification against the session's current
// member set. Failures only log; the response never depends on delivery.
func (h *SessionHandler) notifyMembers(r *http.Request, sessionID string, notify func(memberIDs []string)) {
	memberIDs, err := h.sessionService.MemberIDs(r.Context(), sessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to load members for notification")
		return
	}
	notify(memberIDs)
}
