package handlers

import (
	"encoding/json"
	"net/http"

	"bitebuddy-backend/internal/middleware"
	"bitebuddy-backend/internal/models"
	"bitebuddy-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UserHandler handles authentication and profile HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// SignupRequest represents the request body for signup
type SignupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by signup and login
type AuthResponse struct {
	User        *models.Profile `json:"user"`
	AccessToken string          `json:"access_token"`
}

// Signup handles POST /api/v1/auth/signup
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	profile, token, err := h.userService.Signup(r.Context(), req.Email, req.Password, req.Username, req.DisplayName)
	if err != nil {
		log.Error().Err(err).Str("username", req.Username).Msg("Signup failed")
		respondAppError(w, err)
		return
	}

	log.Info().Str("user_id", profile.ID).Str("username", profile.Username).Msg("User signed up")
	respondData(w, http.StatusCreated, AuthResponse{User: profile, AccessToken: token})
}

// Login handles POST /api/v1/auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	profile, token, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondData(w, http.StatusOK, AuthResponse{User: profile, AccessToken: token})
}

// Logout handles POST /api/v1/auth/logout
//
// Tokens are stateless, so there is no server-side session to revoke;
// the endpoint acknowledges and the client discards its token.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	log.Info().Str("user_id", userID).Msg("User signed out")
	respondData(w, http.StatusOK, map[string]string{"message": "Signed out"})
}

// Me handles GET /api/v1/auth/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	profile, err := h.userService.GetProfile(r.Context(), userID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, profile)
}

// UpdateProfileRequest represents the request body for profile updates
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
}

// UpdateProfile handles PUT /api/v1/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	profile, err := h.userService.UpdateProfile(r.Context(), userID, req.DisplayName, req.AvatarURL)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, profile)
}
