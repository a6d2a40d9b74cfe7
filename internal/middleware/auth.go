package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"bitebuddy-backend/internal/apperr"
	"bitebuddy-backend/internal/services"
)

type contextKey string

const userIDKey contextKey = "user_id"

// AuthMiddleware authenticates requests via a Bearer JWT and stores the
// caller's user ID on the request context.
func AuthMiddleware(userService *services.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				respondAuthError(w, apperr.Authentication("authorization header required"))
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				respondAuthError(w, apperr.Authentication("invalid authorization header format"))
				return
			}

			userID, err := userService.ValidateJWT(token)
			if err != nil {
				respondAuthError(w, apperr.Authentication("invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts the authenticated user ID from the context
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// respondAuthError writes a classified error in the API's error envelope
func respondAuthError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperr.HTTPStatus(err))
	json.NewEncoder(w).Encode(map[string]string{"error": apperr.Message(err)})
}

// ValidateWebSocketToken validates a JWT carried as a query parameter on
// the websocket handshake
func ValidateWebSocketToken(token string, userService *services.UserService) (string, error) {
	if token == "" {
		return "", apperr.Authentication("token required")
	}
	return userService.ValidateJWT(token)
}
