package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bitebuddy-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authedHandler(t *testing.T, gotUserID *string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotUserID = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	userService := services.NewUserService(nil, "test-secret", 30)
	token, err := userService.GenerateJWT("u1")
	require.NoError(t, err)

	var gotUserID string
	handler := AuthMiddleware(userService)(authedHandler(t, &gotUserID))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", gotUserID)
}

func TestAuthMiddlewareRejectsBadRequests(t *testing.T) {
	userService := services.NewUserService(nil, "test-secret", 30)
	foreign := services.NewUserService(nil, "other-secret", 30)
	foreignToken, err := foreign.GenerateJWT("u1")
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"malformed", "Bearer"},
		{"garbage token", "Bearer not-a-jwt"},
		{"foreign signature", "Bearer " + foreignToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotUserID string
			handler := AuthMiddleware(userService)(authedHandler(t, &gotUserID))

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Empty(t, gotUserID)

			// Failures use the API's JSON error envelope.
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestGetUserIDWithoutAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, GetUserID(req.Context()))
}
