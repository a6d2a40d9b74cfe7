package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"bitebuddy-backend/internal/apperr"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// DataResponse wraps every successful payload
type DataResponse struct {
	Data interface{} `json:"data"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// respondAppError maps a classified error onto its status code
func respondAppError(w http.ResponseWriter, err error) {
	respondError(w, apperr.Message(err), apperr.HTTPStatus(err))
}

// respondData sends a success response wrapped in the data envelope
func respondData(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(DataResponse{Data: data})
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "ok",
		"message":   "BiteBuddy API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
