package handlers

import (
	"net/http"
	"strconv"

	"bitebuddy-backend/internal/places"
)

// DiscoverHandler handles restaurant discovery outside of sessions
type DiscoverHandler struct {
	places *places.Client
}

// NewDiscoverHandler creates a new discovery handler
func NewDiscoverHandler(placesClient *places.Client) *DiscoverHandler {
	return &DiscoverHandler{places: placesClient}
}

// Discover handles GET /api/v1/restaurants/discover
func (h *DiscoverHandler) Discover(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	latitude, latErr := strconv.ParseFloat(query.Get("latitude"), 64)
	longitude, lonErr := strconv.ParseFloat(query.Get("longitude"), 64)
	if latErr != nil || lonErr != nil {
		respondError(w, "latitude and longitude are required", http.StatusBadRequest)
		return
	}

	radius, err := strconv.Atoi(query.Get("radius"))
	if err != nil || radius <= 0 {
		radius = 5000
	}

	cuisine := query.Get("cuisine")
	if cuisine == "" {
		cuisine = "all"
	}

	restaurants, err := h.places.Search(r.Context(), places.SearchParams{
		Latitude:      latitude,
		Longitude:     longitude,
		RadiusMeters:  radius,
		IncludedTypes: places.TypesForCuisine(cuisine),
	})
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondData(w, http.StatusOK, map[string]interface{}{"restaurants": restaurants})
}
