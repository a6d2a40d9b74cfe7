// Package places wraps the Google Places nearby-search API used to
// populate a session's candidate set.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bitebuddy-backend/internal/apperr"
	"bitebuddy-backend/internal/models"
)

const defaultBaseURL = "https://places.googleapis.com/v1"

// maxResults is the per-request cap imposed by the Places API.
const maxResults = 20

// maxRadiusMeters is the largest search radius the API accepts.
const maxRadiusMeters = 50000

// priceToLevel maps UI price symbols to Places API price levels.
var priceToLevel = map[string]string{
	"$":    "PRICE_LEVEL_INEXPENSIVE",
	"$$":   "PRICE_LEVEL_MODERATE",
	"$$$":  "PRICE_LEVEL_EXPENSIVE",
	"$$$$": "PRICE_LEVEL_VERY_EXPENSIVE",
}

// levelToSymbol maps Places API price levels back to display symbols.
var levelToSymbol = map[string]string{
	"PRICE_LEVEL_FREE":           "Free",
	"PRICE_LEVEL_INEXPENSIVE":    "$",
	"PRICE_LEVEL_MODERATE":       "$$",
	"PRICE_LEVEL_EXPENSIVE":      "$$$",
	"PRICE_LEVEL_VERY_EXPENSIVE": "$$$$",
}

// CuisineCategory maps a cuisine keyword to the place types it covers.
type CuisineCategory struct {
	Key   string
	Label string
	Types []string
}

// CuisineCategories is the fixed cuisine filter vocabulary for discovery.
var CuisineCategories = []CuisineCategory{
	{Key: "all", Label: "All", Types: []string{"restaurant"}},
	{Key: "italian", Label: "Italian", Types: []string{"italian_restaurant"}},
	{Key: "mexican", Label: "Mexican", Types: []string{"mexican_restaurant"}},
	{Key: "japanese", Label: "Japanese", Types: []string{"japanese_restaurant"}},
	{Key: "chinese", Label: "Chinese", Types: []string{"chinese_restaurant"}},
	{Key: "thai", Label: "Thai", Types: []string{"thai_restaurant"}},
	{Key: "indian", Label: "Indian", Types: []string{"indian_restaurant"}},
	{Key: "american", Label: "American", Types: []string{"american_restaurant"}},
	{Key: "pizza", Label: "Pizza", Types: []string{"pizza_restaurant"}},
	{Key: "seafood", Label: "Seafood", Types: []string{"seafood_restaurant"}},
	{Key: "korean", Label: "Korean", Types: []string{"korean_restaurant"}},
	{Key: "burgers", Label: "Burgers", Types: []string{"hamburger_restaurant"}},
	{Key: "coffee", Label: "Coffee", Types: []string{"coffee_shop", "cafe"}},
}

// TypesForCuisine resolves a cuisine keyword to place types, falling back
// to plain restaurants for unknown keys.
func TypesForCuisine(key string) []string {
	for _, c := range CuisineCategories {
		if c.Key == key {
			return c.Types
		}
	}
	return []string{"restaurant"}
}

// MapPriceFilter translates UI price symbols into API price levels,
// dropping unknown symbols.
func MapPriceFilter(priceFilter []string) []string {
	var levels []string
	for _, p := range priceFilter {
		if level, ok := priceToLevel[p]; ok {
			levels = append(levels, level)
		}
	}
	return levels
}

// Business is one candidate restaurant returned by the search.
type Business struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	ImageURL    *string           `json:"image_url"`
	Rating      float64           `json:"rating"`
	ReviewCount int               `json:"review_count"`
	Price       *string           `json:"price"`
	Categories  []models.Category `json:"categories"`
	Address     string            `json:"address"`
	Latitude    float64           `json:"latitude"`
	Longitude   float64           `json:"longitude"`
	Phone       string            `json:"phone"`
	MapsURL     string            `json:"url"`
}

// SearchParams describes one nearby search.
type SearchParams struct {
	Latitude      float64
	Longitude     float64
	RadiusMeters  int
	PriceLevels   []string
	IncludedTypes []string
	Limit         int
}

// Client calls the Places nearby-search endpoint with a bounded timeout.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a places client. baseURL is overridable for tests;
// empty selects the production endpoint.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type searchRequest struct {
	IncludedTypes       []string `json:"includedTypes"`
	MaxResultCount      int      `json:"maxResultCount"`
	PriceLevels         []string `json:"priceLevels,omitempty"`
	LocationRestriction struct {
		Circle struct {
			Center struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"center"`
			Radius float64 `json:"radius"`
		} `json:"circle"`
	} `json:"locationRestriction"`
}

type searchResponse struct {
	Places []struct {
		ID          string `json:"id"`
		DisplayName struct {
			Text string `json:"text"`
		} `json:"displayName"`
		FormattedAddress string `json:"formattedAddress"`
		Location         struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"location"`
		Rating          float64  `json:"rating"`
		UserRatingCount int      `json:"userRatingCount"`
		PriceLevel      string   `json:"priceLevel"`
		Types           []string `json:"types"`
		Photos          []struct {
			Name string `json:"name"`
		} `json:"photos"`
		NationalPhoneNumber string `json:"nationalPhoneNumber"`
		GoogleMapsURI       string `json:"googleMapsUri"`
	} `json:"places"`
}

var fieldMask = strings.Join([]string{
	"places.id",
	"places.displayName",
	"places.formattedAddress",
	"places.location",
	"places.rating",
	"places.userRatingCount",
	"places.priceLevel",
	"places.primaryType",
	"places.types",
	"places.photos",
	"places.nationalPhoneNumber",
	"places.googleMapsUri",
}, ",")

// Search performs a nearby search and maps the result into candidate
// businesses. Failures surface as apperr.Upstream.
func (c *Client) Search(ctx context.Context, params SearchParams) ([]Business, error) {
	limit := params.Limit
	if limit <= 0 || limit > maxResults {
		limit = maxResults
	}
	radius := params.RadiusMeters
	if radius > maxRadiusMeters {
		radius = maxRadiusMeters
	}

	reqBody := searchRequest{
		IncludedTypes:  params.IncludedTypes,
		MaxResultCount: limit,
		PriceLevels:    params.PriceLevels,
	}
	if len(reqBody.IncludedTypes) == 0 {
		reqBody.IncludedTypes = []string{"restaurant"}
	}
	reqBody.LocationRestriction.Circle.Center.Latitude = params.Latitude
	reqBody.LocationRestriction.Circle.Center.Longitude = params.Longitude
	reqBody.LocationRestriction.Circle.Radius = float64(radius)

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/places:searchNearby", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Upstream("places search failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, apperr.Upstream(
			fmt.Sprintf("places API error %d", resp.StatusCode),
			fmt.Errorf("places API %d: %s", resp.StatusCode, body))
	}

	var data searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, apperr.Upstream("invalid places API response", err)
	}

	businesses := make([]Business, 0, len(data.Places))
	for _, place := range data.Places {
		biz := Business{
			ID:          place.ID,
			Name:        place.DisplayName.Text,
			Rating:      place.Rating,
			ReviewCount: place.UserRatingCount,
			Categories:  mapCategories(place.Types),
			Address:     place.FormattedAddress,
			Latitude:    place.Location.Latitude,
			Longitude:   place.Location.Longitude,
			Phone:       place.NationalPhoneNumber,
			MapsURL:     place.GoogleMapsURI,
		}
		if biz.Name == "" {
			biz.Name = "Unknown"
		}
		if len(place.Photos) > 0 {
			url := c.photoURL(place.Photos[0].Name)
			biz.ImageURL = &url
		}
		if symbol, ok := levelToSymbol[place.PriceLevel]; ok {
			biz.Price = &symbol
		}
		businesses = append(businesses, biz)
	}
	return businesses, nil
}

// photoURL builds a media URL for a place photo resource name.
func (c *Client) photoURL(photoName string) string {
	return fmt.Sprintf("%s/%s/media?maxWidthPx=800&key=%s", c.baseURL, photoName, c.apiKey)
}

// genericTypes are place types too broad to show as categories.
var genericTypes = map[string]bool{
	"restaurant":        true,
	"point_of_interest": true,
	"establishment":     true,
	"food":              true,
}

// mapCategories turns raw place types into display categories, keeping at
// most three specific ones.
func mapCategories(types []string) []models.Category {
	categories := make([]models.Category, 0, 3)
	for _, t := range types {
		if genericTypes[t] {
			continue
		}
		categories = append(categories, models.Category{
			Alias: t,
			Title: titleFromType(t),
		})
		if len(categories) == 3 {
			break
		}
	}
	return categories
}

// titleFromType turns "italian_restaurant" into "Italian Restaurant".
func titleFromType(t string) string {
	words := strings.Split(t, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
