package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bitebuddy-backend/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
	"places": [
		{
			"id": "place-1",
			"displayName": {"text": "Pizza Palace"},
			"formattedAddress": "1 Main St, New York, NY",
			"location": {"latitude": 40.71, "longitude": -74.0},
			"rating": 4.5,
			"userRatingCount": 230,
			"priceLevel": "PRICE_LEVEL_MODERATE",
			"types": ["italian_restaurant", "pizza_restaurant", "point_of_interest", "food", "establishment", "bar"],
			"photos": [{"name": "places/place-1/photos/abc"}],
			"nationalPhoneNumber": "(212) 555-0100",
			"googleMapsUri": "https://maps.google.com/?cid=1"
		},
		{
			"id": "place-2",
			"displayName": {"text": ""},
			"rating": 4.0,
			"types": ["restaurant"]
		}
	]
}`

func TestSearchMapsResponse(t *testing.T) {
	var gotBody searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/places:searchNearby", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "places.displayName")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, sampleResponse)
	}))
	defer srv.Close()

	client := NewClient("test-key", srv.URL, 5*time.Second)
	businesses, err := client.Search(context.Background(), SearchParams{
		Latitude:     40.7128,
		Longitude:    -74.006,
		RadiusMeters: 5000,
		PriceLevels:  []string{"PRICE_LEVEL_MODERATE"},
	})
	require.NoError(t, err)
	require.Len(t, businesses, 2)

	assert.Equal(t, []string{"restaurant"}, gotBody.IncludedTypes)
	assert.Equal(t, 20, gotBody.MaxResultCount)
	assert.Equal(t, []string{"PRICE_LEVEL_MODERATE"}, gotBody.PriceLevels)
	assert.Equal(t, 40.7128, gotBody.LocationRestriction.Circle.Center.Latitude)
	assert.Equal(t, float64(5000), gotBody.LocationRestriction.Circle.Radius)

	pizza := businesses[0]
	assert.Equal(t, "place-1", pizza.ID)
	assert.Equal(t, "Pizza Palace", pizza.Name)
	assert.Equal(t, 4.5, pizza.Rating)
	assert.Equal(t, 230, pizza.ReviewCount)
	require.NotNil(t, pizza.Price)
	assert.Equal(t, "$$", *pizza.Price)
	require.NotNil(t, pizza.ImageURL)
	assert.Equal(t, srv.URL+"/places/place-1/photos/abc/media?maxWidthPx=800&key=test-key", *pizza.ImageURL)

	// Generic types are dropped and at most three categories survive.
	require.Len(t, pizza.Categories, 3)
	assert.Equal(t, "italian_restaurant", pizza.Categories[0].Alias)
	assert.Equal(t, "Italian Restaurant", pizza.Categories[0].Title)
	assert.Equal(t, "Pizza Restaurant", pizza.Categories[1].Title)
	assert.Equal(t, "Bar", pizza.Categories[2].Title)

	// Missing fields degrade, they do not fail the mapping.
	unnamed := businesses[1]
	assert.Equal(t, "Unknown", unnamed.Name)
	assert.Nil(t, unnamed.Price)
	assert.Nil(t, unnamed.ImageURL)
	assert.Empty(t, unnamed.Categories)
}

func TestSearchClampsRadiusAndLimit(t *testing.T) {
	var gotBody searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, `{"places": []}`)
	}))
	defer srv.Close()

	client := NewClient("test-key", srv.URL, 5*time.Second)
	_, err := client.Search(context.Background(), SearchParams{
		RadiusMeters: 90000,
		Limit:        500,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(50000), gotBody.LocationRestriction.Circle.Radius)
	assert.Equal(t, 20, gotBody.MaxResultCount)
}

func TestSearchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient("test-key", srv.URL, 5*time.Second)
	_, err := client.Search(context.Background(), SearchParams{})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeUpstream, apperr.CodeOf(err))
	assert.Contains(t, err.Error(), "429")
}

func TestSearchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `{"places": []}`)
	}))
	defer srv.Close()

	client := NewClient("test-key", srv.URL, 20*time.Millisecond)
	_, err := client.Search(context.Background(), SearchParams{})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeUpstream, apperr.CodeOf(err))
}

func TestMapPriceFilter(t *testing.T) {
	levels := MapPriceFilter([]string{"$", "$$$", "bogus", "$$$$"})
	assert.Equal(t, []string{
		"PRICE_LEVEL_INEXPENSIVE",
		"PRICE_LEVEL_EXPENSIVE",
		"PRICE_LEVEL_VERY_EXPENSIVE",
	}, levels)
	assert.Nil(t, MapPriceFilter(nil))
}

func TestTypesForCuisine(t *testing.T) {
	assert.Equal(t, []string{"italian_restaurant"}, TypesForCuisine("italian"))
	assert.Equal(t, []string{"coffee_shop", "cafe"}, TypesForCuisine("coffee"))
	assert.Equal(t, []string{"restaurant"}, TypesForCuisine("all"))
	assert.Equal(t, []string{"restaurant"}, TypesForCuisine("martian"))
}

func TestTitleFromType(t *testing.T) {
	assert.Equal(t, "Italian Restaurant", titleFromType("italian_restaurant"))
	assert.Equal(t, "Cafe", titleFromType("cafe"))
}
