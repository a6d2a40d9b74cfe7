package repository

import (
	"context"
	"errors"
	"fmt"

	"bitebuddy-backend/internal/apperr"
	"bitebuddy-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RestaurantRepository handles database operations for session candidates
type RestaurantRepository struct {
	db *pgxpool.Pool
}

// NewRestaurantRepository creates a new restaurant repository
func NewRestaurantRepository(db *pgxpool.Pool) *RestaurantRepository {
	return &RestaurantRepository{db: db}
}

const restaurantColumns = `id, session_id, place_id, name, image_url, rating, review_count, price, categories, address, latitude, longitude, phone, maps_url, position`

func scanRestaurant(row pgx.Row) (*models.Restaurant, error) {
	var rest models.Restaurant
	err := row.Scan(&rest.ID, &rest.SessionID, &rest.PlaceID, &rest.Name, &rest.ImageURL,
		&rest.Rating, &rest.ReviewCount, &rest.Price, &rest.Categories,
		&rest.Address, &rest.Latitude, &rest.Longitude, &rest.Phone, &rest.MapsURL, &rest.Position)
	if err != nil {
		return nil, err
	}
	return &rest, nil
}

// GetByID retrieves a candidate by ID
func (r *RestaurantRepository) GetByID(ctx context.Context, id string) (*models.Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM session_restaurants WHERE id = $1`
	rest, err := scanRestaurant(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("restaurant not found")
		}
		return nil, fmt.Errorf("failed to get restaurant: %w", err)
	}
	return rest, nil
}

// ListBySession returns a session's candidates ordered by rating
// descending, ties broken by insertion position
func (r *RestaurantRepository) ListBySession(ctx context.Context, sessionID string) ([]models.Restaurant, error) {
	query := `
		SELECT ` + restaurantColumns + `
		FROM session_restaurants
		WHERE session_id = $1
		ORDER BY rating DESC, position ASC
	`
	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list restaurants: %w", err)
	}
	defer rows.Close()

	var restaurants []models.Restaurant
	for rows.Next() {
		rest, err := scanRestaurant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan restaurant: %w", err)
		}
		restaurants = append(restaurants, *rest)
	}
	return restaurants, rows.Err()
}

// CountBySession returns the number of candidates in a session
func (r *RestaurantRepository) CountBySession(ctx context.Context, sessionID string) (int, error) {
	query := `SELECT COUNT(*) FROM session_restaurants WHERE session_id = $1`
	var count int
	if err := r.db.QueryRow(ctx, query, sessionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count restaurants: %w", err)
	}
	return count, nil
}
