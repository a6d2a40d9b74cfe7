package repository

import (
	"context"
	"errors"
	"fmt"

	"bitebuddy-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MatchRepository handles database operations for matches
type MatchRepository struct {
	db *pgxpool.Pool
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

// Get returns the match for (session, restaurant), or (nil, nil) when
// none exists
func (r *MatchRepository) Get(ctx context.Context, sessionID, restaurantID string) (*models.Match, error) {
	query := `
		SELECT id, session_id, restaurant_id, matched_at
		FROM matches
		WHERE session_id = $1 AND restaurant_id = $2
	`
	var m models.Match
	err := r.db.QueryRow(ctx, query, sessionID, restaurantID).Scan(
		&m.ID, &m.SessionID, &m.RestaurantID, &m.MatchedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return &m, nil
}

// InsertIfAbsent inserts a match unless one already exists for
// (session, restaurant). The unique constraint makes concurrent
// derivations linearizable: exactly one insert wins, the rest observe
// the winner. Returns the stored match and whether this call created it.
func (r *MatchRepository) InsertIfAbsent(ctx context.Context, match *models.Match) (*models.Match, bool, error) {
	query := `
		INSERT INTO matches (id, session_id, restaurant_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id, restaurant_id) DO NOTHING
		RETURNING id, session_id, restaurant_id, matched_at
	`
	var m models.Match
	err := r.db.QueryRow(ctx, query, match.ID, match.SessionID, match.RestaurantID).Scan(
		&m.ID, &m.SessionID, &m.RestaurantID, &m.MatchedAt,
	)
	if err == nil {
		return &m, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to insert match: %w", err)
	}

	// Conflict path: another derivation won the race.
	existing, err := r.Get(ctx, match.SessionID, match.RestaurantID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// CountBySession returns the number of matches in a session
func (r *MatchRepository) CountBySession(ctx context.Context, sessionID string) (int, error) {
	query := `SELECT COUNT(*) FROM matches WHERE session_id = $1`
	var count int
	if err := r.db.QueryRow(ctx, query, sessionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return count, nil
}

// ListBySession returns a session's matches with restaurant detail,
// newest first
func (r *MatchRepository) ListBySession(ctx context.Context, sessionID string) ([]models.MatchWithRestaurant, error) {
	query := `
		SELECT m.id, m.session_id, m.restaurant_id, m.matched_at,
		       r.id, r.session_id, r.place_id, r.name, r.image_url, r.rating, r.review_count,
		       r.price, r.categories, r.address, r.latitude, r.longitude, r.phone, r.maps_url, r.position
		FROM matches m
		JOIN session_restaurants r ON r.id = m.restaurant_id
		WHERE m.session_id = $1
		ORDER BY m.matched_at DESC
	`
	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var matches []models.MatchWithRestaurant
	for rows.Next() {
		var mw models.MatchWithRestaurant
		err := rows.Scan(
			&mw.ID, &mw.SessionID, &mw.RestaurantID, &mw.MatchedAt,
			&mw.Restaurant.ID, &mw.Restaurant.SessionID, &mw.Restaurant.PlaceID, &mw.Restaurant.Name,
			&mw.Restaurant.ImageURL, &mw.Restaurant.Rating, &mw.Restaurant.ReviewCount,
			&mw.Restaurant.Price, &mw.Restaurant.Categories, &mw.Restaurant.Address,
			&mw.Restaurant.Latitude, &mw.Restaurant.Longitude, &mw.Restaurant.Phone,
			&mw.Restaurant.MapsURL, &mw.Restaurant.Position,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, mw)
	}
	return matches, rows.Err()
}

// ListRecentForUser returns matches across every session the user is a
// member of, newest first, capped at limit
func (r *MatchRepository) ListRecentForUser(ctx context.Context, userID string, limit int) ([]models.RecentMatch, error) {
	query := `
		SELECT m.id, m.session_id, s.name, r.name, r.image_url, r.rating, m.matched_at
		FROM matches m
		JOIN sessions s ON s.id = m.session_id
		JOIN session_restaurants r ON r.id = m.restaurant_id
		JOIN session_members mem ON mem.session_id = m.session_id AND mem.user_id = $1
		ORDER BY m.matched_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent matches: %w", err)
	}
	defer rows.Close()

	var matches []models.RecentMatch
	for rows.Next() {
		var rm models.RecentMatch
		var rating float64
		err := rows.Scan(&rm.MatchID, &rm.SessionID, &rm.SessionName,
			&rm.RestaurantName, &rm.RestaurantImageURL, &rating, &rm.MatchedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recent match: %w", err)
		}
		rm.RestaurantRating = &rating
		matches = append(matches, rm)
	}
	return matches, rows.Err()
}
