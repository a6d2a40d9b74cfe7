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

// SwipeRepository handles database operations for the swipe ledger
type SwipeRepository struct {
	db *pgxpool.Pool
}

// NewSwipeRepository creates a new swipe repository
func NewSwipeRepository(db *pgxpool.Pool) *SwipeRepository {
	return &SwipeRepository{db: db}
}

// Get returns the swipe for (session, user, restaurant), or (nil, nil)
// when none exists
func (r *SwipeRepository) Get(ctx context.Context, sessionID, userID, restaurantID string) (*models.Swipe, error) {
	query := `
		SELECT id, session_id, user_id, restaurant_id, liked, created_at
		FROM swipes
		WHERE session_id = $1 AND user_id = $2 AND restaurant_id = $3
	`
	var s models.Swipe
	err := r.db.QueryRow(ctx, query, sessionID, userID, restaurantID).Scan(
		&s.ID, &s.SessionID, &s.UserID, &s.RestaurantID, &s.Liked, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get swipe: %w", err)
	}
	return &s, nil
}

// Insert appends one swipe to the ledger. The unique constraint on
// (session, user, restaurant) backstops concurrent duplicates.
func (r *SwipeRepository) Insert(ctx context.Context, swipe *models.Swipe) error {
	query := `
		INSERT INTO swipes (id, session_id, user_id, restaurant_id, liked)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query,
		swipe.ID, swipe.SessionID, swipe.UserID, swipe.RestaurantID, swipe.Liked,
	).Scan(&swipe.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("restaurant already swiped")
		}
		return fmt.Errorf("failed to insert swipe: %w", err)
	}
	return nil
}

// ListLikerIDs returns the distinct users who liked a candidate
func (r *SwipeRepository) ListLikerIDs(ctx context.Context, sessionID, restaurantID string) ([]string, error) {
	query := `
		SELECT DISTINCT user_id
		FROM swipes
		WHERE session_id = $1 AND restaurant_id = $2 AND liked
	`
	rows, err := r.db.Query(ctx, query, sessionID, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list likers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan liker id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountsByUser returns per-member swipe counts for a session
func (r *SwipeRepository) CountsByUser(ctx context.Context, sessionID string) (map[string]int, error) {
	query := `
		SELECT user_id, COUNT(*)
		FROM swipes
		WHERE session_id = $1
		GROUP BY user_id
	`
	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to count swipes: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var userID string
		var count int
		if err := rows.Scan(&userID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan swipe count: %w", err)
		}
		counts[userID] = count
	}
	return counts, rows.Err()
}
