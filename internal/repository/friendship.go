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

// FriendshipRepository handles database operations for friendships
type FriendshipRepository struct {
	db *pgxpool.Pool
}

// NewFriendshipRepository creates a new friendship repository
func NewFriendshipRepository(db *pgxpool.Pool) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

const friendshipColumns = `id, requester_id, addressee_id, status, created_at, updated_at`

func scanFriendship(row pgx.Row) (*models.Friendship, error) {
	var f models.Friendship
	err := row.Scan(&f.ID, &f.RequesterID, &f.AddresseeID, &f.Status, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Create inserts a new pending friendship
func (r *FriendshipRepository) Create(ctx context.Context, friendship *models.Friendship) error {
	query := `
		INSERT INTO friendships (id, requester_id, addressee_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		friendship.ID, friendship.RequesterID, friendship.AddresseeID, friendship.Status,
	).Scan(&friendship.CreatedAt, &friendship.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("friend request already exists")
		}
		return fmt.Errorf("failed to create friendship: %w", err)
	}
	return nil
}

// GetByID retrieves a friendship by ID
func (r *FriendshipRepository) GetByID(ctx context.Context, id string) (*models.Friendship, error) {
	query := `SELECT ` + friendshipColumns + ` FROM friendships WHERE id = $1`
	friendship, err := scanFriendship(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("friendship not found")
		}
		return nil, fmt.Errorf("failed to get friendship: %w", err)
	}
	return friendship, nil
}

// GetBetween finds the friendship between two users in either direction.
// Returns (nil, nil) when no edge exists.
func (r *FriendshipRepository) GetBetween(ctx context.Context, userA, userB string) (*models.Friendship, error) {
	query := `
		SELECT ` + friendshipColumns + `
		FROM friendships
		WHERE (requester_id = $1 AND addressee_id = $2)
		   OR (requester_id = $2 AND addressee_id = $1)
	`
	friendship, err := scanFriendship(r.db.QueryRow(ctx, query, userA, userB))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get friendship between users: %w", err)
	}
	return friendship, nil
}

// UpdateStatus sets the status of a friendship
func (r *FriendshipRepository) UpdateStatus(ctx context.Context, id, status string) (*models.Friendship, error) {
	query := `
		UPDATE friendships
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + friendshipColumns
	friendship, err := scanFriendship(r.db.QueryRow(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("friendship not found")
		}
		return nil, fmt.Errorf("failed to update friendship status: %w", err)
	}
	return friendship, nil
}

// ListAccepted returns accepted friendships of a user with the other
// party's profile attached
func (r *FriendshipRepository) ListAccepted(ctx context.Context, userID string) ([]models.FriendWithProfile, error) {
	query := `
		SELECT f.id, f.requester_id, f.addressee_id, f.status, f.created_at, f.updated_at,
		       p.id, p.email, p.password_hash, p.username, p.display_name, p.avatar_url, p.created_at, p.updated_at
		FROM friendships f
		JOIN profiles p ON p.id = CASE WHEN f.requester_id = $1 THEN f.addressee_id ELSE f.requester_id END
		WHERE f.status = 'accepted' AND (f.requester_id = $1 OR f.addressee_id = $1)
		ORDER BY p.username
	`
	return r.listWithProfile(ctx, query, userID)
}

// ListIncomingPending returns pending requests addressed to the user,
// with the requester's profile attached
func (r *FriendshipRepository) ListIncomingPending(ctx context.Context, userID string) ([]models.FriendWithProfile, error) {
	query := `
		SELECT f.id, f.requester_id, f.addressee_id, f.status, f.created_at, f.updated_at,
		       p.id, p.email, p.password_hash, p.username, p.display_name, p.avatar_url, p.created_at, p.updated_at
		FROM friendships f
		JOIN profiles p ON p.id = f.requester_id
		WHERE f.addressee_id = $1 AND f.status = 'pending'
		ORDER BY f.created_at DESC
	`
	return r.listWithProfile(ctx, query, userID)
}

// ListOutgoingPending returns pending requests sent by the user, with the
// addressee's profile attached
func (r *FriendshipRepository) ListOutgoingPending(ctx context.Context, userID string) ([]models.FriendWithProfile, error) {
	query := `
		SELECT f.id, f.requester_id, f.addressee_id, f.status, f.created_at, f.updated_at,
		       p.id, p.email, p.password_hash, p.username, p.display_name, p.avatar_url, p.created_at, p.updated_at
		FROM friendships f
		JOIN profiles p ON p.id = f.addressee_id
		WHERE f.requester_id = $1 AND f.status = 'pending'
		ORDER BY f.created_at DESC
	`
	return r.listWithProfile(ctx, query, userID)
}

func (r *FriendshipRepository) listWithProfile(ctx context.Context, query, userID string) ([]models.FriendWithProfile, error) {
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friendships: %w", err)
	}
	defer rows.Close()

	var friends []models.FriendWithProfile
	for rows.Next() {
		var fw models.FriendWithProfile
		err := rows.Scan(
			&fw.ID, &fw.RequesterID, &fw.AddresseeID, &fw.Status, &fw.CreatedAt, &fw.UpdatedAt,
			&fw.Profile.ID, &fw.Profile.Email, &fw.Profile.PasswordHash, &fw.Profile.Username,
			&fw.Profile.DisplayName, &fw.Profile.AvatarURL, &fw.Profile.CreatedAt, &fw.Profile.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan friendship: %w", err)
		}
		friends = append(friends, fw)
	}
	return friends, rows.Err()
}
