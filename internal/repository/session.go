package repository

import (
	"context"
	"errors"
	"fmt"

	"bitebuddy-backend/internal/apperr"
	"bitebuddy-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository handles database operations for sessions and their
// memberships
type SessionRepository struct {
	db *pgxpool.Pool
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, created_by, name, status, latitude, longitude, radius_meters, price_filter, category_filter, created_at, updated_at`

func scanSession(row pgx.Row) (*models.Session, error) {
	var s models.Session
	err := row.Scan(&s.ID, &s.CreatedBy, &s.Name, &s.Status, &s.Latitude, &s.Longitude,
		&s.RadiusMeters, &s.PriceFilter, &s.CategoryFilter, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a session and its creator membership in one transaction
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO sessions (id, created_by, name, status, latitude, longitude, radius_meters, price_filter, category_filter)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err = tx.QueryRow(ctx, query,
		session.ID, session.CreatedBy, session.Name, session.Status,
		session.Latitude, session.Longitude, session.RadiusMeters,
		session.PriceFilter, session.CategoryFilter,
	).Scan(&session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	memberQuery := `
		INSERT INTO session_members (id, session_id, user_id)
		VALUES ($1, $2, $3)
	`
	if _, err := tx.Exec(ctx, memberQuery, uuid.New().String(), session.ID, session.CreatedBy); err != nil {
		return fmt.Errorf("failed to add creator membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit session creation: %w", err)
	}
	return nil
}

// GetByID retrieves a session by ID
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	session, err := scanSession(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("session not found")
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// ListForUser returns sessions the user is a member of, newest first,
// optionally filtered by status
func (r *SessionRepository) ListForUser(ctx context.Context, userID, status string) ([]models.Session, error) {
	query := `
		SELECT ` + prefixedSessionColumns("s") + `
		FROM sessions s
		JOIN session_members m ON m.session_id = s.id
		WHERE m.user_id = $1 AND ($2 = '' OR s.status = $2)
		ORDER BY s.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

func prefixedSessionColumns(alias string) string {
	return alias + `.id, ` + alias + `.created_by, ` + alias + `.name, ` + alias + `.status, ` +
		alias + `.latitude, ` + alias + `.longitude, ` + alias + `.radius_meters, ` +
		alias + `.price_filter, ` + alias + `.category_filter, ` + alias + `.created_at, ` + alias + `.updated_at`
}

// UpsertMembers adds users to a session idempotently and returns the
// current membership rows for those users
func (r *SessionRepository) UpsertMembers(ctx context.Context, sessionID string, userIDs []string) ([]models.SessionMember, error) {
	for _, userID := range userIDs {
		query := `
			INSERT INTO session_members (id, session_id, user_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (session_id, user_id) DO NOTHING
		`
		if _, err := r.db.Exec(ctx, query, uuid.New().String(), sessionID, userID); err != nil {
			return nil, fmt.Errorf("failed to upsert session member: %w", err)
		}
	}

	query := `
		SELECT id, session_id, user_id, joined_at
		FROM session_members
		WHERE session_id = $1 AND user_id = ANY($2)
		ORDER BY joined_at
	`
	rows, err := r.db.Query(ctx, query, sessionID, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list upserted members: %w", err)
	}
	defer rows.Close()

	var members []models.SessionMember
	for rows.Next() {
		var m models.SessionMember
		if err := rows.Scan(&m.ID, &m.SessionID, &m.UserID, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ListMembers returns the members of a session with profiles attached
func (r *SessionRepository) ListMembers(ctx context.Context, sessionID string) ([]models.MemberWithProfile, error) {
	query := `
		SELECT m.id, m.session_id, m.user_id, m.joined_at,
		       p.id, p.email, p.password_hash, p.username, p.display_name, p.avatar_url, p.created_at, p.updated_at
		FROM session_members m
		JOIN profiles p ON p.id = m.user_id
		WHERE m.session_id = $1
		ORDER BY m.joined_at
	`
	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session members: %w", err)
	}
	defer rows.Close()

	var members []models.MemberWithProfile
	for rows.Next() {
		var mw models.MemberWithProfile
		err := rows.Scan(
			&mw.ID, &mw.SessionID, &mw.UserID, &mw.JoinedAt,
			&mw.Profile.ID, &mw.Profile.Email, &mw.Profile.PasswordHash, &mw.Profile.Username,
			&mw.Profile.DisplayName, &mw.Profile.AvatarURL, &mw.Profile.CreatedAt, &mw.Profile.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session member: %w", err)
		}
		members = append(members, mw)
	}
	return members, rows.Err()
}

// ListMemberIDs returns the user IDs of the current member set
func (r *SessionRepository) ListMemberIDs(ctx context.Context, sessionID string) ([]string, error) {
	query := `SELECT user_id FROM session_members WHERE session_id = $1 ORDER BY joined_at`
	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list member ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan member id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// IsMember checks whether a user belongs to a session
func (r *SessionRepository) IsMember(ctx context.Context, sessionID, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM session_members WHERE session_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, sessionID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return exists, nil
}

// Start bulk-inserts the candidate set and flips the session from waiting
// to active in a single transaction. A failure anywhere rolls back fully,
// leaving the session waiting with zero candidates.
func (r *SessionRepository) Start(ctx context.Context, sessionID string, restaurants []models.Restaurant) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO session_restaurants (id, session_id, place_id, name, image_url, rating, review_count,
		                                 price, categories, address, latitude, longitude, phone, maps_url, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	for i := range restaurants {
		rest := &restaurants[i]
		_, err := tx.Exec(ctx, query,
			rest.ID, sessionID, rest.PlaceID, rest.Name, rest.ImageURL,
			rest.Rating, rest.ReviewCount, rest.Price, rest.Categories,
			rest.Address, rest.Latitude, rest.Longitude, rest.Phone, rest.MapsURL, rest.Position,
		)
		if err != nil {
			return fmt.Errorf("failed to insert session restaurant: %w", err)
		}
	}

	tag, err := tx.Exec(ctx,
		`UPDATE sessions SET status = 'active', updated_at = now() WHERE id = $1 AND status = 'waiting'`,
		sessionID)
	if err != nil {
		return fmt.Errorf("failed to activate session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Lost a race with a concurrent start; roll back the candidates.
		return apperr.State("session has already been started")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit session start: %w", err)
	}
	return nil
}
