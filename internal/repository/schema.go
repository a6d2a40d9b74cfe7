package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied at startup. The unique constraints on memberships,
// swipes and matches are load-bearing: they back the idempotent upserts
// and the insert-if-absent match derivation.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		avatar_url TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS friendships (
		id UUID PRIMARY KEY,
		requester_id UUID NOT NULL REFERENCES profiles(id),
		addressee_id UUID NOT NULL REFERENCES profiles(id),
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (requester_id, addressee_id)
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id UUID PRIMARY KEY,
		created_by UUID NOT NULL REFERENCES profiles(id),
		name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'waiting',
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		radius_meters INT NOT NULL DEFAULT 5000,
		price_filter TEXT[],
		category_filter TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS session_members (
		id UUID PRIMARY KEY,
		session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES profiles(id),
		joined_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (session_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS session_restaurants (
		id UUID PRIMARY KEY,
		session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		place_id TEXT NOT NULL,
		name TEXT NOT NULL,
		image_url TEXT,
		rating DOUBLE PRECISION NOT NULL DEFAULT 0,
		review_count INT NOT NULL DEFAULT 0,
		price TEXT,
		categories JSONB,
		address TEXT NOT NULL DEFAULT '',
		latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
		longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
		phone TEXT NOT NULL DEFAULT '',
		maps_url TEXT NOT NULL DEFAULT '',
		position INT NOT NULL DEFAULT 0,
		UNIQUE (session_id, place_id)
	)`,
	`CREATE TABLE IF NOT EXISTS swipes (
		id UUID PRIMARY KEY,
		session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES profiles(id),
		restaurant_id UUID NOT NULL REFERENCES session_restaurants(id),
		liked BOOLEAN NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (session_id, user_id, restaurant_id)
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id UUID PRIMARY KEY,
		session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		restaurant_id UUID NOT NULL REFERENCES session_restaurants(id),
		matched_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (session_id, restaurant_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_swipes_session_restaurant
		ON swipes (session_id, restaurant_id) WHERE liked`,
	`CREATE INDEX IF NOT EXISTS idx_matches_matched_at
		ON matches (matched_at DESC)`,
}

// Migrate applies the schema. Statements are idempotent so this runs on
// every startup.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a unique-constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
