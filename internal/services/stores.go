package services

import (
	"context"

	"bitebuddy-backend/internal/models"
	"bitebuddy-backend/internal/places"
)

// Store interfaces consumed by the services. The repository package
// provides the PostgreSQL implementations; tests provide in-memory fakes.

// ProfileStore persists profiles
type ProfileStore interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	GetByUsername(ctx context.Context, username string) (*models.Profile, error)
	SearchByUsername(ctx context.Context, q, excludeID string, limit int) ([]models.Profile, error)
	Update(ctx context.Context, id string, displayName, avatarURL *string) (*models.Profile, error)
}

// FriendshipStore persists friendship edges
type FriendshipStore interface {
	Create(ctx context.Context, friendship *models.Friendship) error
	GetByID(ctx context.Context, id string) (*models.Friendship, error)
	GetBetween(ctx context.Context, userA, userB string) (*models.Friendship, error)
	UpdateStatus(ctx context.Context, id, status string) (*models.Friendship, error)
	ListAccepted(ctx context.Context, userID string) ([]models.FriendWithProfile, error)
	ListIncomingPending(ctx context.Context, userID string) ([]models.FriendWithProfile, error)
	ListOutgoingPending(ctx context.Context, userID string) ([]models.FriendWithProfile, error)
}

// SessionStore persists sessions and memberships
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	ListForUser(ctx context.Context, userID, status string) ([]models.Session, error)
	UpsertMembers(ctx context.Context, sessionID string, userIDs []string) ([]models.SessionMember, error)
	ListMembers(ctx context.Context, sessionID string) ([]models.MemberWithProfile, error)
	ListMemberIDs(ctx context.Context, sessionID string) ([]string, error)
	IsMember(ctx context.Context, sessionID, userID string) (bool, error)
	Start(ctx context.Context, sessionID string, restaurants []models.Restaurant) error
}

// RestaurantStore reads session candidates
type RestaurantStore interface {
	GetByID(ctx context.Context, id string) (*models.Restaurant, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.Restaurant, error)
	CountBySession(ctx context.Context, sessionID string) (int, error)
}

// SwipeStore persists the swipe ledger
type SwipeStore interface {
	Get(ctx context.Context, sessionID, userID, restaurantID string) (*models.Swipe, error)
	Insert(ctx context.Context, swipe *models.Swipe) error
	ListLikerIDs(ctx context.Context, sessionID, restaurantID string) ([]string, error)
	CountsByUser(ctx context.Context, sessionID string) (map[string]int, error)
}

// MatchStore persists matches
type MatchStore interface {
	Get(ctx context.Context, sessionID, restaurantID string) (*models.Match, error)
	InsertIfAbsent(ctx context.Context, match *models.Match) (*models.Match, bool, error)
	CountBySession(ctx context.Context, sessionID string) (int, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.MatchWithRestaurant, error)
	ListRecentForUser(ctx context.Context, userID string, limit int) ([]models.RecentMatch, error)
}

// PlacesSearcher is the external places-search collaborator
type PlacesSearcher interface {
	Search(ctx context.Context, params places.SearchParams) ([]places.Business, error)
}
