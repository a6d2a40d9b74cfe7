package services

import (
	"context"
	"strings"

	"bitebuddy-backend/internal/apperr"
	"bitebuddy-backend/internal/models"

	"github.com/google/uuid"
)

const searchLimit = 20

// FriendshipService handles friend-graph business logic
type FriendshipService struct {
	friendships FriendshipStore
	profiles    ProfileStore
}

// NewFriendshipService creates a new friendship service
func NewFriendshipService(friendships FriendshipStore, profiles ProfileStore) *FriendshipService {
	return &FriendshipService{
		friendships: friendships,
		profiles:    profiles,
	}
}

// Request sends a friend request to the named user. At most one
// friendship edge exists per unordered pair: a second request in either
// direction is rejected with the existing status.
func (s *FriendshipService) Request(ctx context.Context, requesterID, username string) (*models.Friendship, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperr.Validation("username is required")
	}

	target, err := s.profiles.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if target.ID == requesterID {
		return nil, apperr.Validation("cannot send friend request to yourself")
	}

	existing, err := s.friendships.GetBetween(ctx, requesterID, target.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Newf(apperr.CodeConflict, "friend request already %s", existing.Status)
	}

	friendship := &models.Friendship{
		ID:          uuid.New().String(),
		RequesterID: requesterID,
		AddresseeID: target.ID,
		Status:      models.FriendshipPending,
	}
	if err := s.friendships.Create(ctx, friendship); err != nil {
		return nil, err
	}
	return friendship, nil
}

// Respond accepts or declines a pending friend request. Only the
// addressee may respond.
func (s *FriendshipService) Respond(ctx context.Context, userID, friendshipID, action string) (*models.Friendship, error) {
	if friendshipID == "" || action == "" {
		return nil, apperr.Validation("friendship_id and action are required")
	}

	var newStatus string
	switch action {
	case "accept":
		newStatus = models.FriendshipAccepted
	case "decline":
		newStatus = models.FriendshipDeclined
	default:
		return nil, apperr.Validation("action must be accept or decline")
	}

	friendship, err := s.friendships.GetByID(ctx, friendshipID)
	if err != nil {
		return nil, err
	}
	if friendship.AddresseeID != userID {
		return nil, apperr.Authorization("only the addressee can respond to a friend request")
	}
	if friendship.Status != models.FriendshipPending {
		return nil, apperr.Newf(apperr.CodeState, "friend request already %s", friendship.Status)
	}

	return s.friendships.UpdateStatus(ctx, friendshipID, newStatus)
}

// ListFriends returns the user's accepted friendships with profiles
func (s *FriendshipService) ListFriends(ctx context.Context, userID string) ([]models.FriendWithProfile, error) {
	return s.friendships.ListAccepted(ctx, userID)
}

// ListIncomingRequests returns pending requests addressed to the user
func (s *FriendshipService) ListIncomingRequests(ctx context.Context, userID string) ([]models.FriendWithProfile, error) {
	return s.friendships.ListIncomingPending(ctx, userID)
}

// ListSentRequests returns pending requests sent by the user
func (s *FriendshipService) ListSentRequests(ctx context.Context, userID string) ([]models.FriendWithProfile, error) {
	return s.friendships.ListOutgoingPending(ctx, userID)
}

// Search finds profiles by username substring, excluding the caller
func (s *FriendshipService) Search(ctx context.Context, userID, q string) ([]models.Profile, error) {
	q = strings.TrimSpace(q)
	if len(q) < 2 {
		return nil, apperr.Validation("search query must be at least 2 characters")
	}
	return s.profiles.SearchByUsername(ctx, q, userID, searchLimit)
}
