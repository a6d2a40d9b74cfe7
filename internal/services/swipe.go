package services

import (
	"context"

	"bitebuddy-backend/internal/apperr"
	"bitebuddy-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SwipeResult reports the outcome of a recorded swipe. IsMatch is false
// whenever match status could not be determined; the swipe itself is
// still durably recorded.
type SwipeResult struct {
	Swipe      *models.Swipe      `json:"-"`
	Restaurant *models.Restaurant `json:"-"`
	SwipeID    string             `json:"swipe_id"`
	IsMatch    bool               `json:"is_match"`
	Match      *models.Match      `json:"match,omitempty"`
}

// SwipeService is the swipe ledger plus the match deriver
type SwipeService struct {
	sessions    SessionStore
	restaurants RestaurantStore
	swipes      SwipeStore
	matches     MatchStore
}

// NewSwipeService creates a new swipe service
func NewSwipeService(sessions SessionStore, restaurants RestaurantStore, swipes SwipeStore, matches MatchStore) *SwipeService {
	return &SwipeService{
		sessions:    sessions,
		restaurants: restaurants,
		swipes:      swipes,
		matches:     matches,
	}
}

// RecordSwipe appends one verdict to the ledger and, for a like, runs the
// match deriver before returning so the caller learns about a match in
// the same response. Repeating a swipe with the same verdict is a no-op
// returning the original row; changing the verdict is a conflict.
func (s *SwipeService) RecordSwipe(ctx context.Context, sessionID, userID, restaurantID string, liked bool) (*SwipeResult, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionActive {
		return nil, apperr.State("session is not active")
	}

	isMember, err := s.sessions.IsMember(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, apperr.Authorization("only session members can swipe")
	}

	restaurant, err := s.restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if restaurant.SessionID != sessionID {
		return nil, apperr.NotFound("restaurant does not belong to this session")
	}

	existing, err := s.swipes.Get(ctx, sessionID, userID, restaurantID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		result, err := s.repeatResult(ctx, existing, liked)
		if err != nil {
			return nil, err
		}
		result.Restaurant = restaurant
		return result, nil
	}

	swipe := &models.Swipe{
		ID:           uuid.New().String(),
		SessionID:    sessionID,
		UserID:       userID,
		RestaurantID: restaurantID,
		Liked:        liked,
	}
	if err := s.swipes.Insert(ctx, swipe); err != nil {
		if apperr.CodeOf(err) == apperr.CodeConflict {
			// Lost a race with a concurrent request for the same tuple;
			// resolve against whichever row won.
			winner, getErr := s.swipes.Get(ctx, sessionID, userID, restaurantID)
			if getErr == nil && winner != nil {
				result, rErr := s.repeatResult(ctx, winner, liked)
				if rErr != nil {
					return nil, rErr
				}
				result.Restaurant = restaurant
				return result, nil
			}
		}
		return nil, err
	}

	result := &SwipeResult{Swipe: swipe, Restaurant: restaurant, SwipeID: swipe.ID}
	if !liked {
		return result, nil
	}

	match, _, err := s.DeriveMatch(ctx, sessionID, restaurantID)
	if err != nil {
		// The swipe is durable; report match status as unknown rather
		// than failing the request or guessing true.
		log.Error().Err(err).
			Str("session_id", sessionID).
			Str("restaurant_id", restaurantID).
			Msg("Match derivation failed after swipe")
		return result, nil
	}
	if match != nil {
		result.IsMatch = true
		result.Match = match
	}
	return result, nil
}

// repeatResult resolves a swipe that already exists: same verdict is
// idempotent, a changed verdict violates ledger immutability.
func (s *SwipeService) repeatResult(ctx context.Context, existing *models.Swipe, liked bool) (*SwipeResult, error) {
	if existing.Liked != liked {
		return nil, apperr.Conflict("swipe verdict cannot be changed")
	}

	result := &SwipeResult{Swipe: existing, SwipeID: existing.ID}
	if existing.Liked {
		match, err := s.matches.Get(ctx, existing.SessionID, existing.RestaurantID)
		if err != nil {
			return nil, err
		}
		if match != nil {
			result.IsMatch = true
			result.Match = match
		}
	}
	return result, nil
}

// DeriveMatch checks consensus for one candidate: a match exists iff
// every current member has liked it. The insert is guarded by the
// (session, restaurant) uniqueness constraint, so concurrent derivations
// for the same candidate cannot create duplicates. Matches are never
// retracted when membership changes afterwards.
func (s *SwipeService) DeriveMatch(ctx context.Context, sessionID, restaurantID string) (*models.Match, bool, error) {
	memberIDs, err := s.sessions.ListMemberIDs(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if len(memberIDs) == 0 {
		return nil, false, nil
	}

	likerIDs, err := s.swipes.ListLikerIDs(ctx, sessionID, restaurantID)
	if err != nil {
		return nil, false, err
	}
	likers := make(map[string]bool, len(likerIDs))
	for _, id := range likerIDs {
		likers[id] = true
	}

	for _, memberID := range memberIDs {
		if !likers[memberID] {
			return nil, false, nil
		}
	}

	match, created, err := s.matches.InsertIfAbsent(ctx, &models.Match{
		ID:           uuid.New().String(),
		SessionID:    sessionID,
		RestaurantID: restaurantID,
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		log.Info().
			Str("session_id", sessionID).
			Str("restaurant_id", restaurantID).
			Msg("Match created")
	}
	return match, created, nil
}
