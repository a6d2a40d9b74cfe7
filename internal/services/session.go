package services

import (
	"context"
	"strings"

	"bitebuddy-backend/internal/apperr"
	"bitebuddy-backend/internal/models"
	"bitebuddy-backend/internal/places"

	"github.com/google/uuid"
)

const (
	defaultRadiusMeters = 5000

	recentMatchesDefault = 10
	recentMatchesMax     = 50
)

// CreateSessionParams carries validated-at-the-service session creation
// input. Latitude and Longitude are pointers so absent coordinates are
// distinguishable from zero.
type CreateSessionParams struct {
	Name           string
	Latitude       *float64
	Longitude      *float64
	RadiusMeters   int
	PriceFilter    []string
	CategoryFilter *string
}

// SessionDetails is the session projection returned by Detail
type SessionDetails struct {
	models.Session
	Members         []models.MemberWithProfile `json:"members"`
	RestaurantCount int                        `json:"restaurant_count"`
	MatchCount      int                        `json:"match_count"`
}

// SessionResults is the read-only results projection
type SessionResults struct {
	Matches          []models.MatchWithRestaurant `json:"matches"`
	TotalRestaurants int                          `json:"total_restaurants"`
	SwipeProgress    map[string]int               `json:"swipe_progress"`
}

// SessionService governs the session lifecycle and its read projections
type SessionService struct {
	sessions    SessionStore
	restaurants RestaurantStore
	swipes      SwipeStore
	matches     MatchStore
	places      PlacesSearcher
}

// NewSessionService creates a new session service
func NewSessionService(sessions SessionStore, restaurants RestaurantStore, swipes SwipeStore, matches MatchStore, placesClient PlacesSearcher) *SessionService {
	return &SessionService{
		sessions:    sessions,
		restaurants: restaurants,
		swipes:      swipes,
		matches:     matches,
		places:      placesClient,
	}
}

// Create starts a new session in the waiting state with the creator as
// its first member
func (s *SessionService) Create(ctx context.Context, userID string, params CreateSessionParams) (*models.Session, error) {
	if strings.TrimSpace(params.Name) == "" || params.Latitude == nil || params.Longitude == nil {
		return nil, apperr.Validation("name, latitude, and longitude are required")
	}

	radius := params.RadiusMeters
	if radius <= 0 {
		radius = defaultRadiusMeters
	}

	session := &models.Session{
		ID:             uuid.New().String(),
		CreatedBy:      userID,
		Name:           strings.TrimSpace(params.Name),
		Status:         models.SessionWaiting,
		Latitude:       *params.Latitude,
		Longitude:      *params.Longitude,
		RadiusMeters:   radius,
		PriceFilter:    params.PriceFilter,
		CategoryFilter: params.CategoryFilter,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// List returns the caller's sessions, newest first, optionally filtered
// by status
func (s *SessionService) List(ctx context.Context, userID, status string) ([]models.Session, error) {
	return s.sessions.ListForUser(ctx, userID, status)
}

// Detail returns a session with members, counts, and derived completion
func (s *SessionService) Detail(ctx context.Context, sessionID string) (*SessionDetails, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	members, err := s.sessions.ListMembers(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	restaurantCount, err := s.restaurants.CountBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	matchCount, err := s.matches.CountBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	details := &SessionDetails{
		Session:         *session,
		Members:         members,
		RestaurantCount: restaurantCount,
		MatchCount:      matchCount,
	}

	if session.Status == models.SessionActive {
		done, err := s.allMembersDone(ctx, sessionID, len(members), restaurantCount)
		if err != nil {
			return nil, err
		}
		if done {
			details.Status = models.SessionCompleted
		}
	}
	return details, nil
}

// allMembersDone reports whether every member has swiped every candidate.
// Completion is a read-side derivation; the stored status never moves
// past active.
func (s *SessionService) allMembersDone(ctx context.Context, sessionID string, memberCount, restaurantCount int) (bool, error) {
	if restaurantCount == 0 || memberCount == 0 {
		return false, nil
	}
	counts, err := s.swipes.CountsByUser(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if len(counts) < memberCount {
		return false, nil
	}
	for _, count := range counts {
		if count < restaurantCount {
			return false, nil
		}
	}
	return true, nil
}

// Invite adds users to a session. The upsert is idempotent: inviting an
// existing member is a no-op, not an error.
func (s *SessionService) Invite(ctx context.Context, sessionID, callerID string, userIDs []string) ([]models.SessionMember, error) {
	if len(userIDs) == 0 {
		return nil, apperr.Validation("user_ids are required")
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	isMember, err := s.sessions.IsMember(ctx, sessionID, callerID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, apperr.Authorization("only session members can invite")
	}
	if session.Status != models.SessionWaiting && session.Status != models.SessionActive {
		return nil, apperr.State("session is no longer accepting members")
	}

	return s.sessions.UpsertMembers(ctx, sessionID, userIDs)
}

// Join adds the caller to a session; idempotent self-invite
func (s *SessionService) Join(ctx context.Context, sessionID, userID string) (*models.SessionMember, error) {
	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		return nil, err
	}

	members, err := s.sessions.UpsertMembers(ctx, sessionID, []string{userID})
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, apperr.New(apperr.CodeInternal, "failed to join session")
	}
	return &members[0], nil
}

// Start transitions a waiting session to active: it fetches candidates
// from the places collaborator, then inserts them and flips the status in
// one transaction. Any failure leaves the session waiting with zero
// candidates.
func (s *SessionService) Start(ctx context.Context, sessionID, callerID string) ([]models.Restaurant, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.CreatedBy != callerID {
		return nil, apperr.Authorization("only the session creator can start it")
	}
	if session.Status != models.SessionWaiting {
		return nil, apperr.State("session has already been started")
	}

	params := places.SearchParams{
		Latitude:     session.Latitude,
		Longitude:    session.Longitude,
		RadiusMeters: session.RadiusMeters,
		PriceLevels:  places.MapPriceFilter(session.PriceFilter),
	}
	if session.CategoryFilter != nil {
		params.IncludedTypes = places.TypesForCuisine(*session.CategoryFilter)
	}

	businesses, err := s.places.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(businesses) == 0 {
		return nil, apperr.NotFound("no restaurants found for the given criteria")
	}

	restaurants := candidatesFromBusinesses(sessionID, businesses)
	if err := s.sessions.Start(ctx, sessionID, restaurants); err != nil {
		return nil, err
	}
	return restaurants, nil
}

// candidatesFromBusinesses converts search results into candidate rows,
// deduplicated by place ID with insertion order preserved
func candidatesFromBusinesses(sessionID string, businesses []places.Business) []models.Restaurant {
	seen := make(map[string]bool, len(businesses))
	restaurants := make([]models.Restaurant, 0, len(businesses))
	for _, biz := range businesses {
		if seen[biz.ID] {
			continue
		}
		seen[biz.ID] = true
		restaurants = append(restaurants, models.Restaurant{
			ID:          uuid.New().String(),
			SessionID:   sessionID,
			PlaceID:     biz.ID,
			Name:        biz.Name,
			ImageURL:    biz.ImageURL,
			Rating:      biz.Rating,
			ReviewCount: biz.ReviewCount,
			Price:       biz.Price,
			Categories:  biz.Categories,
			Address:     biz.Address,
			Latitude:    biz.Latitude,
			Longitude:   biz.Longitude,
			Phone:       biz.Phone,
			MapsURL:     biz.MapsURL,
			Position:    len(restaurants),
		})
	}
	return restaurants
}

// MemberIDs returns the current member set of a session
func (s *SessionService) MemberIDs(ctx context.Context, sessionID string) ([]string, error) {
	return s.sessions.ListMemberIDs(ctx, sessionID)
}

// Restaurants returns a session's candidates, best rated first
func (s *SessionService) Restaurants(ctx context.Context, sessionID string) ([]models.Restaurant, error) {
	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.restaurants.ListBySession(ctx, sessionID)
}

// Results returns the results projection: matches newest first, candidate
// total, and per-member swipe counts. Zero matches is an empty list, not
// an error.
func (s *SessionService) Results(ctx context.Context, sessionID string) (*SessionResults, error) {
	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		return nil, err
	}

	matches, err := s.matches.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	total, err := s.restaurants.CountBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	progress, err := s.swipes.CountsByUser(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if matches == nil {
		matches = []models.MatchWithRestaurant{}
	}
	return &SessionResults{
		Matches:          matches,
		TotalRestaurants: total,
		SwipeProgress:    progress,
	}, nil
}

// RecentMatches returns matches across the caller's sessions, newest
// first. Limit defaults to 10 and is capped at 50.
func (s *SessionService) RecentMatches(ctx context.Context, userID string, limit int) ([]models.RecentMatch, error) {
	if limit <= 0 {
		limit = recentMatchesDefault
	}
	if limit > recentMatchesMax {
		limit = recentMatchesMax
	}
	matches, err := s.matches.ListRecentForUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []models.RecentMatch{}
	}
	return matches, nil
}
