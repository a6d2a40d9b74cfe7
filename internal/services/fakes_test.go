package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"bitebuddy-backend/internal/apperr"
	"bitebuddy-backend/internal/models"
	"bitebuddy-backend/internal/places"

	"github.com/google/uuid"
)

// fakeStore is an in-memory implementation of every store interface,
// mirroring the storage-level uniqueness constraints.
type fakeStore struct {
	profiles    map[string]*models.Profile
	friendships map[string]*models.Friendship
	sessions    map[string]*models.Session
	members     map[string][]models.SessionMember
	restaurants map[string]*models.Restaurant
	swipes      map[string]*models.Swipe
	matches     map[string]*models.Match

	startErr       error
	matchInsertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles:    make(map[string]*models.Profile),
		friendships: make(map[string]*models.Friendship),
		sessions:    make(map[string]*models.Session),
		members:     make(map[string][]models.SessionMember),
		restaurants: make(map[string]*models.Restaurant),
		swipes:      make(map[string]*models.Swipe),
		matches:     make(map[string]*models.Match),
	}
}

func swipeKey(sessionID, userID, restaurantID string) string {
	return sessionID + "|" + userID + "|" + restaurantID
}

func matchKey(sessionID, restaurantID string) string {
	return sessionID + "|" + restaurantID
}

// ProfileStore

func (f *fakeStore) Create(ctx context.Context, profile *models.Profile) error {
	for _, p := range f.profiles {
		if p.Email == profile.Email || p.Username == profile.Username {
			return apperr.Conflict("email or username already taken")
		}
	}
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = profile.CreatedAt
	clone := *profile
	f.profiles[profile.ID] = &clone
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, apperr.NotFound("profile not found")
	}
	clone := *p
	return &clone, nil
}

func (f *fakeStore) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	for _, p := range f.profiles {
		if p.Email == email {
			clone := *p
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("profile not found")
}

func (f *fakeStore) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	for _, p := range f.profiles {
		if p.Username == username {
			clone := *p
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (f *fakeStore) SearchByUsername(ctx context.Context, q, excludeID string, limit int) ([]models.Profile, error) {
	var out []models.Profile
	for _, p := range f.profiles {
		if p.ID == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(p.Username), strings.ToLower(q)) {
			out = append(out, *p)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) Update(ctx context.Context, id string, displayName, avatarURL *string) (*models.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, apperr.NotFound("profile not found")
	}
	if displayName != nil {
		p.DisplayName = *displayName
	}
	if avatarURL != nil {
		p.AvatarURL = avatarURL
	}
	p.UpdatedAt = time.Now()
	clone := *p
	return &clone, nil
}

// FriendshipStore. CreateFriendship etc. are distinct names from the
// profile methods, so the fake satisfies both interfaces via a wrapper.

type fakeFriendshipStore struct{ *fakeStore }

func (f fakeFriendshipStore) Create(ctx context.Context, friendship *models.Friendship) error {
	for _, fr := range f.friendships {
		if fr.RequesterID == friendship.RequesterID && fr.AddresseeID == friendship.AddresseeID {
			return apperr.Conflict("friend request already exists")
		}
	}
	friendship.CreatedAt = time.Now()
	friendship.UpdatedAt = friendship.CreatedAt
	clone := *friendship
	f.friendships[friendship.ID] = &clone
	return nil
}

func (f fakeFriendshipStore) GetByID(ctx context.Context, id string) (*models.Friendship, error) {
	fr, ok := f.friendships[id]
	if !ok {
		return nil, apperr.NotFound("friendship not found")
	}
	clone := *fr
	return &clone, nil
}

func (f fakeFriendshipStore) GetBetween(ctx context.Context, userA, userB string) (*models.Friendship, error) {
	for _, fr := range f.friendships {
		if (fr.RequesterID == userA && fr.AddresseeID == userB) ||
			(fr.RequesterID == userB && fr.AddresseeID == userA) {
			clone := *fr
			return &clone, nil
		}
	}
	return nil, nil
}

func (f fakeFriendshipStore) UpdateStatus(ctx context.Context, id, status string) (*models.Friendship, error) {
	fr, ok := f.friendships[id]
	if !ok {
		return nil, apperr.NotFound("friendship not found")
	}
	fr.Status = status
	fr.UpdatedAt = time.Now()
	clone := *fr
	return &clone, nil
}

func (f fakeFriendshipStore) ListAccepted(ctx context.Context, userID string) ([]models.FriendWithProfile, error) {
	return f.listWithProfile(userID, func(fr *models.Friendship) (string, bool) {
		if fr.Status != models.FriendshipAccepted {
			return "", false
		}
		if fr.RequesterID == userID {
			return fr.AddresseeID, true
		}
		if fr.AddresseeID == userID {
			return fr.RequesterID, true
		}
		return "", false
	})
}

func (f fakeFriendshipStore) ListIncomingPending(ctx context.Context, userID string) ([]models.FriendWithProfile, error) {
	return f.listWithProfile(userID, func(fr *models.Friendship) (string, bool) {
		if fr.Status == models.FriendshipPending && fr.AddresseeID == userID {
			return fr.RequesterID, true
		}
		return "", false
	})
}

func (f fakeFriendshipStore) ListOutgoingPending(ctx context.Context, userID string) ([]models.FriendWithProfile, error) {
	return f.listWithProfile(userID, func(fr *models.Friendship) (string, bool) {
		if fr.Status == models.FriendshipPending && fr.RequesterID == userID {
			return fr.AddresseeID, true
		}
		return "", false
	})
}

func (f fakeFriendshipStore) listWithProfile(userID string, pick func(*models.Friendship) (string, bool)) ([]models.FriendWithProfile, error) {
	var out []models.FriendWithProfile
	for _, fr := range f.friendships {
		otherID, ok := pick(fr)
		if !ok {
			continue
		}
		fw := models.FriendWithProfile{Friendship: *fr}
		if p, ok := f.profiles[otherID]; ok {
			fw.Profile = *p
		}
		out = append(out, fw)
	}
	return out, nil
}

// SessionStore

type fakeSessionStore struct{ *fakeStore }

func (f fakeSessionStore) Create(ctx context.Context, session *models.Session) error {
	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt
	clone := *session
	f.sessions[session.ID] = &clone
	f.members[session.ID] = append(f.members[session.ID], models.SessionMember{
		ID:        uuid.New().String(),
		SessionID: session.ID,
		UserID:    session.CreatedBy,
		JoinedAt:  time.Now(),
	})
	return nil
}

func (f fakeSessionStore) GetByID(ctx context.Context, id string) (*models.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, apperr.NotFound("session not found")
	}
	clone := *s
	return &clone, nil
}

func (f fakeSessionStore) ListForUser(ctx context.Context, userID, status string) ([]models.Session, error) {
	var out []models.Session
	for sessionID, members := range f.members {
		for _, m := range members {
			if m.UserID != userID {
				continue
			}
			s := f.sessions[sessionID]
			if status == "" || s.Status == status {
				out = append(out, *s)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f fakeSessionStore) UpsertMembers(ctx context.Context, sessionID string, userIDs []string) ([]models.SessionMember, error) {
	var out []models.SessionMember
	for _, userID := range userIDs {
		existing := f.findMember(sessionID, userID)
		if existing == nil {
			member := models.SessionMember{
				ID:        uuid.New().String(),
				SessionID: sessionID,
				UserID:    userID,
				JoinedAt:  time.Now(),
			}
			f.members[sessionID] = append(f.members[sessionID], member)
			existing = &member
		}
		out = append(out, *existing)
	}
	return out, nil
}

func (f fakeSessionStore) findMember(sessionID, userID string) *models.SessionMember {
	for i := range f.members[sessionID] {
		if f.members[sessionID][i].UserID == userID {
			return &f.members[sessionID][i]
		}
	}
	return nil
}

func (f fakeSessionStore) ListMembers(ctx context.Context, sessionID string) ([]models.MemberWithProfile, error) {
	var out []models.MemberWithProfile
	for _, m := range f.members[sessionID] {
		mw := models.MemberWithProfile{SessionMember: m}
		if p, ok := f.profiles[m.UserID]; ok {
			mw.Profile = *p
		}
		out = append(out, mw)
	}
	return out, nil
}

func (f fakeSessionStore) ListMemberIDs(ctx context.Context, sessionID string) ([]string, error) {
	var ids []string
	for _, m := range f.members[sessionID] {
		ids = append(ids, m.UserID)
	}
	return ids, nil
}

func (f fakeSessionStore) IsMember(ctx context.Context, sessionID, userID string) (bool, error) {
	return f.findMember(sessionID, userID) != nil, nil
}

func (f fakeSessionStore) Start(ctx context.Context, sessionID string, restaurants []models.Restaurant) error {
	if f.startErr != nil {
		return f.startErr
	}
	s, ok := f.sessions[sessionID]
	if !ok {
		return apperr.NotFound("session not found")
	}
	if s.Status != models.SessionWaiting {
		return apperr.State("session has already been started")
	}
	for i := range restaurants {
		clone := restaurants[i]
		f.restaurants[clone.ID] = &clone
	}
	s.Status = models.SessionActive
	s.UpdatedAt = time.Now()
	return nil
}

// RestaurantStore

type fakeRestaurantStore struct{ *fakeStore }

func (f fakeRestaurantStore) GetByID(ctx context.Context, id string) (*models.Restaurant, error) {
	r, ok := f.restaurants[id]
	if !ok {
		return nil, apperr.NotFound("restaurant not found")
	}
	clone := *r
	return &clone, nil
}

func (f fakeRestaurantStore) ListBySession(ctx context.Context, sessionID string) ([]models.Restaurant, error) {
	var out []models.Restaurant
	for _, r := range f.restaurants {
		if r.SessionID == sessionID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].Position < out[j].Position
	})
	return out, nil
}

func (f fakeRestaurantStore) CountBySession(ctx context.Context, sessionID string) (int, error) {
	count := 0
	for _, r := range f.restaurants {
		if r.SessionID == sessionID {
			count++
		}
	}
	return count, nil
}

// SwipeStore

type fakeSwipeStore struct{ *fakeStore }

func (f fakeSwipeStore) Get(ctx context.Context, sessionID, userID, restaurantID string) (*models.Swipe, error) {
	s, ok := f.swipes[swipeKey(sessionID, userID, restaurantID)]
	if !ok {
		return nil, nil
	}
	clone := *s
	return &clone, nil
}

func (f fakeSwipeStore) Insert(ctx context.Context, swipe *models.Swipe) error {
	key := swipeKey(swipe.SessionID, swipe.UserID, swipe.RestaurantID)
	if _, exists := f.swipes[key]; exists {
		return apperr.Conflict("restaurant already swiped")
	}
	swipe.CreatedAt = time.Now()
	clone := *swipe
	f.swipes[key] = &clone
	return nil
}

func (f fakeSwipeStore) ListLikerIDs(ctx context.Context, sessionID, restaurantID string) ([]string, error) {
	var ids []string
	for _, s := range f.swipes {
		if s.SessionID == sessionID && s.RestaurantID == restaurantID && s.Liked {
			ids = append(ids, s.UserID)
		}
	}
	return ids, nil
}

func (f fakeSwipeStore) CountsByUser(ctx context.Context, sessionID string) (map[string]int, error) {
	counts := make(map[string]int)
	for _, s := range f.swipes {
		if s.SessionID == sessionID {
			counts[s.UserID]++
		}
	}
	return counts, nil
}

// MatchStore

type fakeMatchStore struct{ *fakeStore }

func (f fakeMatchStore) Get(ctx context.Context, sessionID, restaurantID string) (*models.Match, error) {
	m, ok := f.matches[matchKey(sessionID, restaurantID)]
	if !ok {
		return nil, nil
	}
	clone := *m
	return &clone, nil
}

func (f fakeMatchStore) InsertIfAbsent(ctx context.Context, match *models.Match) (*models.Match, bool, error) {
	if f.matchInsertErr != nil {
		return nil, false, f.matchInsertErr
	}
	key := matchKey(match.SessionID, match.RestaurantID)
	if existing, ok := f.matches[key]; ok {
		clone := *existing
		return &clone, false, nil
	}
	match.MatchedAt = time.Now()
	clone := *match
	f.matches[key] = &clone
	return match, true, nil
}

func (f fakeMatchStore) CountBySession(ctx context.Context, sessionID string) (int, error) {
	count := 0
	for _, m := range f.matches {
		if m.SessionID == sessionID {
			count++
		}
	}
	return count, nil
}

func (f fakeMatchStore) ListBySession(ctx context.Context, sessionID string) ([]models.MatchWithRestaurant, error) {
	var out []models.MatchWithRestaurant
	for _, m := range f.matches {
		if m.SessionID != sessionID {
			continue
		}
		mw := models.MatchWithRestaurant{Match: *m}
		if r, ok := f.restaurants[m.RestaurantID]; ok {
			mw.Restaurant = *r
		}
		out = append(out, mw)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchedAt.After(out[j].MatchedAt) })
	return out, nil
}

func (f fakeMatchStore) ListRecentForUser(ctx context.Context, userID string, limit int) ([]models.RecentMatch, error) {
	var out []models.RecentMatch
	for _, m := range f.matches {
		if f.fakeStore.memberOf(m.SessionID, userID) {
			rm := models.RecentMatch{
				MatchID:   m.ID,
				SessionID: m.SessionID,
				MatchedAt: m.MatchedAt,
			}
			if s, ok := f.sessions[m.SessionID]; ok {
				rm.SessionName = s.Name
			}
			if r, ok := f.restaurants[m.RestaurantID]; ok {
				rm.RestaurantName = r.Name
				rm.RestaurantImageURL = r.ImageURL
				rating := r.Rating
				rm.RestaurantRating = &rating
			}
			out = append(out, rm)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchedAt.After(out[j].MatchedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) memberOf(sessionID, userID string) bool {
	for _, m := range f.members[sessionID] {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// fakePlaces is a canned places-search collaborator.
type fakePlaces struct {
	businesses []places.Business
	err        error
	calls      int
}

func (f *fakePlaces) Search(ctx context.Context, params places.SearchParams) ([]places.Business, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.businesses, nil
}

// seedProfile inserts a profile directly into the store.
func seedProfile(store *fakeStore, username string) *models.Profile {
	p := &models.Profile{
		ID:          uuid.New().String(),
		Email:       fmt.Sprintf("%s@example.com", username),
		Username:    username,
		DisplayName: username,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	store.profiles[p.ID] = p
	return p
}

// seedRestaurant inserts an active-session candidate directly.
func seedRestaurant(store *fakeStore, sessionID, name string, rating float64, position int) *models.Restaurant {
	r := &models.Restaurant{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		PlaceID:   "place-" + name,
		Name:      name,
		Rating:    rating,
		Position:  position,
	}
	store.restaurants[r.ID] = r
	return r
}
