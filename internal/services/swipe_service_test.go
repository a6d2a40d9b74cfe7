package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"bitebuddy-backend/internal/apperr"
	"bitebuddy-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSession(store *fakeStore, status string, userIDs ...string) *models.Session {
	s := &models.Session{
		ID:           uuid.New().String(),
		CreatedBy:    userIDs[0],
		Name:         "friday dinner",
		Status:       status,
		Latitude:     40.7128,
		Longitude:    -74.006,
		RadiusMeters: 5000,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	store.sessions[s.ID] = s
	for _, userID := range userIDs {
		store.members[s.ID] = append(store.members[s.ID], models.SessionMember{
			ID:        uuid.New().String(),
			SessionID: s.ID,
			UserID:    userID,
			JoinedAt:  time.Now(),
		})
	}
	return s
}

func newSwipeService(store *fakeStore) *SwipeService {
	return NewSwipeService(
		fakeSessionStore{store},
		fakeRestaurantStore{store},
		fakeSwipeStore{store},
		fakeMatchStore{store},
	)
}

func TestRecordSwipeUnanimousLikeCreatesMatch(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	session := seedSession(store, models.SessionActive, "u1", "u2")
	pizza := seedRestaurant(store, session.ID, "Pizza Place", 4.5, 0)
	sushi := seedRestaurant(store, session.ID, "Sushi Bar", 4.7, 1)
	svc := newSwipeService(store)

	result, err := svc.RecordSwipe(ctx, session.ID, "u1", pizza.ID, true)
	require.NoError(t, err)
	assert.False(t, result.IsMatch)
	assert.Nil(t, result.Match)

	result, err = svc.RecordSwipe(ctx, session.ID, "u2", pizza.ID, true)
	require.NoError(t, err)
	assert.True(t, result.IsMatch)
	require.NotNil(t, result.Match)
	assert.Equal(t, pizza.ID, result.Match.RestaurantID)
	require.NotNil(t, result.Restaurant)
	assert.Equal(t, pizza.Name, result.Restaurant.Name)

	// Consensus on one candidate says nothing about the others.
	assert.Len(t, store.matches, 1)
	_, exists := store.matches[matchKey(session.ID, sushi.ID)]
	assert.False(t, exists)
}

func TestRecordSwipeDislikeBlocksMatch(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	session := seedSession(store, models.SessionActive, "u1", "u2")
	pizza := seedRestaurant(store, session.ID, "Pizza Place", 4.5, 0)
	svc := newSwipeService(store)

	_, err := svc.RecordSwipe(ctx, session.ID, "u1", pizza.ID, false)
	require.NoError(t, err)

	result, err := svc.RecordSwipe(ctx, session.ID, "u2", pizza.ID, true)
	require.NoError(t, err)
	assert.False(t, result.IsMatch)
	assert.Empty(t, store.matches)

	// The dislike is permanent; flipping the verdict is rejected.
	_, err = svc.RecordSwipe(ctx, session.ID, "u1", pizza.ID, true)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))
	assert.Empty(t, store.matches)
}

func TestRecordSwipeRepeatSameVerdictIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	session := seedSession(store, models.SessionActive, "u1", "u2")
	pizza := seedRestaurant(store, session.ID, "Pizza Place", 4.5, 0)
	svc := newSwipeService(store)

	first, err := svc.RecordSwipe(ctx, session.ID, "u1", pizza.ID, true)
	require.NoError(t, err)

	repeat, err := svc.RecordSwipe(ctx, session.ID, "u1", pizza.ID, true)
	require.NoError(t, err)
	assert.Equal(t, first.SwipeID, repeat.SwipeID)
	assert.Len(t, store.swipes, 1)
}

func TestRecordSwipeRepeatLikeAfterMatchReportsMatch(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	session := seedSession(store, models.SessionActive, "u1", "u2")
	pizza := seedRestaurant(store, session.ID, "Pizza Place", 4.5, 0)
	svc := newSwipeService(store)

	_, err := svc.RecordSwipe(ctx, session.ID, "u1", pizza.ID, true)
	require.NoError(t, err)
	matched, err := svc.RecordSwipe(ctx, session.ID, "u2", pizza.ID, true)
	require.NoError(t, err)
	require.True(t, matched.IsMatch)

	repeat, err := svc.RecordSwipe(ctx, session.ID, "u2", pizza.ID, true)
	require.NoError(t, err)
	assert.True(t, repeat.IsMatch)
	require.NotNil(t, repeat.Match)
	assert.Equal(t, matched.Match.ID, repeat.Match.ID)
}

func TestRecordSwipeRejectsInactiveSession(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	session := seedSession(store, models.SessionWaiting, "u1")
	pizza := seedRestaurant(store, session.ID, "Pizza Place", 4.5, 0)
	svc := newSwipeService(store)

	_, err := svc.RecordSwipe(ctx, session.ID, "u1", pizza.ID, true)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeState, apperr.CodeOf(err))
}

func TestRecordSwipeRejectsNonMember(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	session := seedSession(store, models.SessionActive, "u1")
	pizza := seedRestaurant(store, session.ID, "Pizza Place", 4.5, 0)
	svc := newSwipeService(store)

	_, err := svc.RecordSwipe(ctx, session.ID, "outsider", pizza.ID, true)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeAuthorization, apperr.CodeOf(err))
	assert.Empty(t, store.swipes)
}

func TestRecordSwipeRejectsForeignRestaurant(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	session := seedSession(store, models.SessionActive, "u1")
	other := seedSession(store, models.SessionActive, "u2")
	foreign := seedRestaurant(store, other.ID, "Elsewhere", 4.0, 0)
	svc := newSwipeService(store)

	_, err := svc.RecordSwipe(ctx, session.ID, "u1", foreign.ID, true)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestRecordSwipeDeriverFailureLeavesMatchUnknown(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	session := seedSession(store, models.SessionActive, "u1", "u2")
	pizza := seedRestaurant(store, session.ID, "Pizza Place", 4.5, 0)
	svc := newSwipeService(store)

	_, err := svc.RecordSwipe(ctx, session.ID, "u1", pizza.ID, true)
	require.NoError(t, err)

	store.matchInsertErr = errors.New("connection reset")
	result, err := svc.RecordSwipe(ctx, session.ID, "u2", pizza.ID, true)
	require.NoError(t, err)
	assert.False(t, result.IsMatch)
	assert.Nil(t, result.Match)

	// The swipe itself was durably recorded despite the deriver failure.
	swipe, err := fakeSwipeStore{store}.Get(ctx, session.ID, "u2", pizza.ID)
	require.NoError(t, err)
	require.NotNil(t, swipe)
	assert.True(t, swipe.Liked)
}

func TestDeriveMatchIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	session := seedSession(store, models.SessionActive, "u1", "u2")
	pizza := seedRestaurant(store, session.ID, "Pizza Place", 4.5, 0)
	svc := newSwipeService(store)

	_, err := svc.RecordSwipe(ctx, session.ID, "u1", pizza.ID, true)
	require.NoError(t, err)
	_, err = svc.RecordSwipe(ctx, session.ID, "u2", pizza.ID, true)
	require.NoError(t, err)

	first, created, err := svc.DeriveMatch(ctx, session.ID, pizza.ID)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.False(t, created)

	second, created, err := svc.DeriveMatch(ctx, session.ID, pizza.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.matches, 1)
}

func TestMatchSurvivesLaterJoin(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	session := seedSession(store, models.SessionActive, "u1", "u2")
	pizza := seedRestaurant(store, session.ID, "Pizza Place", 4.5, 0)
	svc := newSwipeService(store)

	_, err := svc.RecordSwipe(ctx, session.ID, "u1", pizza.ID, true)
	require.NoError(t, err)
	matched, err := svc.RecordSwipe(ctx, session.ID, "u2", pizza.ID, true)
	require.NoError(t, err)
	require.True(t, matched.IsMatch)

	// A member joining after the fact does not retract the match.
	_, err = fakeSessionStore{store}.UpsertMembers(ctx, session.ID, []string{"u3"})
	require.NoError(t, err)

	existing, created, err := svc.DeriveMatch(ctx, session.ID, pizza.ID)
	require.NoError(t, err)
	assert.False(t, created)
	require.NotNil(t, existing)
	assert.Equal(t, matched.Match.ID, existing.ID)
}

func TestDeriveMatchWaitsForNewMember(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	session := seedSession(store, models.SessionActive, "u1", "u2")
	pizza := seedRestaurant(store, session.ID, "Pizza Place", 4.5, 0)
	sushi := seedRestaurant(store, session.ID, "Sushi Bar", 4.7, 1)
	svc := newSwipeService(store)

	_, err := svc.RecordSwipe(ctx, session.ID, "u1", pizza.ID, true)
	require.NoError(t, err)

	// u3 joins mid-session; pizza now needs their like too.
	_, err = fakeSessionStore{store}.UpsertMembers(ctx, session.ID, []string{"u3"})
	require.NoError(t, err)

	result, err := svc.RecordSwipe(ctx, session.ID, "u2", pizza.ID, true)
	require.NoError(t, err)
	assert.False(t, result.IsMatch)

	result, err = svc.RecordSwipe(ctx, session.ID, "u3", pizza.ID, true)
	require.NoError(t, err)
	assert.True(t, result.IsMatch)

	_, exists := store.matches[matchKey(session.ID, sushi.ID)]
	assert.False(t, exists)
}
