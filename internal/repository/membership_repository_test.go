package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/model"
)

func TestMembershipRepositoryAddRules(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	owner := seedUser(t, users, "owner@example.com")
	guest := seedUser(t, users, "guest@example.com")
	late := seedUser(t, users, "late@example.com")
	extra := seedUser(t, users, "extra@example.com")
	capacity := 3
	event := seedEvent(t, NewEventRepository(db), owner.ID, "Small", eventStart, &capacity)
	members := NewMembershipRepository(db)

	require.NoError(t, members.Add(ctx, &model.Membership{EventID: event.ID, UserID: guest.ID, JoinedAt: eventStart}))
	assert.ErrorIs(t, members.Add(ctx, &model.Membership{EventID: event.ID, UserID: guest.ID, JoinedAt: eventStart}), ErrDuplicate)
	require.NoError(t, members.Add(ctx, &model.Membership{EventID: event.ID, UserID: late.ID, JoinedAt: eventStart}))
	assert.ErrorIs(t, members.Add(ctx, &model.Membership{EventID: event.ID, UserID: extra.ID, JoinedAt: eventStart}), ErrCapacityReached)
	assert.ErrorIs(t, members.Add(ctx, &model.Membership{EventID: 999, UserID: extra.ID, JoinedAt: eventStart}), ErrNotFound)

	count, err := members.Count(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestMembershipRepositoryRequiresExistingUser(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	owner := seedUser(t, NewUserRepository(db), "owner@example.com")
	event := seedEvent(t, NewEventRepository(db), owner.ID, "Open", eventStart, nil)

	err := NewMembershipRepository(db).Add(ctx, &model.Membership{EventID: event.ID, UserID: 777, JoinedAt: eventStart})
	require.Error(t, err)
	assert.Zero(t, countRows(t, db, &model.Membership{}, "user_id = ?", 777))
}

func TestMembershipRepositoryQueries(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	events := NewEventRepository(db)
	members := NewMembershipRepository(db)
	alice := seedUser(t, users, "alice@example.com")
	bob := seedUser(t, users, "bob@example.com")
	first := seedEvent(t, events, alice.ID, "First", eventStart, nil)
	second := seedEvent(t, events, bob.ID, "Second", eventStart, nil)
	require.NoError(t, members.Add(ctx, &model.Membership{EventID: first.ID, UserID: bob.ID, JoinedAt: eventStart.Add(-1)}))

	exists, err := members.Exists(ctx, first.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	grouped, err := members.ListUserIDsByEvents(ctx, []uint{first.ID, second.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{alice.ID, bob.ID}, grouped[first.ID])
	assert.Equal(t, []uint{bob.ID}, grouped[second.ID])

	empty, err := members.ListUserIDsByEvents(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	removed, err := members.Remove(ctx, first.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = members.Remove(ctx, first.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}
