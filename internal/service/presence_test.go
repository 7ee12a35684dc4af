package service

import (
	"context"
	"testing"
	"time"

	"github.com/dstream/session-service/internal/domain/keys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinAndLeaveKeepHashAndIndexAligned(t *testing.T) {
	store, mr := newTestRedis(t)
	presence := NewPresenceCoordinator(store, testLogger())
	ctx := context.Background()

	require.NoError(t, presence.Join(ctx, "app1:lobby", "c1", "u9", time.Now()))
	require.NoError(t, presence.Join(ctx, "app1:lobby", "c2", "u10", time.Now()))

	members, err := store.HKeys(ctx, keys.PresenceMembers("app1:lobby"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c1", "c2"}, members)

	index, err := mr.List(keys.PresenceIndex("app1:lobby"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, index)

	require.NoError(t, presence.Leave(ctx, "app1:lobby", "c1"))

	members, err = store.HKeys(ctx, keys.PresenceMembers("app1:lobby"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c2"}, members)

	index, err = mr.List(keys.PresenceIndex("app1:lobby"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c2"}, index)
}

func TestLeaveAbsentIsNoOp(t *testing.T) {
	store, _ := newTestRedis(t)
	presence := NewPresenceCoordinator(store, testLogger())

	assert.NoError(t, presence.Leave(context.Background(), "app1:lobby", "ghost"))
}

func TestListRoomsTracksMembership(t *testing.T) {
	store, _ := newTestRedis(t)
	presence := NewPresenceCoordinator(store, testLogger())
	ctx := context.Background()

	require.NoError(t, presence.Join(ctx, "app1:lobby", "c1", "u9", time.Now()))
	require.NoError(t, presence.Join(ctx, "app1:news", "c1", "u9", time.Now()))

	rooms, err := presence.ListRooms(ctx, "c1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"app1:lobby", "app1:news"}, rooms)

	require.NoError(t, presence.Leave(ctx, "app1:news", "c1"))

	rooms, err = presence.ListRooms(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"app1:lobby"}, rooms)
}

func TestPurgeAllIsIdempotent(t *testing.T) {
	store, mr := newTestRedis(t)
	presence := NewPresenceCoordinator(store, testLogger())
	ctx := context.Background()

	require.NoError(t, presence.Join(ctx, "app1:lobby", "c1", "u9", time.Now()))
	require.NoError(t, presence.Join(ctx, "app1:news", "c1", "u9", time.Now()))

	require.NoError(t, presence.PurgeAll(ctx, "c1"))

	rooms, err := presence.ListRooms(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, rooms)
	assert.False(t, mr.Exists(keys.ConnectionPresenceSets("c1")))
	assert.False(t, mr.Exists(keys.PresenceMembers("app1:lobby")))

	// Second purge finds nothing and succeeds.
	assert.NoError(t, presence.PurgeAll(ctx, "c1"))
}
