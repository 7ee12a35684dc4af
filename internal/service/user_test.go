package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dstream/session-service/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndDeregisterConnection(t *testing.T) {
	store, _ := newTestRedis(t)
	users := NewUserMultiplexer(store, testLogger())
	ctx := context.Background()

	require.NoError(t, users.RegisterConnection(ctx, "app1", "u9", "c1", time.Now()))
	require.NoError(t, users.RegisterConnection(ctx, "app1", "u9", "c2", time.Now()))

	remaining, err := users.DeregisterConnection(ctx, "app1", "u9", "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), remaining)

	remaining, err = users.DeregisterConnection(ctx, "app1", "u9", "c2")
	require.NoError(t, err)
	assert.Equal(t, int64(0), remaining)
}

// Two workers racing to deregister a user's last two connections must
// serialize to exactly one zero observation: the offline transition fires
// once, never twice and never zero times.
func TestConcurrentDeregisterLastTwoConnections(t *testing.T) {
	store, _ := newTestRedis(t)
	users := NewUserMultiplexer(store, testLogger())
	ctx := context.Background()

	for round := 0; round < 20; round++ {
		require.NoError(t, users.RegisterConnection(ctx, "app1", "u9", "c1", time.Now()))
		require.NoError(t, users.RegisterConnection(ctx, "app1", "u9", "c2", time.Now()))

		results := make([]int64, 2)
		var wg sync.WaitGroup
		for i, connID := range []string{"c1", "c2"} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				remaining, err := users.DeregisterConnection(ctx, "app1", "u9", connID)
				assert.NoError(t, err)
				results[i] = remaining
			}()
		}
		wg.Wait()

		zeros := 0
		for _, r := range results {
			if r == 0 {
				zeros++
			}
		}
		assert.Equal(t, 1, zeros, "round %d: results %v", round, results)
	}
}

func TestOnlineRegistryRoundTrip(t *testing.T) {
	store, _ := newTestRedis(t)
	users := NewUserMultiplexer(store, testLogger())
	ctx := context.Background()

	user := model.AuthUser{ID: "au1", ClientID: "u9", Username: "ada", IsOnline: true}

	require.NoError(t, users.MarkOnline(ctx, "app1", user))

	got, ok, err := users.GetOnlineUser(ctx, "app1", "u9")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ada", got.Username)

	require.NoError(t, users.MarkOffline(ctx, "app1", "u9"))

	_, ok, err = users.GetOnlineUser(ctx, "app1", "u9")
	require.NoError(t, err)
	assert.False(t, ok)

	// Offline for an absent user is a no-op.
	assert.NoError(t, users.MarkOffline(ctx, "app1", "u9"))
}
