package event

import (
	"testing"
	"time"

	"github.com/dstream/session-service/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession() model.SessionData {
	return model.SessionData{
		UID:          "app1:s1",
		AppPid:       "app1",
		ClientID:     "u9",
		ConnectionID: "c1",
		SocketID:     "sock1",
		User:         &model.AuthUser{ID: "au1", ClientID: "u9", Username: "ada"},
	}
}

func TestPresenceLeaveEvent(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ev := NewPresenceLeave("app1:lobby", testSession(), at)

	assert.Equal(t, "app1:lobby", ev.Target())
	assert.Equal(t, "app1:lobby:$:presence:leave", ev.Name())

	payload, ok := ev.Payload().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "c1", payload["connectionId"])
	assert.Equal(t, "u9", payload["clientId"])
	assert.Equal(t, "leave", payload["event"])
}

func TestUserEventNames(t *testing.T) {
	at := time.Now()
	ev := NewUserEvent(UserConnect, *testSession().User, true, at, testSession())

	assert.Equal(t, "users:u9", ev.Target())
	assert.Equal(t, "users:u9:$:user:connect", ev.Name())

	user, ok := ev.Payload().(model.AuthUser)
	require.True(t, ok)
	assert.True(t, user.IsOnline)
	assert.Equal(t, at.UTC(), user.LastOnline)
}

func TestUserPairsOrderAndOnlineState(t *testing.T) {
	at := time.Now()

	connectPair := NewUserConnectPair(*testSession().User, at, testSession())
	require.Len(t, connectPair, 2)
	assert.Equal(t, "users:u9:$:user:connect", connectPair[0].Name())
	assert.Equal(t, "users:u9:$:user:connection:status", connectPair[1].Name())

	disconnectPair := NewUserDisconnectPair(*testSession().User, at, testSession())
	require.Len(t, disconnectPair, 2)
	assert.Equal(t, "users:u9:$:user:disconnect", disconnectPair[0].Name())
	assert.Equal(t, "users:u9:$:user:connection:status", disconnectPair[1].Name())

	for _, ev := range disconnectPair {
		user := ev.Payload().(model.AuthUser)
		assert.False(t, user.IsOnline)
	}
}
