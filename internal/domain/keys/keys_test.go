package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeySchema(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"active session guard", ActiveSession("c1"), "session:c1:active"},
		{"heartbeat index", Heartbeat(), "heartbeat:keepalive"},
		{"presence members", PresenceMembers("app1:lobby"), "presence:app1:lobby:members"},
		{"presence index", PresenceIndex("app1:lobby"), "presence:app1:lobby:index"},
		{"connection rooms", ConnectionRooms("c1"), "connection:c1:rooms"},
		{"connection presence sets", ConnectionPresenceSets("c1"), "connection:c1:presence:sets"},
		{"room subscriptions", ConnectionSubscriptions("c1", NamespaceSubscriptions, "app1:lobby"), "connection:c1:subscriptions:app1:lobby"},
		{"presence subscriptions", ConnectionSubscriptions("c1", NamespacePresence, "app1:lobby"), "connection:c1:presence:app1:lobby"},
		{"metrics subscriptions", ConnectionSubscriptions("c1", NamespaceMetrics, "app1:lobby"), "connection:c1:metrics:app1:lobby"},
		{"connection users index", ConnectionUsers("c1"), "connection:c1:users"},
		{"user subscriptions", ConnectionUserSubscriptions("c1", "u9"), "connection:c1:users:u9"},
		{"online users registry", AuthUsersOnline("app1"), "auth:app1:online"},
		{"client connections", ClientConnections("app1", "u9"), "client:app1:u9:connections"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestRoomNamespacesExcludeUsers(t *testing.T) {
	assert.NotContains(t, RoomNamespaces, NamespaceUsers)
	assert.Len(t, RoomNamespaces, 3)
}
