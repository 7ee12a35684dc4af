// Package keys holds the ephemeral-store key schema. Every key the worker
// touches is produced here so the layout is auditable in one place.
package keys

import "strings"

const (
	PrefixSession    = "session"
	PrefixConnection = "connection"
	PrefixPresence   = "presence"
	PrefixHeartbeat  = "heartbeat"
	PrefixAuth       = "auth"
	PrefixClient     = "client"
)

const (
	SuffixActive       = "active"
	SuffixRooms        = "rooms"
	SuffixIndex        = "index"
	SuffixMembers      = "members"
	SuffixKeepAlive    = "keepalive"
	SuffixOnline       = "online"
	SuffixConnections  = "connections"
	SuffixPresenceSets = "presence:sets"
)

// Namespace partitions a connection's subscription registries.
type Namespace string

const (
	NamespaceSubscriptions Namespace = "subscriptions"
	NamespacePresence      Namespace = "presence"
	NamespaceMetrics       Namespace = "metrics"
	NamespaceUsers         Namespace = "users"
)

// RoomNamespaces are the room-scoped registries purged on destroy.
var RoomNamespaces = []Namespace{NamespaceSubscriptions, NamespacePresence, NamespaceMetrics}

func Format(parts ...string) string {
	return strings.Join(parts, ":")
}

// ActiveSession is the per-connection guard key; its existence means a
// heartbeat arrived recently enough that destructive cleanup must be skipped.
func ActiveSession(connectionID string) string {
	return Format(PrefixSession, connectionID, SuffixActive)
}

// Heartbeat is the global sorted set of connectionId -> last-seen unix ms.
func Heartbeat() string {
	return Format(PrefixHeartbeat, SuffixKeepAlive)
}

func PresenceMembers(nspRoomID string) string {
	return Format(PrefixPresence, nspRoomID, SuffixMembers)
}

func PresenceIndex(nspRoomID string) string {
	return Format(PrefixPresence, nspRoomID, SuffixIndex)
}

// ConnectionRooms indexes every room a connection holds subscriptions in.
func ConnectionRooms(connectionID string) string {
	return Format(PrefixConnection, connectionID, SuffixRooms)
}

// ConnectionPresenceSets indexes every room a connection is present in.
func ConnectionPresenceSets(connectionID string) string {
	return Format(PrefixConnection, connectionID, SuffixPresenceSets)
}

func ConnectionSubscriptions(connectionID string, ns Namespace, nspRoomID string) string {
	return Format(PrefixConnection, connectionID, string(ns), nspRoomID)
}

// ConnectionUsers indexes the clientIds a connection subscribes to.
func ConnectionUsers(connectionID string) string {
	return Format(PrefixConnection, connectionID, string(NamespaceUsers))
}

func ConnectionUserSubscriptions(connectionID, clientID string) string {
	return Format(PrefixConnection, connectionID, string(NamespaceUsers), clientID)
}

// AuthUsersOnline is the per-application online-user registry,
// clientId -> serialized user.
func AuthUsersOnline(appPid string) string {
	return Format(PrefixAuth, appPid, SuffixOnline)
}

// ClientConnections tracks the live connections owned by one authenticated
// client, connectionId -> registration timestamp.
func ClientConnections(appPid, clientID string) string {
	return Format(PrefixClient, appPid, clientID, SuffixConnections)
}
