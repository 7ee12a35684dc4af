package event

import (
	"time"

	"github.com/dstream/session-service/internal/domain/keys"
	"github.com/dstream/session-service/internal/domain/model"
)

type PresenceKind string

const (
	PresenceJoin  PresenceKind = "join"
	PresenceLeave PresenceKind = "leave"
)

var _ Eventer = (*PresenceEvent)(nil)

// PresenceEvent announces a membership change to a room's presence
// subscribers.
type PresenceEvent struct {
	NspRoomID string
	Kind      PresenceKind
	Timestamp time.Time

	session model.SessionData
}

func NewPresenceLeave(nspRoomID string, session model.SessionData, at time.Time) *PresenceEvent {
	return &PresenceEvent{
		NspRoomID: nspRoomID,
		Kind:      PresenceLeave,
		Timestamp: at,
		session:   session,
	}
}

func (e *PresenceEvent) Target() string { return e.NspRoomID }

// Name follows "{nspRoomId}:$:presence:{kind}".
func (e *PresenceEvent) Name() string {
	return keys.Format(e.NspRoomID, PlatformReservedNamespace, string(keys.NamespacePresence), string(e.Kind))
}

func (e *PresenceEvent) Payload() any {
	return map[string]any{
		"connectionId": e.session.ConnectionID,
		"clientId":     e.session.ClientID,
		"event":        string(e.Kind),
		"timestamp":    e.Timestamp.UTC().Format(time.RFC3339Nano),
		"user":         e.session.User,
	}
}

func (e *PresenceEvent) Session() model.SessionData { return e.session }

func (e *PresenceEvent) RoutingKey(shardCount int) string {
	return ShardedRoutingKey(e.session.AppPid, e.NspRoomID, shardCount)
}
