package event

import (
	"time"

	"github.com/dstream/session-service/internal/domain/keys"
	"github.com/dstream/session-service/internal/domain/model"
)

type UserKind string

const (
	UserConnectionStatus UserKind = "user:connection:status"
	UserConnect          UserKind = "user:connect"
	UserDisconnect       UserKind = "user:disconnect"
)

var _ Eventer = (*UserEvent)(nil)

// UserEvent announces an auth-user transition to subscribers of that user's
// namespace. The carried user snapshot is stamped with the online state the
// transition produced, not whatever the trigger payload held.
type UserEvent struct {
	Kind UserKind
	User model.AuthUser

	session model.SessionData
}

func NewUserEvent(kind UserKind, user model.AuthUser, isOnline bool, at time.Time, session model.SessionData) *UserEvent {
	user.IsOnline = isOnline
	user.LastOnline = at.UTC()

	return &UserEvent{Kind: kind, User: user, session: session}
}

// NewUserConnectPair emits the connect event followed by the
// connection-status event, the order subscribers observe transitions in.
func NewUserConnectPair(user model.AuthUser, at time.Time, session model.SessionData) []Eventer {
	return []Eventer{
		NewUserEvent(UserConnect, user, true, at, session),
		NewUserEvent(UserConnectionStatus, user, true, at, session),
	}
}

func NewUserDisconnectPair(user model.AuthUser, at time.Time, session model.SessionData) []Eventer {
	return []Eventer{
		NewUserEvent(UserDisconnect, user, false, at, session),
		NewUserEvent(UserConnectionStatus, user, false, at, session),
	}
}

// Target is the user namespace id, "users:{clientId}".
func (e *UserEvent) Target() string {
	return keys.Format(string(keys.NamespaceUsers), e.User.ClientID)
}

// Name follows "users:{clientId}:$:{kind}".
func (e *UserEvent) Name() string {
	return keys.Format(e.Target(), PlatformReservedNamespace, string(e.Kind))
}

func (e *UserEvent) Payload() any { return e.User }

func (e *UserEvent) Session() model.SessionData { return e.session }

func (e *UserEvent) RoutingKey(shardCount int) string {
	return ShardedRoutingKey(e.session.AppPid, e.Target(), shardCount)
}
