package model

import "time"

// SessionData identifies one logical client connection. It travels inside
// every lifecycle trigger and is what the active-session guard serializes.
type SessionData struct {
	// UID is the app-scoped session identity (appPid + session id).
	UID          string    `json:"uid"`
	AppPid       string    `json:"appPid"`
	KeyID        string    `json:"keyId"`
	ClientID     string    `json:"clientId"`
	ConnectionID string    `json:"connectionId"`
	SocketID     string    `json:"socketId"`
	Timestamp    time.Time `json:"timestamp"`

	// User is present only when the connection authenticated as a platform
	// user; anonymous connections carry nil.
	User *AuthUser `json:"user,omitempty"`
}

// AuthUser is the authenticated identity attached to a connection. One user
// may own any number of concurrent connections (multi-device).
type AuthUser struct {
	ID         string    `json:"id"`
	ClientID   string    `json:"clientId"`
	Username   string    `json:"username"`
	IsOnline   bool      `json:"isOnline"`
	LastOnline time.Time `json:"lastOnline"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type ConnectionEventType string

const (
	ConnectionEventConnect    ConnectionEventType = "connect"
	ConnectionEventDisconnect ConnectionEventType = "disconnect"
)

// ConnectionChange maps the event type onto the +1/-1 delta stored with each
// connection event row.
func (t ConnectionEventType) ConnectionChange() int {
	if t == ConnectionEventConnect {
		return 1
	}
	return -1
}
