package model

import "time"

// Lifecycle triggers form a tagged union: each kind has its own payload
// struct with the fields that kind actually requires. The queue layer
// delivers them as distinct topics, so no runtime field-sniffing is needed.

// ConnectionEventTrigger records a socket connect or disconnect against the
// durable store and drives the auth-user online transition.
type ConnectionEventTrigger struct {
	SessionData

	EventType      ConnectionEventType `json:"connectionEventType"`
	EventTimestamp time.Time           `json:"connectionEventTimestamp"`
}

// HeartbeatTrigger refreshes the active-session guard and heartbeat score.
type HeartbeatTrigger struct {
	SessionData
}

// InactiveTrigger is the soft delete fired by the transport's short idle
// timeout. Presence only; registrations survive.
type InactiveTrigger struct {
	SessionData
}

// DestroyTrigger is the hard delete fired on disconnect.
type DestroyTrigger struct {
	SessionData
}

// ReapTrigger is cron-originated and carries no session payload; candidate
// connections are discovered by scanning heartbeat ages.
type ReapTrigger struct{}
