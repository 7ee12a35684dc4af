package event

import "github.com/dstream/session-service/internal/domain/model"

// PlatformReservedNamespace separates platform-generated subscription names
// from user-defined ones.
const PlatformReservedNamespace = "$"

// Eventer is the contract for lifecycle events flowing to the room exchange.
type Eventer interface {
	// Target is the namespace-scoped room or user id the envelope names.
	Target() string
	// Name is the fully qualified subscription the event is delivered to.
	Name() string
	Payload() any
	Session() model.SessionData
	// RoutingKey pins the event to one of shardCount delivery queues.
	RoutingKey(shardCount int) string
}
