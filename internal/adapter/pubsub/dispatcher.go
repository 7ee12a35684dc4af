package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dstream/session-service/internal/domain/event"
	"github.com/dstream/session-service/internal/domain/model"
)

// publish attempts per event; the confirm-mode publisher reports broker
// rejection as an error, and after the second failure the whole trigger
// fails back to the queue layer.
const maxPublishAttempts = 2

// EventDispatcher is the high-level contract for outgoing lifecycle events.
// Callers stay agnostic of the exchange topology and shard assignment.
type EventDispatcher interface {
	Publish(ctx context.Context, ev event.Eventer) error
}

// envelope is the wire shape consumed by the delivery tier.
type envelope struct {
	NspRoomID string            `json:"nspRoomId"`
	Event     string            `json:"event"`
	Data      any               `json:"data"`
	Session   model.SessionData `json:"session"`
}

type eventDispatcher struct {
	publisher  message.Publisher
	shardCount int
}

func NewEventDispatcher(pub message.Publisher, shardCount int) EventDispatcher {
	return &eventDispatcher{
		publisher:  pub,
		shardCount: shardCount,
	}
}

func (d *eventDispatcher) Publish(ctx context.Context, ev event.Eventer) error {
	if ev == nil {
		return fmt.Errorf("event dispatcher: cannot publish nil event")
	}

	payload, err := json.Marshal(envelope{
		NspRoomID: ev.Target(),
		Event:     ev.Name(),
		Data:      ev.Payload(),
		Session:   ev.Session(),
	})
	if err != nil {
		return fmt.Errorf("event dispatcher: marshal failure: %w", err)
	}

	routingKey := ev.RoutingKey(d.shardCount)

	var lastErr error
	for attempt := 0; attempt < maxPublishAttempts; attempt++ {
		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.SetContext(ctx)

		if lastErr = d.publisher.Publish(routingKey, msg); lastErr == nil {
			return nil
		}
	}

	return fmt.Errorf("event dispatcher: failed to publish to %s: %w", routingKey, lastErr)
}
