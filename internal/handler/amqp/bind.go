package amqp

import (
	"context"
	"encoding/json"
	"runtime/debug"

	"github.com/ThreeDotsLabs/watermill/message"
)

// TriggerFunc is the functional signature lifecycle trigger handlers share.
type TriggerFunc[T any] func(ctx context.Context, trigger T) error

// bind connects watermill to a typed trigger handler: panic recovery, payload
// decoding, and the ack/nack policy live here so handlers stay pure.
func bind[T any](h *TriggerHandler, fn TriggerFunc[T]) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		// Keep the consumer alive through handler panics.
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("PANIC_RECOVERED",
					"err", r,
					"stack", string(debug.Stack()),
					"msg_id", msg.UUID)
			}
		}()

		trigger := new(T)
		if err := json.Unmarshal(msg.Payload, trigger); err != nil {
			h.logger.Error("DECODE_FAILED", "err", err, "msg_id", msg.UUID)
			return nil // ACK: an undecodable trigger can never succeed.
		}

		// NACK on failure: the queue layer owns retry/backoff/poison policy;
		// retry safety is guaranteed by the idempotency of every destructive
		// primitive, not by bookkeeping here.
		return fn(msg.Context(), *trigger)
	}
}
