package amqp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dstream/session-service/internal/domain/model"
	"github.com/stretchr/testify/assert"
)

func newBindHandler() *TriggerHandler {
	return &TriggerHandler{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestBindDecodesAndDispatches(t *testing.T) {
	h := newBindHandler()

	var got model.HeartbeatTrigger
	fn := bind(h, func(_ context.Context, trig model.HeartbeatTrigger) error {
		got = trig
		return nil
	})

	msg := message.NewMessage("m1", []byte(`{"connectionId":"c1","appPid":"app1"}`))
	assert.NoError(t, fn(msg))
	assert.Equal(t, "c1", got.ConnectionID)
	assert.Equal(t, "app1", got.AppPid)
}

func TestBindAcksUndecodablePayload(t *testing.T) {
	h := newBindHandler()

	called := false
	fn := bind(h, func(_ context.Context, _ model.HeartbeatTrigger) error {
		called = true
		return nil
	})

	// A payload that can never decode must be acked, not retried forever.
	msg := message.NewMessage("m1", []byte(`{not json`))
	assert.NoError(t, fn(msg))
	assert.False(t, called)
}

func TestBindNacksHandlerFailure(t *testing.T) {
	h := newBindHandler()

	wantErr := errors.New("redis unavailable")
	fn := bind(h, func(_ context.Context, _ model.HeartbeatTrigger) error {
		return wantErr
	})

	msg := message.NewMessage("m1", []byte(`{"connectionId":"c1"}`))
	assert.ErrorIs(t, fn(msg), wantErr)
}

func TestBindRecoversHandlerPanic(t *testing.T) {
	h := newBindHandler()

	fn := bind(h, func(_ context.Context, _ model.HeartbeatTrigger) error {
		panic("boom")
	})

	msg := message.NewMessage("m1", []byte(`{"connectionId":"c1"}`))
	assert.NotPanics(t, func() { _ = fn(msg) })
}
