package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dstream/session-service/internal/domain/event"
	"github.com/dstream/session-service/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingPublisher struct {
	failures int
	topics   []string
	payloads [][]byte
}

func (p *capturingPublisher) Publish(topic string, messages ...*message.Message) error {
	if p.failures > 0 {
		p.failures--
		return errors.New("channel closed")
	}
	for _, msg := range messages {
		p.topics = append(p.topics, topic)
		p.payloads = append(p.payloads, msg.Payload)
	}
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

func testSession() model.SessionData {
	return model.SessionData{
		UID: "app1:s1", AppPid: "app1", ClientID: "u9",
		ConnectionID: "c1", SocketID: "sock1",
	}
}

func TestPublishWrapsEventInEnvelope(t *testing.T) {
	pub := &capturingPublisher{}
	dispatcher := NewEventDispatcher(pub, 4)

	ev := event.NewPresenceLeave("app1:lobby", testSession(), time.Now())
	require.NoError(t, dispatcher.Publish(context.Background(), ev))

	require.Len(t, pub.topics, 1)
	assert.Equal(t, "ds.rooms.app1.0", pub.topics[0])

	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(pub.payloads[0], &env))
	assert.Contains(t, env, "nspRoomId")
	assert.Contains(t, env, "event")
	assert.Contains(t, env, "data")
	assert.Contains(t, env, "session")

	var name string
	require.NoError(t, json.Unmarshal(env["event"], &name))
	assert.Equal(t, "app1:lobby:$:presence:leave", name)

	var room string
	require.NoError(t, json.Unmarshal(env["nspRoomId"], &room))
	assert.Equal(t, "app1:lobby", room)
}

func TestPublishRetriesOnceThenSucceeds(t *testing.T) {
	pub := &capturingPublisher{failures: 1}
	dispatcher := NewEventDispatcher(pub, 4)

	ev := event.NewPresenceLeave("app1:lobby", testSession(), time.Now())
	require.NoError(t, dispatcher.Publish(context.Background(), ev))
	assert.Len(t, pub.topics, 1)
}

func TestPublishGivesUpAfterSecondFailure(t *testing.T) {
	pub := &capturingPublisher{failures: 2}
	dispatcher := NewEventDispatcher(pub, 4)

	ev := event.NewPresenceLeave("app1:lobby", testSession(), time.Now())
	err := dispatcher.Publish(context.Background(), ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ds.rooms.app1.0")
	assert.Empty(t, pub.topics)
}

func TestPublishNilEventFails(t *testing.T) {
	dispatcher := NewEventDispatcher(&capturingPublisher{}, 4)
	assert.Error(t, dispatcher.Publish(context.Background(), nil))
}
