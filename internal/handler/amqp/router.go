package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	infrapubsub "github.com/dstream/session-service/infra/pubsub"
	"github.com/dstream/session-service/internal/domain/model"
	"github.com/dstream/session-service/internal/service"
)

const (
	// ------------------- EXCHANGES (SOURCES) -------------------
	SessionJobsExchange = "session.jobs"

	// ------------------- TOPICS (ROUTING KEYS) -----------------
	TopicConnectionEvent = "session.socket.connection-event"
	TopicHeartbeat       = "session.heartbeat"
	TopicInactive        = "session.user.inactive"
	TopicDestroy         = "session.destroy"
	TopicReap            = "session.cron.task"

	// ------------------- QUEUES (CONSUMERS) --------------------
	SessionWorkerQueue = "session-worker.v1"
	SessionPoisonTopic = "session-worker.v1.poison"
)

type TriggerHandler struct {
	reconciler *service.Reconciler
	logger     *slog.Logger
	jobs       *JobsPublisher
}

func NewTriggerHandler(reconciler *service.Reconciler, logger *slog.Logger, jobs *JobsPublisher) *TriggerHandler {
	return &TriggerHandler{reconciler, logger, jobs}
}

func NewWatermillRouter(logger watermill.LoggerAdapter) (*message.Router, error) {
	return message.NewRouter(message.RouterConfig{}, logger)
}

// RegisterHandlers binds every lifecycle trigger topic to its reconciler
// entry point. Each handler gets its own shared queue so multiple worker
// replicas compete for the same jobs.
func (h *TriggerHandler) RegisterHandlers(router *message.Router, factory *infrapubsub.Factory) error {
	poison, err := middleware.PoisonQueue(h.jobs, SessionPoisonTopic)
	if err != nil {
		return fmt.Errorf("poison queue setup failed: %w", err)
	}

	configs := []struct {
		name    string
		topic   string
		handler message.NoPublishHandlerFunc
	}{
		{"ON_CONNECTION_EVENT", TopicConnectionEvent, bind(h, h.OnConnectionEvent)},
		{"ON_HEARTBEAT", TopicHeartbeat, bind(h, h.OnHeartbeat)},
		{"ON_INACTIVE", TopicInactive, bind(h, h.OnInactive)},
		{"ON_DESTROY", TopicDestroy, bind(h, h.OnDestroy)},
		{"ON_REAP", TopicReap, bind(h, h.OnReap)},
	}

	for _, c := range configs {
		handlerQueue := fmt.Sprintf("%s.%s", SessionWorkerQueue, c.name)

		sub, err := factory.BuildSubscriber(infrapubsub.SubscriberConfig{
			Exchange: SessionJobsExchange,
			Queue:    handlerQueue,
		})
		if err != nil {
			return err
		}

		router.AddConsumerHandler(c.name, c.topic, sub, c.handler).AddMiddleware(
			TraceIDMiddleware,
			LoggingMiddleware(h.logger),
			NewRetryMiddleware().Middleware,
			poison,
			middleware.Timeout(time.Second*30),
		)
	}

	h.logger.Info("AMQP_PIPELINE_READY", "queue", SessionWorkerQueue)
	return nil
}

func (h *TriggerHandler) OnConnectionEvent(ctx context.Context, trig model.ConnectionEventTrigger) error {
	return h.reconciler.HandleConnectionEvent(ctx, trig)
}

func (h *TriggerHandler) OnHeartbeat(ctx context.Context, trig model.HeartbeatTrigger) error {
	return h.reconciler.HandleHeartbeat(ctx, trig)
}

func (h *TriggerHandler) OnInactive(ctx context.Context, trig model.InactiveTrigger) error {
	return h.reconciler.HandleInactive(ctx, trig)
}

func (h *TriggerHandler) OnDestroy(ctx context.Context, trig model.DestroyTrigger) error {
	return h.reconciler.HandleDestroy(ctx, trig)
}

func (h *TriggerHandler) OnReap(ctx context.Context, _ model.ReapTrigger) error {
	return h.reconciler.HandleReap(ctx)
}
