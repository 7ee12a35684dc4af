package amqp

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dstream/session-service/config"
	infrapubsub "github.com/dstream/session-service/infra/pubsub"
	"github.com/dstream/session-service/internal/domain/model"
)

// JobsPublisher publishes onto the session jobs exchange: the reap schedule
// and the poison queue both go through it.
type JobsPublisher struct {
	message.Publisher
}

func NewJobsPublisher(factory *infrapubsub.Factory) (*JobsPublisher, error) {
	pub, err := factory.BuildPublisher(infrapubsub.PublisherConfig{
		Exchange: SessionJobsExchange,
	})
	if err != nil {
		return nil, err
	}
	return &JobsPublisher{Publisher: pub}, nil
}

// ReapScheduler enqueues a reap trigger at a fixed interval. The trigger goes
// through the jobs exchange rather than calling the reconciler directly, so
// one of the competing worker replicas picks it up and a failed cycle is
// retried by the queue layer like any other trigger.
type ReapScheduler struct {
	jobs     *JobsPublisher
	interval time.Duration
	logger   *slog.Logger

	stop chan struct{}
	done chan struct{}
}

func NewReapScheduler(jobs *JobsPublisher, cfg *config.Config, logger *slog.Logger) *ReapScheduler {
	return &ReapScheduler{
		jobs:     jobs,
		interval: cfg.Session.ReapInterval,
		logger:   logger.With("component", "reap-scheduler"),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *ReapScheduler) Start() {
	go s.run()
}

func (s *ReapScheduler) Stop(ctx context.Context) error {
	close(s.stop)
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ReapScheduler) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if err := s.publishReap(); err != nil {
				s.logger.Error("REAP_SCHEDULE_FAILED", "err", err)
			}
		}
	}
}

func (s *ReapScheduler) publishReap() error {
	payload, err := json.Marshal(model.ReapTrigger{})
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	return s.jobs.Publish(TopicReap, msg)
}
