package amqp

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	infrapubsub "github.com/dstream/session-service/infra/pubsub"
	"go.uber.org/fx"
)

var Module = fx.Module("amqp-handler",
	fx.Provide(
		NewJobsPublisher,
		NewTriggerHandler,
		NewWatermillRouter,
		NewReapScheduler,
	),

	fx.Invoke(RegisterHandlers),
	fx.Invoke(RunRouter),
	fx.Invoke(RunReapScheduler),
)

func RegisterHandlers(h *TriggerHandler, router *message.Router, factory *infrapubsub.Factory) error {
	return h.RegisterHandlers(router, factory)
}

func RunRouter(lc fx.Lifecycle, router *message.Router) {
	runCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				_ = router.Run(runCtx)
			}()

			select {
			case <-router.Running():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			return router.Close()
		},
	})
}

func RunReapScheduler(lc fx.Lifecycle, scheduler *ReapScheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			scheduler.Start()
			return nil
		},
		OnStop: scheduler.Stop,
	})
}
