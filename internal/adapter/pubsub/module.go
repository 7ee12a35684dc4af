package pubsub

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dstream/session-service/config"
	infrapubsub "github.com/dstream/session-service/infra/pubsub"
	"go.uber.org/fx"
)

// RoomsExchange carries every lifecycle event toward the delivery tier.
const RoomsExchange = "ds.rooms"

var Module = fx.Module(
	"adapter_pubsub",

	fx.Provide(
		NewRoomsPublisher,
		func(pub message.Publisher, cfg *config.Config) EventDispatcher {
			return NewEventDispatcher(pub, cfg.Session.ShardCount)
		},
	),

	fx.Invoke(func(lc fx.Lifecycle, pub message.Publisher) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return pub.Close()
			},
		})
	}),
)

func NewRoomsPublisher(factory *infrapubsub.Factory) (message.Publisher, error) {
	return factory.BuildPublisher(infrapubsub.PublisherConfig{
		Exchange:        RoomsExchange,
		ConfirmDelivery: true,
	})
}
