package pubsub

import (
	"github.com/ThreeDotsLabs/watermill"
	wamqp "github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dstream/session-service/config"
	"go.uber.org/fx"
)

var Module = fx.Module(
	"infra_pubsub",

	fx.Provide(NewFactory),
)

// Factory builds AMQP publishers and subscribers bound to topic exchanges.
// Topics passed to Publish/Subscribe become routing keys; queue names are
// fixed per consumer so competing workers share one queue.
type Factory struct {
	url    string
	logger watermill.LoggerAdapter
}

func NewFactory(cfg *config.Config, logger watermill.LoggerAdapter) *Factory {
	return &Factory{url: cfg.Amqp.URL, logger: logger}
}

type PublisherConfig struct {
	Exchange string

	// ConfirmDelivery requires broker publisher-confirms before Publish
	// returns.
	ConfirmDelivery bool
}

func (f *Factory) BuildPublisher(cfg PublisherConfig) (message.Publisher, error) {
	amqpConfig := wamqp.NewDurablePubSubConfig(f.url, nil)
	applyTopicExchange(&amqpConfig, cfg.Exchange)
	amqpConfig.Publish.ConfirmDelivery = cfg.ConfirmDelivery

	return wamqp.NewPublisher(amqpConfig, f.logger)
}

type SubscriberConfig struct {
	Exchange string
	Queue    string
}

func (f *Factory) BuildSubscriber(cfg SubscriberConfig) (message.Subscriber, error) {
	amqpConfig := wamqp.NewDurablePubSubConfig(f.url, func(topic string) string {
		return cfg.Queue
	})
	applyTopicExchange(&amqpConfig, cfg.Exchange)

	return wamqp.NewSubscriber(amqpConfig, f.logger)
}

func applyTopicExchange(amqpConfig *wamqp.Config, exchange string) {
	amqpConfig.Exchange.GenerateName = func(topic string) string { return exchange }
	amqpConfig.Exchange.Type = "topic"
	amqpConfig.Exchange.Durable = true

	amqpConfig.QueueBind.GenerateRoutingKey = func(topic string) string { return topic }
	amqpConfig.Publish.GenerateRoutingKey = func(topic string) string { return topic }
}
