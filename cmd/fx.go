package cmd

import (
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dstream/session-service/config"
	infrapostgres "github.com/dstream/session-service/infra/postgres"
	infrapubsub "github.com/dstream/session-service/infra/pubsub"
	infraredis "github.com/dstream/session-service/infra/redis"
	"github.com/dstream/session-service/internal/adapter/pgstore"
	"github.com/dstream/session-service/internal/adapter/pubsub"
	"github.com/dstream/session-service/internal/adapter/redisstore"
	amqphandler "github.com/dstream/session-service/internal/handler/amqp"
	"github.com/dstream/session-service/internal/service"
	"go.uber.org/fx"
)

func NewApp(cfg *config.Config) *fx.App {
	return fx.New(
		fx.Provide(
			func() *config.Config { return cfg },
			ProvideLogger,
			ProvideWatermillLogger,
		),
		infraredis.Module,
		infrapostgres.Module,
		infrapubsub.Module,
		redisstore.Module,
		pgstore.Module,
		pubsub.Module,
		service.Module,
		amqphandler.Module,
	)
}

func ProvideLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})).With("service", ServiceName)

	slog.SetDefault(logger)

	return logger
}

func ProvideWatermillLogger(logger *slog.Logger) watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logger.With("component", "watermill"))
}
