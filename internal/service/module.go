package service

import (
	"github.com/dstream/session-service/internal/adapter/pgstore"
	"go.uber.org/fx"
)

var Module = fx.Module(
	"service",

	fx.Provide(
		NewSessionStore,
		NewPresenceCoordinator,
		NewSubscriptionRegistry,
		NewUserMultiplexer,

		func(s *pgstore.Store) DurableStore { return s },

		NewReconciler,
	),
)
