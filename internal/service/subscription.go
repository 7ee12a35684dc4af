package service

import (
	"context"
	"log/slog"

	"github.com/dstream/session-service/internal/adapter/redisstore"
	"github.com/dstream/session-service/internal/domain/keys"
	"golang.org/x/sync/errgroup"
)

// SubscriptionRegistry tracks the subscriptions a connection holds per
// (namespace, room) and per watched user. Purges enumerate fields and delete
// them one by one: a key-level delete could race a concurrent key-level set
// and silently drop a registration written mid-purge, while field-level
// deletes only remove what was observed.
type SubscriptionRegistry struct {
	redis  *redisstore.Store
	logger *slog.Logger
}

func NewSubscriptionRegistry(redis *redisstore.Store, logger *slog.Logger) *SubscriptionRegistry {
	return &SubscriptionRegistry{
		redis:  redis,
		logger: logger.With("component", "subscriptions"),
	}
}

// ListRooms reads the connection's room index.
func (r *SubscriptionRegistry) ListRooms(ctx context.Context, connectionID string) ([]string, error) {
	return r.redis.HKeys(ctx, keys.ConnectionRooms(connectionID))
}

// ListUsers reads the connection's watched-user index.
func (r *SubscriptionRegistry) ListUsers(ctx context.Context, connectionID string) ([]string, error) {
	return r.redis.HKeys(ctx, keys.ConnectionUsers(connectionID))
}

func (r *SubscriptionRegistry) ListSubscriptions(ctx context.Context, connectionID string, ns keys.Namespace, nspRoomID string) ([]string, error) {
	return r.redis.HKeys(ctx, keys.ConnectionSubscriptions(connectionID, ns, nspRoomID))
}

func (r *SubscriptionRegistry) DeleteSubscription(ctx context.Context, connectionID string, ns keys.Namespace, nspRoomID, name string) error {
	return r.redis.HDel(ctx, keys.ConnectionSubscriptions(connectionID, ns, nspRoomID), name)
}

// PurgeNamespace deletes every observed subscription in one namespace-scoped
// registry, field by field.
func (r *SubscriptionRegistry) PurgeNamespace(ctx context.Context, connectionID string, ns keys.Namespace, nspRoomID string) error {
	r.logger.DebugContext(ctx, "SUBSCRIPTIONS_PURGE", "connection_id", connectionID, "namespace", string(ns), "room", nspRoomID)

	names, err := r.ListSubscriptions(ctx, connectionID, ns, nspRoomID)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, name := range names {
		g.Go(func() error {
			return r.DeleteSubscription(ctx, connectionID, ns, nspRoomID, name)
		})
	}
	return g.Wait()
}

// PurgeRoomSubscriptions drops every namespace-scoped registry for every room
// in the connection's room index, then the index itself.
func (r *SubscriptionRegistry) PurgeRoomSubscriptions(ctx context.Context, connectionID string) error {
	rooms, err := r.ListRooms(ctx, connectionID)
	if err != nil {
		return err
	}
	if len(rooms) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, nspRoomID := range rooms {
		for _, ns := range keys.RoomNamespaces {
			g.Go(func() error {
				return r.PurgeNamespace(gctx, connectionID, ns, nspRoomID)
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return r.redis.Del(ctx, keys.ConnectionRooms(connectionID))
}

// PurgeUserSubscriptions deletes the registry of one watched user.
func (r *SubscriptionRegistry) PurgeUserSubscriptions(ctx context.Context, connectionID, clientID string) error {
	key := keys.ConnectionUserSubscriptions(connectionID, clientID)

	names, err := r.redis.HKeys(ctx, key)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, name := range names {
		g.Go(func() error {
			return r.redis.HDel(ctx, key, name)
		})
	}
	return g.Wait()
}

// PurgeCachedUsers deletes the watched-user index entries.
func (r *SubscriptionRegistry) PurgeCachedUsers(ctx context.Context, connectionID string) error {
	key := keys.ConnectionUsers(connectionID)

	fields, err := r.redis.HKeys(ctx, key)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, field := range fields {
		g.Go(func() error {
			return r.redis.HDel(ctx, key, field)
		})
	}
	return g.Wait()
}

// PurgeAllUserSubscriptions walks the watched-user index and drops each
// user's registry together with the index entries.
func (r *SubscriptionRegistry) PurgeAllUserSubscriptions(ctx context.Context, connectionID string) error {
	users, err := r.ListUsers(ctx, connectionID)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, clientID := range users {
		g.Go(func() error {
			return r.PurgeUserSubscriptions(gctx, connectionID, clientID)
		})
	}
	g.Go(func() error {
		return r.PurgeCachedUsers(gctx, connectionID)
	})
	return g.Wait()
}
