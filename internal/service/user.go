package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dstream/session-service/internal/adapter/redisstore"
	"github.com/dstream/session-service/internal/domain/keys"
	"github.com/dstream/session-service/internal/domain/model"
)

// UserMultiplexer tracks which connections belong to one authenticated user
// and maintains the per-application online-user registry. The one
// order-sensitive decision in the whole worker lives here: detecting the last
// connection closing.
type UserMultiplexer struct {
	redis  *redisstore.Store
	logger *slog.Logger
}

func NewUserMultiplexer(redis *redisstore.Store, logger *slog.Logger) *UserMultiplexer {
	return &UserMultiplexer{
		redis:  redis,
		logger: logger.With("component", "user-mux"),
	}
}

// RegisterConnection records the connection under the user's connection set.
func (m *UserMultiplexer) RegisterConnection(ctx context.Context, appPid, clientID, connectionID string, at time.Time) error {
	m.logger.DebugContext(ctx, "USER_CONNECTION_REGISTER", "client_id", clientID, "connection_id", connectionID)

	key := keys.ClientConnections(appPid, clientID)
	return m.redis.HSet(ctx, key, connectionID, at.UTC().Format(time.RFC3339Nano))
}

// DeregisterConnection removes the connection and returns how many of the
// user's connections remain, in a single atomic round trip. Two concurrent
// deregistrations of a user's last two connections serialize here: exactly
// one caller observes zero.
func (m *UserMultiplexer) DeregisterConnection(ctx context.Context, appPid, clientID, connectionID string) (int64, error) {
	m.logger.DebugContext(ctx, "USER_CONNECTION_DEREGISTER", "client_id", clientID, "connection_id", connectionID)

	key := keys.ClientConnections(appPid, clientID)
	return m.redis.HDelAndCount(ctx, key, connectionID)
}

// MarkOnline upserts the user into the application's online registry.
func (m *UserMultiplexer) MarkOnline(ctx context.Context, appPid string, user model.AuthUser) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("user mux: marshal user: %w", err)
	}

	return m.redis.HSet(ctx, keys.AuthUsersOnline(appPid), user.ClientID, string(payload))
}

// MarkOffline drops the user from the online registry; absent is a no-op.
func (m *UserMultiplexer) MarkOffline(ctx context.Context, appPid, clientID string) error {
	return m.redis.HDel(ctx, keys.AuthUsersOnline(appPid), clientID)
}

// GetOnlineUser reads the user back from the online registry.
func (m *UserMultiplexer) GetOnlineUser(ctx context.Context, appPid, clientID string) (*model.AuthUser, bool, error) {
	raw, ok, err := m.redis.HGet(ctx, keys.AuthUsersOnline(appPid), clientID)
	if err != nil || !ok {
		return nil, false, err
	}

	var user model.AuthUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, false, fmt.Errorf("user mux: unmarshal user %s: %w", clientID, err)
	}

	return &user, true, nil
}
