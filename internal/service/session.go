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

// SessionStore tracks connection liveness: the global heartbeat index and the
// per-connection active-session guard.
type SessionStore struct {
	redis  *redisstore.Store
	logger *slog.Logger
}

func NewSessionStore(redis *redisstore.Store, logger *slog.Logger) *SessionStore {
	return &SessionStore{
		redis:  redis,
		logger: logger.With("component", "session-store"),
	}
}

// RecordHeartbeat upserts the connection's last-seen score. An absent member
// is treated as an insert.
func (s *SessionStore) RecordHeartbeat(ctx context.Context, connectionID string, at time.Time) error {
	s.logger.DebugContext(ctx, "HEARTBEAT_RECORD", "connection_id", connectionID)

	return s.redis.ZAdd(ctx, keys.Heartbeat(), connectionID, float64(at.UnixMilli()))
}

// ClearHeartbeat removes the entry; clearing an absent entry is a no-op.
func (s *SessionStore) ClearHeartbeat(ctx context.Context, connectionID string) error {
	s.logger.DebugContext(ctx, "HEARTBEAT_CLEAR", "connection_id", connectionID)

	return s.redis.ZRem(ctx, keys.Heartbeat(), connectionID)
}

// SetActiveGuard refreshes the guard key with the serialized session payload.
// While the key lives, destructive triggers for this connection abort.
func (s *SessionStore) SetActiveGuard(ctx context.Context, data model.SessionData, ttl time.Duration) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session store: marshal guard payload: %w", err)
	}

	return s.redis.SetWithTTL(ctx, keys.ActiveSession(data.ConnectionID), string(payload), ttl)
}

// IsGuardActive reports whether a recent-enough heartbeat protects the
// connection from destructive cleanup.
func (s *SessionStore) IsGuardActive(ctx context.Context, connectionID string) (bool, error) {
	return s.redis.Exists(ctx, keys.ActiveSession(connectionID))
}

// ScanInactive returns up to limit connection ids whose last heartbeat is at
// or before cutoff, oldest first. The bound keeps one reap cycle's cleanup
// fan-out from overwhelming downstream stores; the remainder waits for the
// next cycle.
func (s *SessionStore) ScanInactive(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	return s.redis.ZRangeByScoreWithLimit(ctx, keys.Heartbeat(), float64(cutoff.UnixMilli()), 0, int64(limit))
}
