package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dstream/session-service/internal/adapter/redisstore"
	"github.com/dstream/session-service/internal/domain/keys"
	"golang.org/x/sync/errgroup"
)

// PresenceCoordinator manages room presence membership: a members hash plus a
// FIFO index per room, and a per-connection index of joined rooms. The hash
// and index for one room always move inside one atomic batch.
type PresenceCoordinator struct {
	redis  *redisstore.Store
	logger *slog.Logger
}

func NewPresenceCoordinator(redis *redisstore.Store, logger *slog.Logger) *PresenceCoordinator {
	return &PresenceCoordinator{
		redis:  redis,
		logger: logger.With("component", "presence"),
	}
}

type presenceMember struct {
	ConnectionID string    `json:"connectionId"`
	ClientID     string    `json:"clientId"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// Join adds the connection to the room's members hash and appends it to the
// ordered eviction index, then records the room in the connection's
// presence-set index.
func (p *PresenceCoordinator) Join(ctx context.Context, nspRoomID, connectionID, clientID string, joinedAt time.Time) error {
	p.logger.DebugContext(ctx, "PRESENCE_JOIN", "connection_id", connectionID, "room", nspRoomID)

	member, err := json.Marshal(presenceMember{
		ConnectionID: connectionID,
		ClientID:     clientID,
		JoinedAt:     joinedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("presence: marshal member: %w", err)
	}

	err = p.redis.HSetListPush(ctx,
		keys.PresenceMembers(nspRoomID), connectionID, string(member),
		keys.PresenceIndex(nspRoomID), connectionID,
	)
	if err != nil {
		return err
	}

	return p.redis.HSet(ctx, keys.ConnectionPresenceSets(connectionID), nspRoomID, joinedAt.UTC().Format(time.RFC3339Nano))
}

// Leave removes the connection from the room's members hash and index, and
// drops the room from the connection's presence-set index. Every sub-op is a
// no-op when already absent.
func (p *PresenceCoordinator) Leave(ctx context.Context, nspRoomID, connectionID string) error {
	p.logger.DebugContext(ctx, "PRESENCE_LEAVE", "connection_id", connectionID, "room", nspRoomID)

	err := p.redis.HDelListRem(ctx,
		keys.PresenceMembers(nspRoomID), connectionID,
		keys.PresenceIndex(nspRoomID), connectionID,
	)
	if err != nil {
		return err
	}

	return p.redis.HDel(ctx, keys.ConnectionPresenceSets(connectionID), nspRoomID)
}

// ListRooms returns every room the connection is currently present in.
func (p *PresenceCoordinator) ListRooms(ctx context.Context, connectionID string) ([]string, error) {
	return p.redis.HKeys(ctx, keys.ConnectionPresenceSets(connectionID))
}

// DeleteSets drops the connection's presence-set index outright.
func (p *PresenceCoordinator) DeleteSets(ctx context.Context, connectionID string) error {
	return p.redis.Del(ctx, keys.ConnectionPresenceSets(connectionID))
}

// PurgeAll removes the connection from every room it is present in, then
// deletes the presence-set index itself. Safe to call any number of times.
func (p *PresenceCoordinator) PurgeAll(ctx context.Context, connectionID string) error {
	rooms, err := p.ListRooms(ctx, connectionID)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, nspRoomID := range rooms {
		g.Go(func() error {
			return p.Leave(ctx, nspRoomID, connectionID)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return p.DeleteSets(ctx, connectionID)
}
