// Package pgstore is the durable-store adapter: parameterized CRUD against
// the applications, sessions, connections and authentication_users tables.
// All statements run through a circuit breaker so a dead database fails the
// queued triggers fast instead of stacking worker goroutines on it.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dstream/session-service/internal/domain/model"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sony/gobreaker"
	"go.uber.org/fx"
)

var Module = fx.Module(
	"adapter_pgstore",

	fx.Provide(New),
)

// ErrApplicationNotFound means the trigger referenced an appPid with no
// durable row; the trigger is unprocessable and must not fall back.
var ErrApplicationNotFound = errors.New("pgstore: application not found")

const (
	appIDCacheSize = 512
	appIDCacheTTL  = 5 * time.Minute
)

type Store struct {
	db      *sql.DB
	breaker *gobreaker.CircuitBreaker
	appIDs  *expirable.LRU[string, string]
}

func New(db *sql.DB) *Store {
	return &Store{
		db: db,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "postgres",
			Timeout: 10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		appIDs: expirable.NewLRU[string, string](appIDCacheSize, nil, appIDCacheTTL),
	}
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	_, err := s.breaker.Execute(func() (any, error) {
		return s.db.ExecContext(ctx, query, args...)
	})
	return err
}

// GetApplicationID resolves the internal application id for a tenant pid.
// Hot tenants are served from an expiring cache; applications are immutable
// enough that a short TTL is safe.
func (s *Store) GetApplicationID(ctx context.Context, appPid string) (string, error) {
	if id, ok := s.appIDs.Get(appPid); ok {
		return id, nil
	}

	res, err := s.breaker.Execute(func() (any, error) {
		var id string
		err := s.db.QueryRowContext(ctx, `SELECT id FROM applications WHERE pid = $1`, appPid).Scan(&id)
		if err == sql.ErrNoRows {
			return "", ErrApplicationNotFound
		}
		if err != nil {
			return "", fmt.Errorf("pgstore: get application id: %w", err)
		}
		return id, nil
	})
	if err != nil {
		return "", err
	}

	id := res.(string)
	s.appIDs.Add(appPid, id)

	return id, nil
}

// UpsertSession inserts the session row, refreshing updatedAt when the
// (uid, connectionId) pair already exists.
func (s *Store) UpsertSession(ctx context.Context, appID string, data model.SessionData) error {
	now := time.Now().UTC()

	err := s.exec(ctx, `
		INSERT INTO sessions (
			"appId", "appPid", "keyId", uid, "clientId", "connectionId",
			"socketId", "createdAt", "updatedAt"
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (uid, "connectionId")
			DO UPDATE SET "updatedAt" = $9`,
		appID, data.AppPid, data.KeyID, data.UID, data.ClientID,
		data.ConnectionID, data.SocketID, now, now,
	)
	if err != nil {
		return fmt.Errorf("pgstore: upsert session: %w", err)
	}
	return nil
}

// MarkSessionDisconnected stamps disconnectedAt on every session row for the
// connection. Zero rows affected is fine: a duplicate destroy already did it.
func (s *Store) MarkSessionDisconnected(ctx context.Context, connectionID string) error {
	err := s.exec(ctx, `
		UPDATE sessions SET "disconnectedAt" = $1 WHERE "connectionId" = $2`,
		time.Now().UTC(), connectionID,
	)
	if err != nil {
		return fmt.Errorf("pgstore: mark session disconnected: %w", err)
	}
	return nil
}

// InsertConnectionEvent records a connect/disconnect row with its +1/-1
// connection delta, refreshing socketId when the same event type repeats for
// one connection.
func (s *Store) InsertConnectionEvent(ctx context.Context, appID string, ev model.ConnectionEventTrigger) error {
	err := s.exec(ctx, `
		INSERT INTO connections (
			"appId", "appPid", uid, "clientId", "connectionId", "socketId",
			"connectionEventType", "connectionChange", "createdAt"
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT ("connectionId", "connectionEventType")
			DO UPDATE SET "socketId" = $6`,
		appID, ev.AppPid, ev.UID, ev.ClientID, ev.ConnectionID, ev.SocketID,
		string(ev.EventType), ev.EventType.ConnectionChange(), ev.EventTimestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("pgstore: insert connection event: %w", err)
	}
	return nil
}

// GetConnectionEventID looks up the connection row for a (connectionId,
// socketId) pair; absence is reported, not an error.
func (s *Store) GetConnectionEventID(ctx context.Context, connectionID, socketID string) (string, bool, error) {
	res, err := s.breaker.Execute(func() (any, error) {
		var id string
		err := s.db.QueryRowContext(ctx, `
			SELECT id FROM connections
			WHERE "connectionId" = $1 AND "socketId" = $2`,
			connectionID, socketID,
		).Scan(&id)
		if err == sql.ErrNoRows {
			return "", nil
		}
		if err != nil {
			return "", fmt.Errorf("pgstore: get connection event id: %w", err)
		}
		return id, nil
	})
	if err != nil {
		return "", false, err
	}

	id := res.(string)
	return id, id != "", nil
}

func (s *Store) SetAuthUserOnline(ctx context.Context, userID string) error {
	return s.setAuthUserOnlineState(ctx, userID, true)
}

func (s *Store) SetAuthUserOffline(ctx context.Context, userID string) error {
	return s.setAuthUserOnlineState(ctx, userID, false)
}

func (s *Store) setAuthUserOnlineState(ctx context.Context, userID string, online bool) error {
	err := s.exec(ctx, `
		UPDATE authentication_users
		SET "isOnline" = $1, "lastOnline" = $2
		WHERE id = $3`,
		online, time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("pgstore: set auth user online=%t: %w", online, err)
	}
	return nil
}
