package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dstream/session-service/config"
	"github.com/dstream/session-service/internal/adapter/pubsub"
	"github.com/dstream/session-service/internal/domain/event"
	"github.com/dstream/session-service/internal/domain/model"
	"golang.org/x/sync/errgroup"
)

// DurableStore is the slice of the relational adapter the reconciler needs.
type DurableStore interface {
	GetApplicationID(ctx context.Context, appPid string) (string, error)
	UpsertSession(ctx context.Context, appID string, data model.SessionData) error
	MarkSessionDisconnected(ctx context.Context, connectionID string) error
	InsertConnectionEvent(ctx context.Context, appID string, ev model.ConnectionEventTrigger) error
	GetConnectionEventID(ctx context.Context, connectionID, socketID string) (string, bool, error)
	SetAuthUserOnline(ctx context.Context, userID string) error
	SetAuthUserOffline(ctx context.Context, userID string) error
}

// Reconciler is the lifecycle state machine. It consumes the five trigger
// kinds and decides whether destructive work is safe to execute. There is no
// distributed lock: the active-session guard detects superseding heartbeats,
// every destructive primitive is idempotent, and the one order-sensitive
// decision (last connection closed) rides on an atomic count.
type Reconciler struct {
	sessions      *SessionStore
	presence      *PresenceCoordinator
	subscriptions *SubscriptionRegistry
	users         *UserMultiplexer
	durable       DurableStore
	dispatcher    pubsub.EventDispatcher
	cfg           config.SessionConfig
	logger        *slog.Logger
}

func NewReconciler(
	sessions *SessionStore,
	presence *PresenceCoordinator,
	subscriptions *SubscriptionRegistry,
	users *UserMultiplexer,
	durable DurableStore,
	dispatcher pubsub.EventDispatcher,
	cfg *config.Config,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		sessions:      sessions,
		presence:      presence,
		subscriptions: subscriptions,
		users:         users,
		durable:       durable,
		dispatcher:    dispatcher,
		cfg:           cfg.Session,
		logger:        logger.With("component", "reconciler"),
	}
}

// HandleConnectionEvent persists the session and connection-event rows and
// drives the auth-user online transition on connect.
func (r *Reconciler) HandleConnectionEvent(ctx context.Context, trig model.ConnectionEventTrigger) error {
	r.logger.InfoContext(ctx, "CONNECTION_EVENT",
		"connection_id", trig.ConnectionID, "event_type", string(trig.EventType))

	appID, err := r.durable.GetApplicationID(ctx, trig.AppPid)
	if err != nil {
		return err
	}

	if err := r.durable.UpsertSession(ctx, appID, trig.SessionData); err != nil {
		return err
	}

	switch trig.EventType {
	case model.ConnectionEventDisconnect:
		// Only act when a connection row for this exact socket exists; a
		// replaced socket's late disconnect must not unwind the new one.
		_, found, err := r.durable.GetConnectionEventID(ctx, trig.ConnectionID, trig.SocketID)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}

		if trig.User != nil {
			if err := r.users.MarkOffline(ctx, trig.AppPid, trig.User.ClientID); err != nil {
				return err
			}
		}

	case model.ConnectionEventConnect:
		if trig.User != nil {
			if err := r.durable.SetAuthUserOnline(ctx, trig.User.ID); err != nil {
				return err
			}
			if err := r.users.MarkOnline(ctx, trig.AppPid, *trig.User); err != nil {
				return err
			}
			if err := r.users.RegisterConnection(ctx, trig.AppPid, trig.User.ClientID, trig.ConnectionID, trig.EventTimestamp); err != nil {
				return err
			}

			for _, ev := range event.NewUserConnectPair(*trig.User, time.Now(), trig.SessionData) {
				if err := r.dispatcher.Publish(ctx, ev); err != nil {
					return err
				}
			}
		}
	}

	return r.durable.InsertConnectionEvent(ctx, appID, trig)
}

// HandleHeartbeat refreshes the guard TTL and the heartbeat score. No
// cascading effects.
func (r *Reconciler) HandleHeartbeat(ctx context.Context, trig model.HeartbeatTrigger) error {
	if err := r.sessions.SetActiveGuard(ctx, trig.SessionData, r.cfg.GuardTTL()); err != nil {
		return err
	}

	return r.sessions.RecordHeartbeat(ctx, trig.ConnectionID, trig.Timestamp)
}

// HandleInactive is the soft delete: presence membership goes, everything
// else stays, so a connection can flicker inactive/active without losing its
// registrations.
func (r *Reconciler) HandleInactive(ctx context.Context, trig model.InactiveTrigger) error {
	r.logger.InfoContext(ctx, "SESSION_INACTIVE", "connection_id", trig.ConnectionID)

	rooms, err := r.presence.ListRooms(ctx, trig.ConnectionID)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, nspRoomID := range rooms {
		g.Go(func() error {
			if err := r.presence.Leave(gctx, nspRoomID, trig.ConnectionID); err != nil {
				return err
			}
			return r.dispatcher.Publish(gctx, event.NewPresenceLeave(nspRoomID, trig.SessionData, time.Now()))
		})
	}
	return g.Wait()
}

// HandleDestroy is the hard delete. The guard check must happen before any
// destructive call; within the fan-out, order is insignificant because every
// branch is independently idempotent, so a duplicate trigger or a retry after
// partial failure converges to the same end state.
func (r *Reconciler) HandleDestroy(ctx context.Context, trig model.DestroyTrigger) error {
	active, err := r.sessions.IsGuardActive(ctx, trig.ConnectionID)
	if err != nil {
		return err
	}
	if active {
		// A newer heartbeat superseded this trigger; treat it as stale and
		// leave every structure untouched.
		r.logger.DebugContext(ctx, "DESTROY_SUPERSEDED", "connection_id", trig.ConnectionID)
		return nil
	}

	r.logger.InfoContext(ctx, "SESSION_DESTROY", "connection_id", trig.ConnectionID, "uid", trig.UID)

	var remaining atomic.Int64
	remaining.Store(-1)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return r.purgePresenceWithBroadcast(gctx, trig.SessionData) })
	g.Go(func() error { return r.subscriptions.PurgeRoomSubscriptions(gctx, trig.ConnectionID) })
	g.Go(func() error { return r.subscriptions.PurgeAllUserSubscriptions(gctx, trig.ConnectionID) })
	g.Go(func() error { return r.durable.MarkSessionDisconnected(gctx, trig.ConnectionID) })
	g.Go(func() error { return r.sessions.ClearHeartbeat(gctx, trig.ConnectionID) })

	if trig.User != nil {
		g.Go(func() error {
			count, err := r.users.DeregisterConnection(gctx, trig.AppPid, trig.User.ClientID, trig.ConnectionID)
			if err != nil {
				return err
			}
			remaining.Store(count)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	// The offline transition fires iff the atomic deregistration observed
	// zero remaining connections; the decision is re-derived from current
	// counts on every destroy, never cached.
	if trig.User != nil && remaining.Load() == 0 {
		if err := r.durable.SetAuthUserOffline(ctx, trig.User.ID); err != nil {
			return err
		}
		if err := r.users.MarkOffline(ctx, trig.AppPid, trig.User.ClientID); err != nil {
			return err
		}

		for _, ev := range event.NewUserDisconnectPair(*trig.User, time.Now(), trig.SessionData) {
			if err := r.dispatcher.Publish(ctx, ev); err != nil {
				return err
			}
		}
	}

	return nil
}

// HandleReap scans for connections whose heartbeat aged past the eligibility
// threshold and destroys each one that no longer holds a guard. The cron
// trigger carries no session payload, so the reap path performs only the
// payload-independent subset of the destroy fan-out.
func (r *Reconciler) HandleReap(ctx context.Context) error {
	cutoff := time.Now().Add(-r.cfg.ReapMaxAge())

	candidates, err := r.sessions.ScanInactive(ctx, cutoff, r.cfg.ReapBatchLimit)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		r.logger.InfoContext(ctx, "REAP_NOTHING_TO_DO")
		return nil
	}

	r.logger.InfoContext(ctx, "REAP_CANDIDATES", "count", len(candidates))

	for _, connectionID := range candidates {
		// Re-check per connection: a heartbeat fresher than the scan
		// snapshot supersedes the reap, same rule as destroy.
		active, err := r.sessions.IsGuardActive(ctx, connectionID)
		if err != nil {
			return err
		}
		if active {
			continue
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return r.presence.PurgeAll(gctx, connectionID) })
		g.Go(func() error { return r.subscriptions.PurgeRoomSubscriptions(gctx, connectionID) })
		g.Go(func() error { return r.subscriptions.PurgeAllUserSubscriptions(gctx, connectionID) })
		g.Go(func() error { return r.durable.MarkSessionDisconnected(gctx, connectionID) })
		g.Go(func() error { return r.sessions.ClearHeartbeat(gctx, connectionID) })

		if err := g.Wait(); err != nil {
			return err
		}

		r.logger.InfoContext(ctx, "REAP_CLEANUP_COMPLETE", "connection_id", connectionID)
	}

	return nil
}

// purgePresenceWithBroadcast leaves every room the connection is present in,
// announcing each departure, then drops the presence-set index.
func (r *Reconciler) purgePresenceWithBroadcast(ctx context.Context, session model.SessionData) error {
	rooms, err := r.presence.ListRooms(ctx, session.ConnectionID)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, nspRoomID := range rooms {
		g.Go(func() error {
			if err := r.presence.Leave(gctx, nspRoomID, session.ConnectionID); err != nil {
				return err
			}
			return r.dispatcher.Publish(gctx, event.NewPresenceLeave(nspRoomID, session, time.Now()))
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return r.presence.DeleteSets(ctx, session.ConnectionID)
}
