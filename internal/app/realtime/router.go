/*
Package realtime contains the core logic for presence tracking and real-time event
fan-out.

This file defines the Router struct, which resolves an event's audience and
delivers the serialized event to every live connection of each resolved recipient.
The router has no queue, no retry, and no persistence of missed events: a user
with no live connections is silently skipped, and clients recover missed state
through the REST API on reconnect.
*/
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hubchat/internal/pkg/errs"
	"hubchat/internal/pkg/logx"
)

// Router fans outbound events out to the correct subset of live connections.
// Publish calls on one Router instance are dispatched from a single point, so
// events published in order arrive at any given connection in that order. No
// cross-router or cross-process ordering guarantee is made.
type Router struct {
	registry  *Registry
	rooms     *RoomSet
	directory Directory

	// lookupTimeout bounds directory lookups during audience resolution. A lookup
	// timeout degrades the announcement to an empty audience instead of blocking
	// the publisher.
	lookupTimeout time.Duration

	// evict is called when a delivery to one connection fails; the connection is
	// treated as implicitly disconnected. The gateway installs its full teardown
	// here so room membership and presence stay consistent.
	evict func(*Conn)

	// mu serializes the resolve-then-deliver sequence (the single dispatch point).
	mu sync.Mutex

	// structured logger with Router context.
	logger zerolog.Logger
}

// NewRouter constructs an event router over the given registry, room index, and
// directory collaborator. Until a gateway installs its teardown via setEvict,
// failed connections are simply deregistered and shut down.
func NewRouter(registry *Registry, rooms *RoomSet, directory Directory, lookupTimeout time.Duration) *Router {
	rt := &Router{
		registry:      registry,
		rooms:         rooms,
		directory:     directory,
		lookupTimeout: lookupTimeout,
		logger:        logx.Logger().With().Str("component", "Router").Logger(),
	}

	rt.evict = func(c *Conn) {
		rt.registry.Deregister(c.ID)
		c.shutdown()
	}

	return rt
}

// setEvict replaces the delivery-failure handler. Installed by the gateway so an
// implicit disconnect runs the same teardown as a transport close.
func (rt *Router) setEvict(fn func(*Conn)) {
	rt.evict = fn
}

// Publish resolves the event's audience and delivers it to every live connection
// of each resolved recipient. Errors local to one connection or one lookup never
// abort delivery to the remaining recipients, and none of them propagate to the
// caller.
func (rt *Router) Publish(ctx context.Context, ev Event, aud Audience) {
	data, err := ev.Encode()
	if err != nil {
		rt.logger.Error().Err(err).Str("kind", string(ev.Kind)).Msg("Failed to encode event, dropping.")
		return
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	switch aud.kind {
	case audienceUser:
		rt.deliverToUser(aud.userID, ev.Kind, data)

	case audienceUsers:
		for _, userID := range aud.userIDs {
			rt.deliverToUser(userID, ev.Kind, data)
		}

	case audienceRoom:
		// Per-connection delivery: every connection joined to the room receives
		// the event, including multiple tabs of the same user.
		for _, c := range rt.rooms.Connections(aud.roomID) {
			rt.deliverToConn(c, ev.Kind, data)
		}

	case audienceFriends:
		for _, userID := range rt.resolveFriends(ctx, aud.userID) {
			rt.deliverToUser(userID, ev.Kind, data)
		}
	}
}

// StatusAnnouncer builds the tracker announcer used in production: every
// presence change is written through to storage via persist (when non-nil) and
// published as a status.update to the user's friends. Invisible users are
// reported to their audience as offline; the true status stays server-side.
func StatusAnnouncer(rt *Router, persist func(ctx context.Context, userID string, status Status, statusMessage string) error) Announcer {
	return func(userID string, status Status, statusMessage string) {
		ctx := context.Background()

		if persist != nil {
			if err := persist(ctx, userID, status, statusMessage); err != nil {
				rt.logger.Error().Err(err).
					Str("user_id", userID).
					Msg("Failed to persist status change.")
			}
		}

		visible := status
		if visible == StatusInvisible {
			visible = StatusOffline
		}

		rt.Publish(ctx, Event{
			Kind: KindStatusUpdate,
			Payload: StatusUpdatePayload{
				UserID:        userID,
				Status:        visible,
				StatusMessage: statusMessage,
			},
		}, ToFriendsOf(userID))
	}
}

// resolveFriends asks the directory for the user's friends under a bounded
// timeout. Lookup failure or timeout degrades to an empty audience: the
// announcement is logged and dropped, never retried.
func (rt *Router) resolveFriends(ctx context.Context, userID string) []string {
	if ctx == nil {
		ctx = context.Background()
	}

	lookupCtx, cancel := context.WithTimeout(ctx, rt.lookupTimeout)
	defer cancel()

	friends, err := rt.directory.FriendsOf(lookupCtx, userID)
	if err != nil {
		rt.logger.Warn().Err(err).
			Int("code", errs.ErrDirectoryUnavailable).
			Str("user_id", userID).
			Msg("Directory unavailable, dropping announcement.")
		return nil
	}

	return friends
}

// deliverToUser sends the serialized event to each live connection of one user.
// A user with zero live connections is skipped silently.
func (rt *Router) deliverToUser(userID string, kind Kind, data []byte) {
	for _, c := range rt.registry.ConnectionsFor(userID) {
		rt.deliverToConn(c, kind, data)
	}
}

// deliverToConn performs one best-effort delivery. A write failure evicts that
// connection and moves on; remaining recipients in the same Publish call are
// unaffected. Eviction runs on its own goroutine because the teardown may
// publish an offline announcement through this router, and the dispatch lock is
// still held here.
func (rt *Router) deliverToConn(c *Conn, kind Kind, data []byte) {
	if err := c.Deliver(data); err != nil {
		rt.logger.Warn().Err(err).
			Int("code", errs.ErrDeliveryFailed).
			Str("conn_id", c.ID).
			Str("user_id", c.UserID).
			Str("kind", string(kind)).
			Msg("Delivery failed, treating connection as disconnected.")

		go func() {
			c.closeEvicted("delivery backlog")
			rt.evict(c)
		}()
	}
}
