/*
Package realtime contains the core logic for presence tracking and real-time event
fan-out.

This file defines the Registry struct, which maps user ids to their set of live
connections. The registry is pure bookkeeping: it never triggers presence changes
itself; the lifecycle layer composes those on top.
*/
package realtime

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"hubchat/internal/pkg/errs"
	"hubchat/internal/pkg/logx"
)

var (
	// errConnClosed reports a delivery attempt to a connection already in teardown.
	errConnClosed = errors.New("connection closed")

	// errSendQueueFull reports a delivery attempt against a saturated send queue.
	errSendQueueFull = errors.New("connection send queue full")
)

// Registry tracks every live connection in the process, indexed both by
// connection id and by owning user id. A user id may map to zero or many
// connections at once.
type Registry struct {
	// maxConns caps the total number of registered connections; zero means unlimited.
	maxConns int

	// mu protects the two indexes below. Lookups return snapshot slices so that
	// delivery iteration tolerates concurrent deregistration.
	mu sync.RWMutex

	// conns maps connection id to connection.
	conns map[string]*Conn

	// byUser maps user id to that user's connections, keyed by connection id.
	byUser map[string]map[string]*Conn

	// structured logger with Registry context.
	logger zerolog.Logger
}

// NewRegistry constructs an empty connection registry. maxConns of zero disables
// the capacity limit.
func NewRegistry(maxConns int) *Registry {
	return &Registry{
		maxConns: maxConns,
		conns:    make(map[string]*Conn),
		byUser:   make(map[string]map[string]*Conn),
		logger:   logx.Logger().With().Str("component", "Registry").Logger(),
	}
}

// Register adds a connection under its user id. It reports whether this is the
// user's first live connection, so the lifecycle layer can announce presence
// exactly once. Registration only fails when the registry is at capacity.
func (r *Registry) Register(c *Conn) (first bool, customErr *errs.CustomError) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxConns > 0 && len(r.conns) >= r.maxConns {
		r.logger.Warn().
			Int("max_connections", r.maxConns).
			Str("user_id", c.UserID).
			Msg("Registry at capacity. New connection rejected.")
		return false, errs.NewError(errs.ErrResourceExhausted)
	}

	r.conns[c.ID] = c

	userConns := r.byUser[c.UserID]
	if userConns == nil {
		userConns = make(map[string]*Conn)
		r.byUser[c.UserID] = userConns
	}

	first = len(userConns) == 0
	userConns[c.ID] = c

	r.logger.Info().
		Str("conn_id", c.ID).
		Str("user_id", c.UserID).
		Int("user_connections", len(userConns)).
		Msg("Connection registered.")

	return first, nil
}

// Deregister removes a connection by id. It is idempotent: removing an unknown or
// already-removed id is a no-op. The returned flags report whether the connection
// was present and whether its removal left the owning user with no connections.
func (r *Registry) Deregister(connID string) (existed bool, userLeft bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[connID]
	if !ok {
		return false, false
	}

	delete(r.conns, connID)

	if userConns, ok := r.byUser[c.UserID]; ok {
		delete(userConns, connID)
		if len(userConns) == 0 {
			delete(r.byUser, c.UserID)
			userLeft = true
		}
	}

	r.logger.Info().
		Str("conn_id", connID).
		Str("user_id", c.UserID).
		Bool("user_offline", userLeft).
		Msg("Connection deregistered.")

	return true, userLeft
}

// ConnectionsFor returns a snapshot of the user's current live connections.
// The snapshot may be iterated safely while other goroutines register or
// deregister connections; a connection removed after the snapshot simply fails
// its one delivery.
func (r *Registry) ConnectionsFor(userID string) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userConns := r.byUser[userID]
	if len(userConns) == 0 {
		return nil
	}

	snapshot := make([]*Conn, 0, len(userConns))
	for _, c := range userConns {
		snapshot = append(snapshot, c)
	}
	return snapshot
}

// IsOnline reports whether the user has at least one live connection.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byUser[userID]) > 0
}

// Count returns the total number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}
