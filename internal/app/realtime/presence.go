/*
Package realtime contains the core logic for presence tracking and real-time event
fan-out.

This file defines the Tracker struct, which holds each connected user's current
availability status and last-activity timestamp, and runs the periodic idle sweep
that demotes inactive users.
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

// Status is a user's availability status.
type Status string

const (
	// StatusOnline marks a user as actively connected.
	StatusOnline Status = "online"

	// StatusIdle marks a connected user who has been inactive past the idle timeout.
	StatusIdle Status = "idle"

	// StatusBusy marks a user who asked not to be disturbed.
	StatusBusy Status = "busy"

	// StatusInvisible marks a connected user who appears offline to others.
	StatusInvisible Status = "invisible"

	// StatusOffline marks a user with no live connections, or one who chose to
	// appear offline explicitly.
	StatusOffline Status = "offline"
)

// ParseStatus validates a client-supplied status string against the defined enum.
func ParseStatus(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusOnline, StatusIdle, StatusBusy, StatusInvisible, StatusOffline:
		return Status(raw), true
	default:
		return "", false
	}
}

// Announcer is invoked by the tracker whenever a user's presence changes and the
// change should be made visible to their audience. The composition layer wires it
// to persistence write-through and a status.update publish; a nil announcer
// disables announcements (used by tests).
type Announcer func(userID string, status Status, statusMessage string)

// presenceEntry holds one user's presence state. Each entry carries its own lock
// so that unrelated users' updates never serialize against each other.
type presenceEntry struct {
	mu            sync.Mutex
	status        Status
	statusMessage string
	lastActivity  time.Time
}

// Tracker holds a presence entry per user id seen during process lifetime and
// demotes inactive online users to idle on a fixed sweep interval.
type Tracker struct {
	// idleTimeout is the inactivity window after which online users become idle.
	idleTimeout time.Duration

	// sweepInterval is the period of the idle sweep task.
	sweepInterval time.Duration

	// announce is called after every externally visible status transition.
	announce Announcer

	// now is the clock; replaced in tests.
	now func() time.Time

	// mu protects the entries map only; each entry has its own lock.
	mu      sync.RWMutex
	entries map[string]*presenceEntry

	// structured logger with Tracker context.
	logger zerolog.Logger
}

// NewTracker constructs a presence tracker. The announcer may be nil.
func NewTracker(idleTimeout, sweepInterval time.Duration, announce Announcer) *Tracker {
	return &Tracker{
		idleTimeout:   idleTimeout,
		sweepInterval: sweepInterval,
		announce:      announce,
		now:           time.Now,
		entries:       make(map[string]*presenceEntry),
		logger:        logx.Logger().With().Str("component", "Presence").Logger(),
	}
}

// entry returns the user's presence entry, creating an offline one if absent.
func (t *Tracker) entry(userID string) *presenceEntry {
	t.mu.RLock()
	e, ok := t.entries[userID]
	t.mu.RUnlock()

	if ok {
		return e
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok = t.entries[userID]; ok {
		return e
	}

	e = &presenceEntry{status: StatusOffline}
	t.entries[userID] = e
	return e
}

// Status returns the user's current status and custom status message. A user id
// never seen by the tracker is reported as offline.
func (t *Tracker) Status(userID string) (Status, string) {
	t.mu.RLock()
	e, ok := t.entries[userID]
	t.mu.RUnlock()

	if !ok {
		return StatusOffline, ""
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status, e.statusMessage
}

// Statuses returns the current status for each of the given user ids. Used by
// REST handlers to decorate friend and member lists.
func (t *Tracker) Statuses(userIDs []string) map[string]Status {
	result := make(map[string]Status, len(userIDs))
	for _, id := range userIDs {
		status, _ := t.Status(id)
		result[id] = status
	}
	return result
}

// SetStatus applies an explicit, user-initiated status change. The status string
// must be one of the defined enum values. The change stamps last-activity and is
// announced. Setting offline explicitly is permitted even while connections
// remain open ("appear offline"); nothing in the tracker overrides it until the
// user disconnects fully and reconnects.
func (t *Tracker) SetStatus(userID string, status Status, statusMessage string) *errs.CustomError {
	if _, ok := ParseStatus(string(status)); !ok {
		return errs.NewError(errs.ErrInvalidArgument)
	}

	e := t.entry(userID)

	e.mu.Lock()
	e.status = status
	e.statusMessage = statusMessage
	e.lastActivity = t.now()
	e.mu.Unlock()

	t.logger.Info().
		Str("user_id", userID).
		Str("status", string(status)).
		Msg("Explicit status change.")

	t.announceChange(userID, status, statusMessage)
	return nil
}

// TouchActivity updates the user's last-activity timestamp. It changes status
// only when the user is currently idle, promoting them back to online with
// exactly one announcement.
func (t *Tracker) TouchActivity(userID string) {
	e := t.entry(userID)

	e.mu.Lock()
	e.lastActivity = t.now()
	promoted := e.status == StatusIdle
	if promoted {
		e.status = StatusOnline
	}
	statusMessage := e.statusMessage
	e.mu.Unlock()

	if promoted {
		t.logger.Info().Str("user_id", userID).Msg("Idle user promoted back to online.")
		t.announceChange(userID, StatusOnline, statusMessage)
	}
}

// MarkConnected records the offline→online transition when a user's first
// connection registers. Reconnection forces online regardless of the status the
// user had before disconnecting. Callers must invoke this only for the first
// connection; additional connections of an already-online user go through
// TouchActivity instead, so an explicit busy/invisible choice survives them.
func (t *Tracker) MarkConnected(userID string) {
	e := t.entry(userID)

	e.mu.Lock()
	e.status = StatusOnline
	e.lastActivity = t.now()
	statusMessage := e.statusMessage
	e.mu.Unlock()

	t.logger.Info().Str("user_id", userID).Msg("User came online.")
	t.announceChange(userID, StatusOnline, statusMessage)
}

// MarkDisconnected records the transition to offline once a user's last
// connection is gone. Callers guarantee the last-connection condition, so the
// offline announcement happens exactly once per full disconnect.
func (t *Tracker) MarkDisconnected(userID string) {
	e := t.entry(userID)

	e.mu.Lock()
	e.status = StatusOffline
	statusMessage := e.statusMessage
	e.mu.Unlock()

	t.logger.Info().Str("user_id", userID).Msg("User went offline.")
	t.announceChange(userID, StatusOffline, statusMessage)
}

// announceChange invokes the announcer outside any entry lock.
func (t *Tracker) announceChange(userID string, status Status, statusMessage string) {
	if t.announce != nil {
		t.announce(userID, status, statusMessage)
	}
}

// Run executes the periodic idle sweep until the context is cancelled. Sweeps
// run from this single goroutine, so no two sweep executions overlap; they do
// run concurrently with client-driven mutations, which the per-entry locks make
// safe.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.sweepInterval)
	defer ticker.Stop()

	t.logger.Info().
		Dur("sweep_interval", t.sweepInterval).
		Dur("idle_timeout", t.idleTimeout).
		Msg("Idle sweep started.")

	for {
		select {
		case <-ticker.C:
			t.sweepIdle()
		case <-ctx.Done():
			t.logger.Info().Msg("Idle sweep stopped.")
			return
		}
	}
}

// sweepIdle scans all entries and demotes online users whose last activity is
// older than the idle timeout. Only online users are eligible: explicit busy,
// invisible, and offline selections are never touched by the sweep.
func (t *Tracker) sweepIdle() {
	t.mu.RLock()
	snapshot := make(map[string]*presenceEntry, len(t.entries))
	for id, e := range t.entries {
		snapshot[id] = e
	}
	t.mu.RUnlock()

	cutoff := t.now().Add(-t.idleTimeout)
	demoted := 0

	for userID, e := range snapshot {
		e.mu.Lock()
		eligible := e.status == StatusOnline && !e.lastActivity.After(cutoff)
		var statusMessage string
		if eligible {
			e.status = StatusIdle
			statusMessage = e.statusMessage
		}
		e.mu.Unlock()

		if eligible {
			demoted++
			t.announceChange(userID, StatusIdle, statusMessage)
		}
	}

	if demoted > 0 {
		t.logger.Info().Int("demoted", demoted).Msg("Idle sweep demoted inactive users.")
	}
}
