/*
Package realtime contains the core logic for presence tracking and real-time event
fan-out.

This file defines the Gateway struct, the connection lifecycle handler. It takes a
verified user from the handshake through registration and the online announcement,
dispatches inbound client events to the presence tracker, room index, and router,
and tears everything down on disconnect, announcing offline only once the user's
last connection is gone.
*/
package realtime

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"hubchat/internal/pkg/errs"
	"hubchat/internal/pkg/logx"
)

// Inbound event types in the client → server taxonomy.
const (
	inboundStatusSet = "status.set"
	inboundTyping    = "typing"
	inboundRoomJoin  = "room.join"
	inboundRoomLeave = "room.leave"
)

// Gateway is the connection lifecycle handler. It owns the composition of the
// registry, presence tracker, room index, and router for one process.
type Gateway struct {
	registry  *Registry
	presence  *Tracker
	rooms     *RoomSet
	router    *Router
	directory Directory

	// lookupTimeout bounds the membership check performed before a room join.
	lookupTimeout time.Duration

	// structured logger with Gateway context.
	logger zerolog.Logger
}

// NewGateway wires the lifecycle handler over the core components. It also
// installs itself as the router's eviction handler so an implicit disconnect
// (failed delivery) runs the same teardown as a transport close.
func NewGateway(registry *Registry, presence *Tracker, rooms *RoomSet, router *Router, directory Directory, lookupTimeout time.Duration) *Gateway {
	g := &Gateway{
		registry:      registry,
		presence:      presence,
		rooms:         rooms,
		router:        router,
		directory:     directory,
		lookupTimeout: lookupTimeout,
		logger:        logx.Logger().With().Str("component", "Gateway").Logger(),
	}

	router.setEvict(g.Disconnect)

	return g
}

// Router exposes the router so REST handlers and background jobs can publish
// events directly.
func (g *Gateway) Router() *Router {
	return g.router
}

// Presence exposes the presence tracker for explicit status changes and
// status decoration in REST handlers.
func (g *Gateway) Presence() *Tracker {
	return g.presence
}

// Registry exposes the registry for "is this user online" queries.
func (g *Gateway) Registry() *Registry {
	return g.registry
}

// Connect registers a new connection for an already-verified user. For the
// user's first live connection it records the offline→online transition and
// announces it; an additional connection of an already-online user only bumps
// activity, so an explicit busy or invisible status survives extra tabs.
func (g *Gateway) Connect(userID string, sock *websocket.Conn) (*Conn, *errs.CustomError) {
	c := newConn(userID, sock)

	first, customErr := g.registry.Register(c)
	if customErr != nil {
		return nil, customErr
	}

	if first {
		g.presence.MarkConnected(userID)
	} else {
		g.presence.TouchActivity(userID)
	}

	return c, nil
}

// Serve runs the connection's pumps. It blocks until the connection closes and
// teardown has run.
func (g *Gateway) Serve(c *Conn) {
	go c.WritePump()
	c.ReadPump(g)
}

// Disconnect tears a connection down: it leaves every room, deregisters, and,
// only if this was the user's last connection, flips presence to offline and
// announces it. Safe to call multiple times and from any goroutine; the offline
// announcement fires at most once because only one caller observes the
// user-left transition from the registry.
func (g *Gateway) Disconnect(c *Conn) {
	g.rooms.LeaveAll(c.ID)

	existed, userLeft := g.registry.Deregister(c.ID)

	c.shutdown()

	if existed && userLeft {
		g.presence.MarkDisconnected(c.UserID)
	}
}

// inboundEnvelope is the tagged wire format of client → server events.
type inboundEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// statusSetPayload carries an explicit status change request.
type statusSetPayload struct {
	Status        string `json:"status"`
	StatusMessage string `json:"statusMessage,omitempty"`
}

// typingIndicatorPayload carries a typing start/stop indicator aimed at either a
// channel room or a direct-message recipient.
type typingIndicatorPayload struct {
	ChannelID   string `json:"channelId,omitempty"`
	RecipientID string `json:"recipientId,omitempty"`
	IsTyping    bool   `json:"isTyping"`
}

// roomPayload carries a room join or leave request.
type roomPayload struct {
	RoomID string `json:"roomId"`
}

// handleInbound dispatches one raw client event. Malformed events are dropped
// and the connection stays open; every inbound event, whatever its type, counts
// as user activity.
func (g *Gateway) handleInbound(c *Conn, raw []byte) {
	g.presence.TouchActivity(c.UserID)

	var env inboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid JSON, dropping event.")
		return
	}

	switch env.Type {
	case inboundStatusSet:
		g.handleStatusSet(c, env.Payload)

	case inboundTyping:
		g.handleTyping(c, env.Payload)

	case inboundRoomJoin:
		g.handleRoomJoin(c, env.Payload)

	case inboundRoomLeave:
		g.handleRoomLeave(c, env.Payload)

	default:
		c.logger.Warn().Str("event_type", env.Type).Msg("Client sent unsupported event type, dropping.")
	}
}

// handleStatusSet applies an explicit status change.
func (g *Gateway) handleStatusSet(c *Conn, payload json.RawMessage) {
	var p statusSetPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid status.set payload, dropping.")
		return
	}

	status, ok := ParseStatus(p.Status)
	if !ok {
		c.logger.Warn().Str("status", p.Status).Msg("Client sent unknown status value, dropping.")
		return
	}

	if customErr := g.presence.SetStatus(c.UserID, status, p.StatusMessage); customErr != nil {
		c.logger.Warn().Err(customErr).Msg("Status change rejected.")
	}
}

// handleTyping republishes a typing indicator to its room or recipient. Typing
// indicators are transient: nothing is persisted.
func (g *Gateway) handleTyping(c *Conn, payload json.RawMessage) {
	var p typingIndicatorPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid typing payload, dropping.")
		return
	}

	ev := Event{
		Kind: KindTyping,
		Payload: TypingPayload{
			UserID:      c.UserID,
			ChannelID:   p.ChannelID,
			RecipientID: p.RecipientID,
			IsTyping:    p.IsTyping,
		},
	}

	switch {
	case p.ChannelID != "":
		g.router.Publish(context.Background(), ev, ToRoom(p.ChannelID))
	case p.RecipientID != "":
		g.router.Publish(context.Background(), ev, ToUser(p.RecipientID))
	default:
		c.logger.Warn().Msg("Typing indicator names neither channel nor recipient, dropping.")
	}
}

// handleRoomJoin subscribes the connection to a broadcast room after checking
// that the user actually belongs to it. The membership check is the external
// authorization step; the room index itself does no authorization.
func (g *Gateway) handleRoomJoin(c *Conn, payload json.RawMessage) {
	var p roomPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.RoomID == "" {
		c.logger.Warn().Msg("Client sent invalid room.join payload, dropping.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), g.lookupTimeout)
	defer cancel()

	members, err := g.directory.MembersOf(ctx, p.RoomID)
	if err != nil {
		c.logger.Warn().Err(err).
			Str("room_id", p.RoomID).
			Msg("Directory unavailable during room join, rejecting.")
		return
	}

	if !slices.Contains(members, c.UserID) {
		c.logger.Warn().
			Str("room_id", p.RoomID).
			Msg("Connection attempted to join a room its user does not belong to, rejecting.")
		return
	}

	g.rooms.Join(c, p.RoomID)
	c.logger.Info().Str("room_id", p.RoomID).Msg("Connection joined room.")
}

// handleRoomLeave unsubscribes the connection from a broadcast room.
func (g *Gateway) handleRoomLeave(c *Conn, payload json.RawMessage) {
	var p roomPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.RoomID == "" {
		c.logger.Warn().Msg("Client sent invalid room.leave payload, dropping.")
		return
	}

	g.rooms.Leave(c.ID, p.RoomID)
	c.logger.Info().Str("room_id", p.RoomID).Msg("Connection left room.")
}
