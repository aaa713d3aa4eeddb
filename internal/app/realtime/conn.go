/*
Package realtime contains the core logic for presence tracking and real-time event
fan-out.

This file defines the Conn struct, an opaque handle to one live WebSocket session.
It manages the connection's send queue, the read and write pumps, and cooperative
teardown. A Conn is owned exclusively by the connection registry for its lifetime.
*/
package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"hubchat/internal/pkg/logx"
	"hubchat/internal/pkg/randx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of an inbound client event.
	maxMessageSize = 8192

	// capacity of the per-connection outbound send queue.
	sendQueueSize = 256

	// WsCloseCodeEvicted is a custom WebSocket Close Code (4000-4999 range)
	// used to signal the client that the server terminated the session.
	WsCloseCodeEvicted = 4001
)

// Conn represents one live bidirectional transport session for a user. A user may
// own many Conns at once (multiple tabs or devices), each with its own id.
type Conn struct {
	// ID uniquely identifies the connection within this process. Never persisted.
	ID string

	// UserID is the id of the authenticated user owning this connection.
	UserID string

	// CreatedAt records when the connection completed its handshake.
	CreatedAt time.Time

	// underlying WebSocket connection object; nil for test connections.
	sock *websocket.Conn

	// a buffered channel used to queue serialized events waiting to be sent.
	send chan []byte

	// done is closed exactly once when the connection begins teardown. Closing it
	// cancels any in-flight delivery attempts to this connection.
	done chan struct{}

	// closeOnce guards the done channel.
	closeOnce sync.Once

	// structured logger with connection context.
	logger zerolog.Logger
}

// newConn constructs a Conn for the given user. The socket may be nil, in which
// case the pumps must not be started; delivery then only fills the send queue.
func newConn(userID string, sock *websocket.Conn) *Conn {
	id := randx.ConnectionID()

	connLogger := logx.Logger().With().
		Str("component", "Conn").
		Str("conn_id", id).
		Str("user_id", userID).
		Logger()

	return &Conn{
		ID:        id,
		UserID:    userID,
		CreatedAt: time.Now(),
		sock:      sock,
		send:      make(chan []byte, sendQueueSize),
		done:      make(chan struct{}),
		logger:    connLogger,
	}
}

// Deliver queues one serialized event for transmission. It never blocks: a closed
// connection or a full send queue fails immediately, and the caller treats the
// failure as an implicit disconnect of this connection only.
func (c *Conn) Deliver(data []byte) error {
	select {
	case <-c.done:
		return errConnClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return errConnClosed
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Connection send queue full, dropping delivery")
		return errSendQueueFull
	}
}

// shutdown begins teardown: it cancels pending deliveries and closes the socket.
// Safe to call any number of times from any goroutine.
func (c *Conn) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)

		if c.sock != nil {
			if err := c.sock.Close(); err != nil {
				c.logger.Debug().Err(err).Msg("Connection close error during shutdown")
			}
		}
	})
}

// closeEvicted sends a custom Close Frame telling the client the server terminated
// the session, then shuts the connection down.
func (c *Conn) closeEvicted(reason string) {
	if c.sock != nil {
		c.logger.Warn().
			Int("close_code", WsCloseCodeEvicted).
			Str("reason", reason).
			Msg("Evicting connection.")

		closeMessage := websocket.FormatCloseMessage(WsCloseCodeEvicted, reason)

		// WriteControl is safe alongside the write pump.
		if err := c.sock.WriteControl(websocket.CloseMessage, closeMessage, time.Now().Add(writeWait)); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to send eviction close frame.")
		}
	}

	c.shutdown()
}

// ReadPump reads inbound client events from the WebSocket connection and hands
// them to the gateway. It handles heartbeats (Pong) and performs lifecycle
// cleanup when the connection closes. Events from one connection are processed
// sequentially; this loop is the single logical handler the concurrency model
// requires per connection.
func (c *Conn) ReadPump(g *Gateway) {
	defer g.Disconnect(c)

	c.sock.SetReadLimit(maxMessageSize)

	if err := c.sock.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading event (Client close/going away)")
			}
			break
		}

		g.handleInbound(c, raw)
	}
}

// WritePump drains the send queue onto the WebSocket connection and keeps the
// heartbeat alive with periodic Ping messages.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.shutdown()
	}()

	for {
		select {
		case data := <-c.send:
			if err := c.sock.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline")
				return
			}

			if err := c.sock.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Info().Err(err).Msg("Error writing event, closing connection")
				return
			}

		case <-ticker.C:
			if err := c.sock.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
				return
			}

			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Info().Err(err).Msg("Error writing ping, closing connection")
				return
			}

		case <-c.done:
			return
		}
	}
}
