package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// fakeDirectory is an in-memory Directory used by the package tests.
type fakeDirectory struct {
	friends map[string][]string
	members map[string][]string
	err     error
}

func (d *fakeDirectory) FriendsOf(_ context.Context, userID string) ([]string, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.friends[userID], nil
}

func (d *fakeDirectory) MembersOf(_ context.Context, roomID string) ([]string, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.members[roomID], nil
}

var errDirectoryDown = errors.New("directory down")

// newTestGateway wires a full core (registry, tracker, rooms, router, gateway)
// over the fake directory, with the production status announcer and no
// persistence write-through.
func newTestGateway(dir *fakeDirectory) *Gateway {
	registry := NewRegistry(0)
	rooms := NewRoomSet()
	router := NewRouter(registry, rooms, dir, 100*time.Millisecond)
	tracker := NewTracker(5*time.Minute, time.Minute, StatusAnnouncer(router, nil))
	return NewGateway(registry, tracker, rooms, router, dir, 100*time.Millisecond)
}

// wireEvent mirrors the outbound envelope for decoding in assertions.
type wireEvent struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// recvEvent pops the next queued event from the connection and fails the test
// if none is pending or the kind does not match.
func recvEvent(t *testing.T, c *Conn, want Kind) wireEvent {
	t.Helper()

	select {
	case data := <-c.send:
		var ev wireEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("received invalid event envelope: %v", err)
		}
		if ev.Type != want {
			t.Fatalf("received event kind %q, want %q", ev.Type, want)
		}
		return ev
	default:
		t.Fatalf("no event pending, want %q", want)
		return wireEvent{}
	}
}

// recvStatus decodes the next pending event as a status.update payload.
func recvStatus(t *testing.T, c *Conn) StatusUpdatePayload {
	t.Helper()

	ev := recvEvent(t, c, KindStatusUpdate)

	var p StatusUpdatePayload
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		t.Fatalf("invalid status.update payload: %v", err)
	}
	return p
}

// wantNoEvent fails the test if the connection has a pending event.
func wantNoEvent(t *testing.T, c *Conn) {
	t.Helper()

	select {
	case data := <-c.send:
		t.Fatalf("unexpected pending event: %s", data)
	default:
	}
}

// drainEvents discards every pending event on the connection.
func drainEvents(c *Conn) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}

// mustConnect registers a socketless connection for the user and fails the test
// on registry rejection.
func mustConnect(t *testing.T, g *Gateway, userID string) *Conn {
	t.Helper()

	c, customErr := g.Connect(userID, nil)
	if customErr != nil {
		t.Fatalf("Connect(%q) rejected: %v", userID, customErr)
	}
	return c
}

// inbound builds a raw inbound envelope for handleInbound-driven tests.
func inbound(t *testing.T, eventType string, payload any) []byte {
	t.Helper()

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal inbound payload: %v", err)
	}

	env, err := json.Marshal(map[string]json.RawMessage{
		"type":    json.RawMessage(`"` + eventType + `"`),
		"payload": raw,
	})
	if err != nil {
		t.Fatalf("marshal inbound envelope: %v", err)
	}
	return env
}
