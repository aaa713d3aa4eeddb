/*
Package realtime contains the core logic for presence tracking and real-time event
fan-out.

This file defines the RoomSet struct: lightweight tracking of which connections are
subscribed to which broadcast rooms. It keeps a forward room→connections index for
fan-out and a reverse connection→rooms index so disconnect cleanup is proportional
to the connection's own memberships. It performs no authorization; callers check
that before joining.
*/
package realtime

import "sync"

// RoomSet tracks room subscriptions per connection. Join and leave are idempotent,
// and membership dies with the connection.
type RoomSet struct {
	// mu protects both indexes; they are always mutated together.
	mu sync.RWMutex

	// byRoom maps room id → connection id → connection (forward index, fan-out).
	byRoom map[string]map[string]*Conn

	// byConn maps connection id → set of room ids (reverse index, cleanup).
	byConn map[string]map[string]struct{}
}

// NewRoomSet constructs an empty room membership index.
func NewRoomSet() *RoomSet {
	return &RoomSet{
		byRoom: make(map[string]map[string]*Conn),
		byConn: make(map[string]map[string]struct{}),
	}
}

// Join subscribes a connection to a room. Joining a room the connection already
// belongs to is a no-op.
func (rs *RoomSet) Join(c *Conn, roomID string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	room := rs.byRoom[roomID]
	if room == nil {
		room = make(map[string]*Conn)
		rs.byRoom[roomID] = room
	}
	room[c.ID] = c

	rooms := rs.byConn[c.ID]
	if rooms == nil {
		rooms = make(map[string]struct{})
		rs.byConn[c.ID] = rooms
	}
	rooms[roomID] = struct{}{}
}

// Leave removes a connection from a room. Leaving a room the connection is not in
// is a no-op.
func (rs *RoomSet) Leave(connID, roomID string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.leaveLocked(connID, roomID)
}

// LeaveAll removes the connection from every room it had joined. Called by the
// lifecycle layer on disconnect; idempotent.
func (rs *RoomSet) LeaveAll(connID string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	for roomID := range rs.byConn[connID] {
		rs.leaveLocked(connID, roomID)
	}
}

// leaveLocked removes one membership from both indexes. Caller holds mu.
func (rs *RoomSet) leaveLocked(connID, roomID string) {
	if room, ok := rs.byRoom[roomID]; ok {
		delete(room, connID)
		if len(room) == 0 {
			delete(rs.byRoom, roomID)
		}
	}

	if rooms, ok := rs.byConn[connID]; ok {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(rs.byConn, connID)
		}
	}
}

// Connections returns a snapshot of every connection currently joined to the room.
// No per-user deduplication: room delivery is per-connection.
func (rs *RoomSet) Connections(roomID string) []*Conn {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	room := rs.byRoom[roomID]
	if len(room) == 0 {
		return nil
	}

	snapshot := make([]*Conn, 0, len(room))
	for _, c := range room {
		snapshot = append(snapshot, c)
	}
	return snapshot
}

// Rooms returns the ids of every room the connection is joined to.
func (rs *RoomSet) Rooms(connID string) []string {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	rooms := rs.byConn[connID]
	if len(rooms) == 0 {
		return nil
	}

	result := make([]string, 0, len(rooms))
	for roomID := range rooms {
		result = append(result, roomID)
	}
	return result
}
