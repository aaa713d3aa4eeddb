package realtime

import "testing"

func TestRoomSetJoinLeave(t *testing.T) {
	rs := NewRoomSet()
	c := newConn("alice", nil)

	rs.Join(c, "general")
	rs.Join(c, "general") // idempotent

	if got := len(rs.Connections("general")); got != 1 {
		t.Fatalf("room has %d connections after double join, want 1", got)
	}
	if got := rs.Rooms(c.ID); len(got) != 1 || got[0] != "general" {
		t.Fatalf("Rooms = %v, want [general]", got)
	}

	rs.Leave(c.ID, "general")
	rs.Leave(c.ID, "general") // idempotent

	if got := len(rs.Connections("general")); got != 0 {
		t.Fatalf("room has %d connections after leave, want 0", got)
	}
	if got := rs.Rooms(c.ID); got != nil {
		t.Fatalf("Rooms = %v after leave, want none", got)
	}
}

func TestRoomSetLeaveAll(t *testing.T) {
	rs := NewRoomSet()
	c := newConn("alice", nil)
	other := newConn("bob", nil)

	rs.Join(c, "general")
	rs.Join(c, "random")
	rs.Join(other, "general")

	rs.LeaveAll(c.ID)

	if got := rs.Rooms(c.ID); got != nil {
		t.Fatalf("Rooms = %v after LeaveAll, want none", got)
	}
	if got := len(rs.Connections("general")); got != 1 {
		t.Fatalf("general has %d connections, want bob's 1", got)
	}
	if got := len(rs.Connections("random")); got != 0 {
		t.Fatalf("random has %d connections, want 0", got)
	}

	// LeaveAll for a connection with no memberships is a no-op.
	rs.LeaveAll(c.ID)
	rs.LeaveAll("never-joined")
}

func TestRoomSetTracksConnectionsNotUsers(t *testing.T) {
	rs := NewRoomSet()
	tab1 := newConn("alice", nil)
	tab2 := newConn("alice", nil)

	rs.Join(tab1, "general")
	rs.Join(tab2, "general")

	// Two tabs of one user are two independent memberships.
	if got := len(rs.Connections("general")); got != 2 {
		t.Fatalf("room has %d connections, want 2", got)
	}

	rs.Leave(tab1.ID, "general")

	conns := rs.Connections("general")
	if len(conns) != 1 || conns[0].ID != tab2.ID {
		t.Fatalf("remaining membership is wrong: %v", conns)
	}
}
