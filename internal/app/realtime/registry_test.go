package realtime

import (
	"testing"

	"hubchat/internal/pkg/errs"
)

// checkOnlineInvariant verifies that IsOnline agrees with ConnectionsFor after
// every mutation.
func checkOnlineInvariant(t *testing.T, r *Registry, userID string) {
	t.Helper()

	online := r.IsOnline(userID)
	conns := r.ConnectionsFor(userID)
	if online != (len(conns) > 0) {
		t.Fatalf("IsOnline(%q)=%v but ConnectionsFor returned %d connections", userID, online, len(conns))
	}
}

func TestRegistryRegisterDeregister(t *testing.T) {
	r := NewRegistry(0)

	checkOnlineInvariant(t, r, "alice")
	if r.IsOnline("alice") {
		t.Fatal("user online before any registration")
	}

	c1 := newConn("alice", nil)
	first, customErr := r.Register(c1)
	if customErr != nil {
		t.Fatalf("register failed: %v", customErr)
	}
	if !first {
		t.Fatal("first registration not reported as first")
	}
	checkOnlineInvariant(t, r, "alice")

	c2 := newConn("alice", nil)
	first, customErr = r.Register(c2)
	if customErr != nil {
		t.Fatalf("second register failed: %v", customErr)
	}
	if first {
		t.Fatal("second registration reported as first")
	}
	if got := len(r.ConnectionsFor("alice")); got != 2 {
		t.Fatalf("ConnectionsFor returned %d connections, want 2", got)
	}
	checkOnlineInvariant(t, r, "alice")

	existed, userLeft := r.Deregister(c1.ID)
	if !existed || userLeft {
		t.Fatalf("first deregister: existed=%v userLeft=%v, want true/false", existed, userLeft)
	}
	if !r.IsOnline("alice") {
		t.Fatal("user offline while one connection remains")
	}
	checkOnlineInvariant(t, r, "alice")

	existed, userLeft = r.Deregister(c2.ID)
	if !existed || !userLeft {
		t.Fatalf("last deregister: existed=%v userLeft=%v, want true/true", existed, userLeft)
	}
	if r.IsOnline("alice") {
		t.Fatal("user still online after last connection closed")
	}
	checkOnlineInvariant(t, r, "alice")
}

func TestRegistryDeregisterIdempotent(t *testing.T) {
	r := NewRegistry(0)

	c := newConn("alice", nil)
	if _, customErr := r.Register(c); customErr != nil {
		t.Fatalf("register failed: %v", customErr)
	}

	if existed, _ := r.Deregister(c.ID); !existed {
		t.Fatal("first deregister did not find the connection")
	}

	// Removing an already-removed id is a no-op, not an error.
	existed, userLeft := r.Deregister(c.ID)
	if existed || userLeft {
		t.Fatalf("repeat deregister: existed=%v userLeft=%v, want false/false", existed, userLeft)
	}

	if existed, _ := r.Deregister("never-registered"); existed {
		t.Fatal("deregister of unknown id reported a removal")
	}
}

func TestRegistryCapacity(t *testing.T) {
	r := NewRegistry(2)

	for i := 0; i < 2; i++ {
		if _, customErr := r.Register(newConn("alice", nil)); customErr != nil {
			t.Fatalf("register %d failed: %v", i, customErr)
		}
	}

	_, customErr := r.Register(newConn("bob", nil))
	if customErr == nil {
		t.Fatal("registration beyond capacity succeeded")
	}
	if customErr.Code != errs.ErrResourceExhausted {
		t.Fatalf("rejection code = %d, want %d", customErr.Code, errs.ErrResourceExhausted)
	}

	// Existing connections are unaffected by the rejection.
	if !r.IsOnline("alice") {
		t.Fatal("existing user knocked offline by a rejected registration")
	}
	if r.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", r.Count())
	}
}
