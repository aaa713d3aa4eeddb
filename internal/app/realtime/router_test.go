package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestPublishToRoomDeliversPerConnection(t *testing.T) {
	dir := &fakeDirectory{}
	registry := NewRegistry(0)
	rooms := NewRoomSet()
	router := NewRouter(registry, rooms, dir, 100*time.Millisecond)

	aliceTab1 := newConn("alice", nil)
	aliceTab2 := newConn("alice", nil)
	aliceTab3 := newConn("alice", nil)
	bob := newConn("bob", nil)
	for _, c := range []*Conn{aliceTab1, aliceTab2, aliceTab3, bob} {
		if _, customErr := registry.Register(c); customErr != nil {
			t.Fatalf("register failed: %v", customErr)
		}
	}

	rooms.Join(aliceTab1, "general")
	rooms.Join(aliceTab2, "general")
	rooms.Join(bob, "general")
	// aliceTab3 never joins.

	router.Publish(context.Background(), Event{Kind: KindMessageNew, Payload: map[string]string{"id": "m1"}}, ToRoom("general"))

	// Both of alice's joined tabs receive the event once each.
	recvEvent(t, aliceTab1, KindMessageNew)
	recvEvent(t, aliceTab2, KindMessageNew)
	recvEvent(t, bob, KindMessageNew)
	wantNoEvent(t, aliceTab1)
	wantNoEvent(t, aliceTab2)
	wantNoEvent(t, aliceTab3)
}

func TestPublishToRoomSkipsDeparted(t *testing.T) {
	dir := &fakeDirectory{}
	registry := NewRegistry(0)
	rooms := NewRoomSet()
	router := NewRouter(registry, rooms, dir, 100*time.Millisecond)

	alice := newConn("alice", nil)
	bob := newConn("bob", nil)
	registry.Register(alice)
	registry.Register(bob)
	rooms.Join(alice, "general")
	rooms.Join(bob, "general")

	rooms.Leave(bob.ID, "general")

	router.Publish(context.Background(), Event{Kind: KindMessageNew, Payload: map[string]string{"id": "m1"}}, ToRoom("general"))

	recvEvent(t, alice, KindMessageNew)
	wantNoEvent(t, bob)
}

func TestPublishToOfflineUserIsDropped(t *testing.T) {
	dir := &fakeDirectory{}
	registry := NewRegistry(0)
	router := NewRouter(registry, NewRoomSet(), dir, 100*time.Millisecond)

	// No connections registered: nothing to deliver, nothing to fail.
	router.Publish(context.Background(), Event{Kind: KindMessageNew, Payload: map[string]string{"id": "m1"}}, ToUser("ghost"))
	router.Publish(context.Background(), Event{Kind: KindMessageNew, Payload: map[string]string{"id": "m2"}}, ToUsers("ghost", "phantom"))
}

func TestPublishToFriendsResolvesAtDeliveryTime(t *testing.T) {
	dir := &fakeDirectory{friends: map[string][]string{"alice": {"bob", "carol"}}}
	registry := NewRegistry(0)
	router := NewRouter(registry, NewRoomSet(), dir, 100*time.Millisecond)

	bob := newConn("bob", nil)
	registry.Register(bob)
	// carol is offline: her share of the fan-out is silently dropped.

	router.Publish(context.Background(), Event{
		Kind:    KindStatusUpdate,
		Payload: StatusUpdatePayload{UserID: "alice", Status: StatusOnline},
	}, ToFriendsOf("alice"))

	got := recvStatus(t, bob)
	if got.UserID != "alice" || got.Status != StatusOnline {
		t.Fatalf("status payload = %+v, want alice online", got)
	}
}

func TestDirectoryFailureDegradesToEmptyAudience(t *testing.T) {
	dir := &fakeDirectory{err: errDirectoryDown}
	registry := NewRegistry(0)
	router := NewRouter(registry, NewRoomSet(), dir, 50*time.Millisecond)

	bob := newConn("bob", nil)
	registry.Register(bob)

	// The publish neither blocks nor panics; the announcement is dropped.
	router.Publish(context.Background(), Event{
		Kind:    KindStatusUpdate,
		Payload: StatusUpdatePayload{UserID: "alice", Status: StatusOnline},
	}, ToFriendsOf("alice"))

	wantNoEvent(t, bob)
}

func TestDeliveryFailureEvictsOnlyThatConnection(t *testing.T) {
	dir := &fakeDirectory{}
	registry := NewRegistry(0)
	router := NewRouter(registry, NewRoomSet(), dir, 100*time.Millisecond)

	stuck := newConn("alice", nil)
	healthy := newConn("alice", nil)
	registry.Register(stuck)
	registry.Register(healthy)

	// Saturate the stuck connection's send queue so the next delivery fails.
	filler, err := Event{Kind: KindTyping, Payload: TypingPayload{UserID: "bob", IsTyping: true}}.Encode()
	if err != nil {
		t.Fatalf("encode filler: %v", err)
	}
	for i := 0; i < sendQueueSize; i++ {
		if err := stuck.Deliver(filler); err != nil {
			t.Fatalf("filler delivery %d failed early: %v", i, err)
		}
	}

	router.Publish(context.Background(), Event{Kind: KindMessageNew, Payload: map[string]string{"id": "m1"}}, ToUser("alice"))

	// The healthy connection still received the event.
	recvEvent(t, healthy, KindMessageNew)

	// The stuck connection is treated as disconnected (eviction is asynchronous).
	deadline := time.Now().Add(2 * time.Second)
	for len(registry.ConnectionsFor("alice")) > 1 {
		if time.Now().After(deadline) {
			t.Fatal("stuck connection never evicted")
		}
		time.Sleep(5 * time.Millisecond)
	}

	conns := registry.ConnectionsFor("alice")
	if len(conns) != 1 || conns[0].ID != healthy.ID {
		t.Fatalf("surviving connections = %v, want only the healthy one", conns)
	}
}

func TestPublishOrderingPerConnection(t *testing.T) {
	dir := &fakeDirectory{}
	registry := NewRegistry(0)
	router := NewRouter(registry, NewRoomSet(), dir, 100*time.Millisecond)

	bob := newConn("bob", nil)
	registry.Register(bob)

	for i := 0; i < 10; i++ {
		router.Publish(context.Background(), Event{Kind: KindMessageNew, Payload: map[string]int{"seq": i}}, ToUser("bob"))
	}

	for i := 0; i < 10; i++ {
		ev := recvEvent(t, bob, KindMessageNew)
		var p map[string]int
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			t.Fatalf("payload decode: %v", err)
		}
		if p["seq"] != i {
			t.Fatalf("event %d arrived with seq %d; order not preserved", i, p["seq"])
		}
	}
}
