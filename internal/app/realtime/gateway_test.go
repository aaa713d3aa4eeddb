package realtime

import (
	"context"
	"encoding/json"
	"testing"
)

func TestConnectAnnouncesOnlineToFriends(t *testing.T) {
	dir := &fakeDirectory{friends: map[string][]string{
		"alice": {"bob"},
		"bob":   {"alice"},
	}}
	g := newTestGateway(dir)

	bob := mustConnect(t, g, "bob")
	// bob's own announcement went to alice, who is offline.
	wantNoEvent(t, bob)

	mustConnect(t, g, "alice")

	got := recvStatus(t, bob)
	if got.UserID != "alice" || got.Status != StatusOnline {
		t.Fatalf("announcement = %+v, want alice online", got)
	}
	wantNoEvent(t, bob)
}

func TestSecondConnectionAnnouncesNothing(t *testing.T) {
	dir := &fakeDirectory{friends: map[string][]string{
		"alice": {"bob"},
	}}
	g := newTestGateway(dir)

	bob := mustConnect(t, g, "bob")
	mustConnect(t, g, "alice")
	drainEvents(bob)

	mustConnect(t, g, "alice")
	wantNoEvent(t, bob)
}

func TestOfflineAnnouncedOnceAfterLastConnection(t *testing.T) {
	dir := &fakeDirectory{friends: map[string][]string{
		"alice": {"bob"},
	}}
	g := newTestGateway(dir)

	bob := mustConnect(t, g, "bob")
	tab1 := mustConnect(t, g, "alice")
	tab2 := mustConnect(t, g, "alice")
	drainEvents(bob)

	g.Disconnect(tab1)
	wantNoEvent(t, bob)

	g.Disconnect(tab2)
	got := recvStatus(t, bob)
	if got.UserID != "alice" || got.Status != StatusOffline {
		t.Fatalf("announcement = %+v, want alice offline", got)
	}

	// Repeated teardown of an already-closed connection announces nothing more.
	g.Disconnect(tab2)
	g.Disconnect(tab1)
	wantNoEvent(t, bob)
}

func TestExplicitStatusSurvivesExtraConnection(t *testing.T) {
	dir := &fakeDirectory{friends: map[string][]string{
		"alice": {"bob"},
	}}
	g := newTestGateway(dir)

	bob := mustConnect(t, g, "bob")
	tab1 := mustConnect(t, g, "alice")
	drainEvents(bob)

	g.handleInbound(tab1, inbound(t, inboundStatusSet, statusSetPayload{Status: "busy", StatusMessage: "in a meeting"}))

	got := recvStatus(t, bob)
	if got.Status != StatusBusy || got.StatusMessage != "in a meeting" {
		t.Fatalf("announcement = %+v, want alice busy", got)
	}

	mustConnect(t, g, "alice")
	wantNoEvent(t, bob)

	if status, _ := g.Presence().Status("alice"); status != StatusBusy {
		t.Fatalf("status after second connection = %q, want busy", status)
	}
}

func TestInvisibleAnnouncedAsOffline(t *testing.T) {
	dir := &fakeDirectory{friends: map[string][]string{
		"alice": {"bob"},
	}}
	g := newTestGateway(dir)

	bob := mustConnect(t, g, "bob")
	tab := mustConnect(t, g, "alice")
	drainEvents(bob)

	g.handleInbound(tab, inbound(t, inboundStatusSet, statusSetPayload{Status: "invisible"}))

	got := recvStatus(t, bob)
	if got.Status != StatusOffline {
		t.Fatalf("friends saw %q, want invisible masked as offline", got.Status)
	}

	// The tracker itself still holds the true status.
	if status, _ := g.Presence().Status("alice"); status != StatusInvisible {
		t.Fatalf("tracked status = %q, want invisible", status)
	}
}

func TestRoomJoinRequiresMembership(t *testing.T) {
	dir := &fakeDirectory{members: map[string][]string{
		"general": {"alice", "bob"},
	}}
	g := newTestGateway(dir)

	alice := mustConnect(t, g, "alice")
	mallory := mustConnect(t, g, "mallory")

	g.handleInbound(alice, inbound(t, inboundRoomJoin, roomPayload{RoomID: "general"}))
	g.handleInbound(mallory, inbound(t, inboundRoomJoin, roomPayload{RoomID: "general"}))

	g.Router().Publish(context.Background(), Event{Kind: KindMessageNew, Payload: map[string]string{"id": "m1"}}, ToRoom("general"))

	recvEvent(t, alice, KindMessageNew)
	wantNoEvent(t, mallory)
}

func TestRoomJoinRejectedWhenDirectoryDown(t *testing.T) {
	dir := &fakeDirectory{err: errDirectoryDown}
	g := newTestGateway(dir)

	alice := mustConnect(t, g, "alice")
	g.handleInbound(alice, inbound(t, inboundRoomJoin, roomPayload{RoomID: "general"}))

	dir.err = nil
	dir.members = map[string][]string{"general": {"alice"}}

	g.Router().Publish(context.Background(), Event{Kind: KindMessageNew, Payload: map[string]string{"id": "m1"}}, ToRoom("general"))
	wantNoEvent(t, alice)
}

func TestRoomLeaveStopsDelivery(t *testing.T) {
	dir := &fakeDirectory{members: map[string][]string{
		"general": {"alice"},
	}}
	g := newTestGateway(dir)

	alice := mustConnect(t, g, "alice")
	g.handleInbound(alice, inbound(t, inboundRoomJoin, roomPayload{RoomID: "general"}))
	g.handleInbound(alice, inbound(t, inboundRoomLeave, roomPayload{RoomID: "general"}))

	g.Router().Publish(context.Background(), Event{Kind: KindMessageNew, Payload: map[string]string{"id": "m1"}}, ToRoom("general"))
	wantNoEvent(t, alice)
}

func TestDisconnectLeavesRooms(t *testing.T) {
	dir := &fakeDirectory{members: map[string][]string{
		"general": {"alice", "bob"},
	}}
	g := newTestGateway(dir)

	alice := mustConnect(t, g, "alice")
	bob := mustConnect(t, g, "bob")
	g.handleInbound(alice, inbound(t, inboundRoomJoin, roomPayload{RoomID: "general"}))
	g.handleInbound(bob, inbound(t, inboundRoomJoin, roomPayload{RoomID: "general"}))

	g.Disconnect(alice)

	g.Router().Publish(context.Background(), Event{Kind: KindMessageNew, Payload: map[string]string{"id": "m1"}}, ToRoom("general"))
	recvEvent(t, bob, KindMessageNew)
}

func TestTypingRoutedToChannelRoom(t *testing.T) {
	dir := &fakeDirectory{members: map[string][]string{
		"ch-1": {"alice", "bob"},
	}}
	g := newTestGateway(dir)

	alice := mustConnect(t, g, "alice")
	bob := mustConnect(t, g, "bob")
	g.handleInbound(bob, inbound(t, inboundRoomJoin, roomPayload{RoomID: "ch-1"}))

	g.handleInbound(alice, inbound(t, inboundTyping, typingIndicatorPayload{ChannelID: "ch-1", IsTyping: true}))

	ev := recvEvent(t, bob, KindTyping)
	var p TypingPayload
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		t.Fatalf("typing payload decode: %v", err)
	}
	if p.UserID != "alice" || p.ChannelID != "ch-1" || !p.IsTyping {
		t.Fatalf("typing payload = %+v, want alice typing in ch-1", p)
	}
}

func TestTypingRoutedToRecipient(t *testing.T) {
	dir := &fakeDirectory{}
	g := newTestGateway(dir)

	alice := mustConnect(t, g, "alice")
	bob := mustConnect(t, g, "bob")

	g.handleInbound(alice, inbound(t, inboundTyping, typingIndicatorPayload{RecipientID: "bob", IsTyping: true}))

	recvEvent(t, bob, KindTyping)
	wantNoEvent(t, alice)
}

func TestMalformedInboundKeepsConnectionUsable(t *testing.T) {
	dir := &fakeDirectory{members: map[string][]string{
		"general": {"alice"},
	}}
	g := newTestGateway(dir)

	alice := mustConnect(t, g, "alice")

	g.handleInbound(alice, []byte("{not json"))
	g.handleInbound(alice, inbound(t, "no.such.event", map[string]string{}))
	g.handleInbound(alice, inbound(t, inboundStatusSet, statusSetPayload{Status: "levitating"}))

	// The connection still works after every dropped event.
	g.handleInbound(alice, inbound(t, inboundRoomJoin, roomPayload{RoomID: "general"}))
	g.Router().Publish(context.Background(), Event{Kind: KindMessageNew, Payload: map[string]string{"id": "m1"}}, ToRoom("general"))
	recvEvent(t, alice, KindMessageNew)
}

func TestInboundEventCountsAsActivity(t *testing.T) {
	dir := &fakeDirectory{friends: map[string][]string{
		"alice": {"bob"},
	}}
	g := newTestGateway(dir)

	bob := mustConnect(t, g, "bob")
	alice := mustConnect(t, g, "alice")
	drainEvents(bob)

	// Demote alice to idle, then any inbound event promotes her back.
	g.Presence().SetStatus("alice", StatusIdle, "")
	drainEvents(bob)

	g.handleInbound(alice, inbound(t, inboundTyping, typingIndicatorPayload{RecipientID: "bob", IsTyping: true}))

	got := recvStatus(t, bob)
	if got.UserID != "alice" || got.Status != StatusOnline {
		t.Fatalf("announcement = %+v, want alice promoted back online", got)
	}
}
