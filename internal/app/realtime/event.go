/*
Package realtime contains the core logic for presence tracking and real-time event
fan-out: the connection registry, the presence tracker, room membership bookkeeping,
the event router, and the WebSocket connection lifecycle.

This file defines the typed outbound event model: event kinds, payload structures,
the audience specifier used to resolve recipients, and the tagged wire envelope.
*/
package realtime

import "encoding/json"

// Kind identifies one outbound event type in the server → client taxonomy.
type Kind string

const (
	// KindStatusUpdate announces a change of a user's availability status.
	KindStatusUpdate Kind = "status.update"

	// KindTyping announces that a user started or stopped typing.
	KindTyping Kind = "typing"

	// KindMessageNew announces a newly created chat message.
	KindMessageNew Kind = "message.new"

	// KindMessageUpdate announces an edit to an existing chat message.
	KindMessageUpdate Kind = "message.update"

	// KindMessageDelete announces the deletion of a chat message.
	KindMessageDelete Kind = "message.delete"

	// KindMembershipUpdate announces a friendship or hub membership change.
	KindMembershipUpdate Kind = "membership.update"
)

// Event is an immutable value describing one fan-out action. It is created by a
// caller, consumed exactly once by the Router, and never persisted. The payload
// is opaque to the router; it is serialized as-is into the wire envelope.
type Event struct {
	Kind    Kind
	Payload any
}

// envelope is the tagged wire format every outbound event is wrapped in.
type envelope struct {
	Type    Kind `json:"type"`
	Payload any  `json:"payload"`
}

// Encode serializes the event into its tagged {type, payload} wire envelope.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(envelope{Type: e.Kind, Payload: e.Payload})
}

// StatusUpdatePayload is the payload of a status.update event.
type StatusUpdatePayload struct {
	UserID        string `json:"userId"`
	Status        Status `json:"status"`
	StatusMessage string `json:"statusMessage,omitempty"`
}

// TypingPayload is the payload of a typing event. Exactly one of ChannelID and
// RecipientID is set, mirroring the inbound indicator that produced it.
type TypingPayload struct {
	UserID      string `json:"userId"`
	ChannelID   string `json:"channelId,omitempty"`
	RecipientID string `json:"recipientId,omitempty"`
	IsTyping    bool   `json:"isTyping"`
}

// MembershipUpdatePayload is the payload of a membership.update event. Scope
// is "friend" or "hub"; Action is "added" or "removed".
type MembershipUpdatePayload struct {
	Scope  string `json:"scope"`
	Action string `json:"action"`
	UserID string `json:"userId"`
	HubID  string `json:"hubId,omitempty"`
}

// audienceKind discriminates the Audience variants.
type audienceKind int

const (
	audienceUser audienceKind = iota
	audienceUsers
	audienceRoom
	audienceFriends
)

// Audience specifies which users or connections an outbound event should reach.
// It is a tagged value: one user id, an explicit set of user ids, every connection
// joined to a room, or the friends of a user as resolved by the directory
// collaborator at delivery time.
type Audience struct {
	kind    audienceKind
	userID  string
	userIDs []string
	roomID  string
}

// ToUser targets every live connection of a single user.
func ToUser(userID string) Audience {
	return Audience{kind: audienceUser, userID: userID}
}

// ToUsers targets every live connection of each listed user.
func ToUsers(userIDs ...string) Audience {
	return Audience{kind: audienceUsers, userIDs: userIDs}
}

// ToRoom targets every connection currently joined to the given room. Delivery is
// per-connection: a user with two tabs in the room receives the event twice.
func ToRoom(roomID string) Audience {
	return Audience{kind: audienceRoom, roomID: roomID}
}

// ToFriendsOf targets the friends of the given user. The friend set is resolved
// through the directory collaborator when the event is published, never cached.
func ToFriendsOf(userID string) Audience {
	return Audience{kind: audienceFriends, userID: userID}
}
