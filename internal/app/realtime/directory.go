package realtime

import "context"

// Directory is the external lookup collaborator that answers "who are this user's
// friends" and "who belongs to this room". The router and gateway resolve audiences
// through it at delivery time; implementations are expected to honor the context
// deadline, and callers always pass a bounded one.
type Directory interface {
	// FriendsOf returns the user ids of the given user's accepted friends.
	FriendsOf(ctx context.Context, userID string) ([]string, error)

	// MembersOf returns the user ids allowed in the given broadcast room.
	MembersOf(ctx context.Context, roomID string) ([]string, error)
}
