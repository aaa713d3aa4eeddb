/*
Package directory adapts the persistence layer to the relationship lookups the
realtime core needs: who is friends with whom, and who belongs to which room.
*/
package directory

import (
	"context"

	"hubchat/internal/app/store"
)

// StoreDirectory answers friend and room membership queries from PostgreSQL.
// Room IDs are channel IDs; a room's members are the members of the hub the
// channel belongs to.
type StoreDirectory struct {
	store *store.Store
}

// New constructs a directory over the store.
func New(s *store.Store) *StoreDirectory {
	return &StoreDirectory{store: s}
}

// FriendsOf returns the IDs of every friend of the user.
func (d *StoreDirectory) FriendsOf(ctx context.Context, userID string) ([]string, error) {
	return d.store.ListFriendIDs(ctx, userID)
}

// MembersOf returns the IDs of every user allowed in the room. The channel is
// resolved to its hub first; an unknown channel surfaces as an error.
func (d *StoreDirectory) MembersOf(ctx context.Context, roomID string) ([]string, error) {
	channel, err := d.store.GetChannelByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return d.store.ListHubMemberIDs(ctx, channel.HubID)
}
