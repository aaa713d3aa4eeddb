package store

import "time"

// User is a row in the users table.
type User struct {
	ID            string
	Username      string
	PasswordHash  string
	Nickname      string
	AvatarURL     string
	Status        string
	StatusMessage string
	LastLoginAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FriendRequest is a pending request from sender to recipient. Accepting it
// replaces the row with a friendship.
type FriendRequest struct {
	ID          string
	SenderID    string
	RecipientID string
	CreatedAt   time.Time
}

// FriendRequestWithSender decorates a request with the sender's display fields
// for the incoming-requests listing.
type FriendRequestWithSender struct {
	FriendRequest
	SenderUsername  string
	SenderNickname  string
	SenderAvatarURL string
}

// Hub is a named community containing channels and members.
type Hub struct {
	ID          string
	Name        string
	Description string
	AvatarURL   string
	OwnerID     string
	InviteCode  string
	CreatedAt   time.Time
}

// HubMemberInfo is a hub member joined with their user row.
type HubMemberInfo struct {
	User
	Role     string
	JoinedAt time.Time
}

// Channel is a named message stream inside a hub.
type Channel struct {
	ID        string
	HubID     string
	Name      string
	Topic     string
	CreatedAt time.Time
}

// Message is a chat message, either in a channel (ChannelID set) or direct
// between two users (RecipientID set). Deleted messages keep their row with
// DeletedAt set so reply targets stay resolvable.
type Message struct {
	ID            string
	SenderID      string
	ChannelID     *string
	RecipientID   *string
	Content       string
	AttachmentURL string
	ReplyTo       *string
	CreatedAt     time.Time
	EditedAt      *time.Time
	DeletedAt     *time.Time
}

// Conversation summarizes one direct-message thread for the conversation list.
type Conversation struct {
	PartnerID   string
	LastContent string
	LastAt      time.Time
}
