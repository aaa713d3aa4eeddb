package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateFriendRequest records a pending request from sender to recipient.
// A duplicate pair surfaces as a unique violation.
func (s *Store) CreateFriendRequest(ctx context.Context, senderID, recipientID string) (FriendRequest, error) {
	var fr FriendRequest
	err := s.pool.QueryRow(ctx, `
		INSERT INTO friend_requests (id, sender_id, recipient_id)
		VALUES ($1, $2, $3)
		RETURNING id, sender_id, recipient_id, created_at`,
		uuid.NewString(), senderID, recipientID).
		Scan(&fr.ID, &fr.SenderID, &fr.RecipientID, &fr.CreatedAt)
	return fr, err
}

func (s *Store) GetFriendRequest(ctx context.Context, id string) (FriendRequest, error) {
	var fr FriendRequest
	err := s.pool.QueryRow(ctx, `
		SELECT id, sender_id, recipient_id, created_at
		FROM friend_requests WHERE id = $1`, id).
		Scan(&fr.ID, &fr.SenderID, &fr.RecipientID, &fr.CreatedAt)
	return fr, err
}

// ListIncomingFriendRequests returns the pending requests addressed to the
// user, newest first, with the sender's display fields attached.
func (s *Store) ListIncomingFriendRequests(ctx context.Context, recipientID string) ([]FriendRequestWithSender, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT fr.id, fr.sender_id, fr.recipient_id, fr.created_at,
		       u.username, u.nickname, u.avatar_url
		FROM friend_requests fr
		JOIN users u ON u.id = fr.sender_id
		WHERE fr.recipient_id = $1
		ORDER BY fr.created_at DESC`, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []FriendRequestWithSender
	for rows.Next() {
		var fr FriendRequestWithSender
		if err := rows.Scan(&fr.ID, &fr.SenderID, &fr.RecipientID, &fr.CreatedAt,
			&fr.SenderUsername, &fr.SenderNickname, &fr.SenderAvatarURL); err != nil {
			return nil, err
		}
		requests = append(requests, fr)
	}
	return requests, rows.Err()
}

func (s *Store) DeleteFriendRequest(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM friend_requests WHERE id = $1`, id)
	return err
}

// AcceptFriendRequest atomically removes the request and inserts the
// friendship in both directions. Returns the accepted request so the caller
// can notify both sides.
func (s *Store) AcceptFriendRequest(ctx context.Context, id string) (FriendRequest, error) {
	var fr FriendRequest
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			DELETE FROM friend_requests WHERE id = $1
			RETURNING id, sender_id, recipient_id, created_at`, id).
			Scan(&fr.ID, &fr.SenderID, &fr.RecipientID, &fr.CreatedAt); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO friendships (user_id, friend_id)
			VALUES ($1, $2), ($2, $1)
			ON CONFLICT DO NOTHING`,
			fr.SenderID, fr.RecipientID)
		return err
	})
	return fr, err
}

// AreFriends reports whether a symmetric friendship row exists.
func (s *Store) AreFriends(ctx context.Context, userID, otherID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM friendships WHERE user_id = $1 AND friend_id = $2
		)`, userID, otherID).Scan(&exists)
	return exists, err
}

// ListFriendIDs returns the IDs of every friend of the user.
func (s *Store) ListFriendIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT friend_id FROM friendships WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListFriends returns the user rows of every friend, sorted by nickname.
func (s *Store) ListFriends(ctx context.Context, userID string) ([]User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT u.id, u.username, u.password_hash, u.nickname, u.avatar_url, u.status,
		       u.status_message, u.last_login_at, u.created_at, u.updated_at
		FROM friendships f
		JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = $1
		ORDER BY u.nickname, u.username`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var friends []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		friends = append(friends, u)
	}
	return friends, rows.Err()
}

// RemoveFriend deletes the friendship in both directions.
func (s *Store) RemoveFriend(ctx context.Context, userID, friendID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM friendships
		WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)`,
		userID, friendID)
	return err
}
