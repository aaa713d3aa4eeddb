package store

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"hubchat/internal/pkg/randx"
)

const messageColumns = `id, sender_id, channel_id, recipient_id, content,
	attachment_url, reply_to, created_at, edited_at, deleted_at`

func scanMessage(row pgx.Row) (Message, error) {
	var m Message
	err := row.Scan(&m.ID, &m.SenderID, &m.ChannelID, &m.RecipientID, &m.Content,
		&m.AttachmentURL, &m.ReplyTo, &m.CreatedAt, &m.EditedAt, &m.DeletedAt)
	return m, err
}

// CreateChannelMessage stores a new message in a hub channel.
func (s *Store) CreateChannelMessage(ctx context.Context, senderID, channelID, content, attachmentURL string, replyTo *string) (Message, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO messages (id, sender_id, channel_id, content, attachment_url, reply_to)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+messageColumns,
		randx.MessageID(), senderID, channelID, content, attachmentURL, replyTo)
	return scanMessage(row)
}

// CreateDirectMessage stores a new direct message between two users.
func (s *Store) CreateDirectMessage(ctx context.Context, senderID, recipientID, content, attachmentURL string, replyTo *string) (Message, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO messages (id, sender_id, recipient_id, content, attachment_url, reply_to)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+messageColumns,
		randx.MessageID(), senderID, recipientID, content, attachmentURL, replyTo)
	return scanMessage(row)
}

func (s *Store) GetMessageByID(ctx context.Context, id string) (Message, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id)
	return scanMessage(row)
}

// ListChannelMessages pages backwards through a channel's history: messages
// strictly older than before, newest first, at most limit rows. Soft-deleted
// messages are skipped.
func (s *Store) ListChannelMessages(ctx context.Context, channelID string, before time.Time, limit int) ([]Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE channel_id = $1 AND created_at < $2 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $3`, channelID, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMessages(rows)
}

// ListDirectMessages pages backwards through the direct thread between two
// users, newest first.
func (s *Store) ListDirectMessages(ctx context.Context, userID, partnerID string, before time.Time, limit int) ([]Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE recipient_id IS NOT NULL
		  AND ((sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1))
		  AND created_at < $3 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $4`, userID, partnerID, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMessages(rows)
}

// ListConversations returns one entry per direct-message partner of the user,
// carrying the latest message of each thread, most recent thread first.
func (s *Store) ListConversations(ctx context.Context, userID string) ([]Conversation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT ON (CASE WHEN sender_id = $1 THEN recipient_id ELSE sender_id END)
		       CASE WHEN sender_id = $1 THEN recipient_id ELSE sender_id END AS partner_id,
		       content, created_at
		FROM messages
		WHERE recipient_id IS NOT NULL AND deleted_at IS NULL
		  AND (sender_id = $1 OR recipient_id = $1)
		ORDER BY CASE WHEN sender_id = $1 THEN recipient_id ELSE sender_id END,
		         created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.PartnerID, &c.LastContent, &c.LastAt); err != nil {
			return nil, err
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// DISTINCT ON fixes the row order by partner; resort by recency.
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].LastAt.After(conversations[j].LastAt)
	})
	return conversations, nil
}

// UpdateMessageContent edits a message in place and stamps edited_at.
func (s *Store) UpdateMessageContent(ctx context.Context, id, content string) (Message, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE messages SET content = $2, edited_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+messageColumns,
		id, content)
	return scanMessage(row)
}

// SoftDeleteMessage blanks the message and stamps deleted_at, keeping the row
// so replies that reference it stay valid.
func (s *Store) SoftDeleteMessage(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE messages SET content = '', attachment_url = '', deleted_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	return err
}

func collectMessages(rows pgx.Rows) ([]Message, error) {
	var messages []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
