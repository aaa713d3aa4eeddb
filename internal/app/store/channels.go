package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const channelColumns = `id, hub_id, name, topic, created_at`

func scanChannel(row pgx.Row) (Channel, error) {
	var c Channel
	err := row.Scan(&c.ID, &c.HubID, &c.Name, &c.Topic, &c.CreatedAt)
	return c, err
}

// CreateChannel inserts a channel in the hub. A duplicate name within the hub
// surfaces as a unique violation.
func (s *Store) CreateChannel(ctx context.Context, hubID, name, topic string) (Channel, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO channels (id, hub_id, name, topic)
		VALUES ($1, $2, $3, $4)
		RETURNING `+channelColumns,
		uuid.NewString(), hubID, name, topic)
	return scanChannel(row)
}

func (s *Store) GetChannelByID(ctx context.Context, id string) (Channel, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+channelColumns+` FROM channels WHERE id = $1`, id)
	return scanChannel(row)
}

// ListChannels returns the hub's channels sorted by creation order.
func (s *Store) ListChannels(ctx context.Context, hubID string) ([]Channel, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE hub_id = $1 ORDER BY created_at`, hubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}

func (s *Store) DeleteChannel(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM channels WHERE id = $1`, id)
	return err
}
