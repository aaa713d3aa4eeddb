package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const hubColumns = `id, name, description, avatar_url, owner_id, invite_code, created_at`

func scanHub(row pgx.Row) (Hub, error) {
	var h Hub
	err := row.Scan(&h.ID, &h.Name, &h.Description, &h.AvatarURL, &h.OwnerID,
		&h.InviteCode, &h.CreatedAt)
	return h, err
}

// CreateHub atomically inserts the hub, enrolls the owner, and creates the
// default "general" channel.
func (s *Store) CreateHub(ctx context.Context, name, description, ownerID, inviteCode string) (Hub, error) {
	var h Hub
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO hubs (id, name, description, owner_id, invite_code)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+hubColumns,
			uuid.NewString(), name, description, ownerID, inviteCode)

		var err error
		if h, err = scanHub(row); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO hub_members (hub_id, user_id, role)
			VALUES ($1, $2, 'owner')`, h.ID, ownerID); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO channels (id, hub_id, name)
			VALUES ($1, $2, 'general')`, uuid.NewString(), h.ID)
		return err
	})
	return h, err
}

func (s *Store) GetHubByID(ctx context.Context, id string) (Hub, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+hubColumns+` FROM hubs WHERE id = $1`, id)
	return scanHub(row)
}

func (s *Store) GetHubByInviteCode(ctx context.Context, inviteCode string) (Hub, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+hubColumns+` FROM hubs WHERE invite_code = $1`, inviteCode)
	return scanHub(row)
}

// ListHubsForUser returns every hub the user is a member of, oldest joined
// first.
func (s *Store) ListHubsForUser(ctx context.Context, userID string) ([]Hub, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT h.id, h.name, h.description, h.avatar_url, h.owner_id, h.invite_code, h.created_at
		FROM hub_members m
		JOIN hubs h ON h.id = m.hub_id
		WHERE m.user_id = $1
		ORDER BY m.joined_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hubs []Hub
	for rows.Next() {
		h, err := scanHub(rows)
		if err != nil {
			return nil, err
		}
		hubs = append(hubs, h)
	}
	return hubs, rows.Err()
}

// AddHubMember enrolls the user. Joining twice surfaces as a unique violation.
func (s *Store) AddHubMember(ctx context.Context, hubID, userID string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO hub_members (hub_id, user_id) VALUES ($1, $2)`, hubID, userID)
	return err
}

func (s *Store) RemoveHubMember(ctx context.Context, hubID, userID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM hub_members WHERE hub_id = $1 AND user_id = $2`, hubID, userID)
	return err
}

func (s *Store) IsHubMember(ctx context.Context, hubID, userID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM hub_members WHERE hub_id = $1 AND user_id = $2
		)`, hubID, userID).Scan(&exists)
	return exists, err
}

// ListHubMemberIDs returns the IDs of every member of the hub.
func (s *Store) ListHubMemberIDs(ctx context.Context, hubID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id FROM hub_members WHERE hub_id = $1`, hubID)
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

// ListHubMembers returns every member with their user row and hub role.
func (s *Store) ListHubMembers(ctx context.Context, hubID string) ([]HubMemberInfo, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT u.id, u.username, u.password_hash, u.nickname, u.avatar_url, u.status,
		       u.status_message, u.last_login_at, u.created_at, u.updated_at,
		       m.role, m.joined_at
		FROM hub_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.hub_id = $1
		ORDER BY m.joined_at`, hubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []HubMemberInfo
	for rows.Next() {
		var mi HubMemberInfo
		if err := rows.Scan(&mi.ID, &mi.Username, &mi.PasswordHash, &mi.Nickname, &mi.AvatarURL,
			&mi.Status, &mi.StatusMessage, &mi.LastLoginAt, &mi.CreatedAt, &mi.UpdatedAt,
			&mi.Role, &mi.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, mi)
	}
	return members, rows.Err()
}

// DeleteHub removes the hub; members, channels, and channel messages go with
// it through the cascading foreign keys.
func (s *Store) DeleteHub(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM hubs WHERE id = $1`, id)
	return err
}
