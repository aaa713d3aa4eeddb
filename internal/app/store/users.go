package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, password_hash, nickname, avatar_url, status,
	status_message, last_login_at, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Nickname, &u.AvatarURL,
		&u.Status, &u.StatusMessage, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CreateUser inserts a new account with a fresh ID and returns the stored row.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash, nickname string) (User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, username, password_hash, nickname)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		uuid.NewString(), username, passwordHash, nickname)
	return scanUser(row)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// ListUsersByID returns the users for the given IDs, in no particular order.
// Unknown IDs are silently omitted.
func (s *Store) ListUsersByID(ctx context.Context, ids []string) ([]User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET last_login_at = now(), updated_at = now() WHERE id = $1`, id)
	return err
}

func (s *Store) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, passwordHash)
	return err
}

// UpdateUserProfile changes the display fields of an account.
func (s *Store) UpdateUserProfile(ctx context.Context, id, nickname, avatarURL string) (User, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE users SET nickname = $2, avatar_url = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		id, nickname, avatarURL)
	return scanUser(row)
}

// SaveUserStatus writes through a presence change so the status survives a
// server restart and shows up in REST reads.
func (s *Store) SaveUserStatus(ctx context.Context, id, status, statusMessage string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET status = $2, status_message = $3, updated_at = now() WHERE id = $1`,
		id, status, statusMessage)
	return err
}
