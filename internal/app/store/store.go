/*
Package store provides the persistence layer over PostgreSQL.

It exposes one Store type whose methods map to the queries the handlers need:
users and credentials, friendships and friend requests, hubs with their members
and channels, and channel plus direct messages. Queries are written by hand
against pgx; callers detect missing rows with errors.Is(err, pgx.ErrNoRows).
*/
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps the connection pool with typed query methods.
type Store struct {
	pool *pgxpool.Pool
}

// New constructs a Store over an established connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// withTx runs fn inside a transaction, committing on success and rolling back
// on error.
func (s *Store) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
