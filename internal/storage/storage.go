// Package storage is the relational data-access layer over Postgres. Flows
// consume it through narrow interfaces; this package owns the SQL.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("storage: not found")

// Store executes queries against the clinic database.
type Store struct {
	db *sqlx.DB
}

// New wraps a connected database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// EnsureUser registers a Telegram user on first contact. Repeated calls are
// cheap and only append a profile snapshot when the details changed.
func (s *Store) EnsureUser(ctx context.Context, tgUID int64, username, fullName string) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := s.getOrCreateUser(ctx, tx, tgUID, username, fullName, "")
		return err
	})
}

// getOrCreateUser resolves a Telegram uid to the internal user id, creating
// the user on first contact and recording a profile snapshot when the known
// details changed.
func (s *Store) getOrCreateUser(ctx context.Context, tx *sqlx.Tx, tgUID int64, username, fullName, phone string) (int64, error) {
	var userID int64
	err := tx.GetContext(ctx, &userID, `SELECT id FROM users WHERE tg_uid = $1`, tgUID)
	if errors.Is(err, sql.ErrNoRows) {
		if err := tx.GetContext(ctx, &userID,
			`INSERT INTO users (tg_uid) VALUES ($1) RETURNING id`, tgUID); err != nil {
			return 0, fmt.Errorf("insert user: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_profiles (user_id, username, full_name, phone) VALUES ($1, $2, $3, $4)`,
			userID, nullable(username), nullable(fullName), nullable(phone)); err != nil {
			return 0, fmt.Errorf("insert profile: %w", err)
		}
		return userID, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select user: %w", err)
	}

	var exists bool
	err = tx.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM user_profiles
			WHERE user_id = $1
			  AND username IS NOT DISTINCT FROM $2
			  AND full_name IS NOT DISTINCT FROM $3
			  AND phone IS NOT DISTINCT FROM $4
		)`, userID, nullable(username), nullable(fullName), nullable(phone))
	if err != nil {
		return 0, fmt.Errorf("check profile: %w", err)
	}
	if !exists {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_profiles (user_id, username, full_name, phone) VALUES ($1, $2, $3, $4)`,
			userID, nullable(username), nullable(fullName), nullable(phone)); err != nil {
			return 0, fmt.Errorf("insert profile: %w", err)
		}
	}
	return userID, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
