package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// User roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User is a row in the users table.
type User struct {
	ID             int64
	PlatformUserID int64
	Username       string
	DisplayName    string
	Role           string
	CreatedAt      string
}

// UpsertUser inserts or refreshes a user keyed by platform user id.
func (s *Store) UpsertUser(ctx context.Context, platformUserID int64, username, displayName string) (*User, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (platform_user_id, username, display_name)
		 VALUES (?, ?, ?)
		 ON CONFLICT(platform_user_id) DO UPDATE SET
			username = excluded.username,
			display_name = excluded.display_name`,
		platformUserID, username, displayName)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user %d: %w", platformUserID, err)
	}
	return s.GetUserByPlatformID(ctx, platformUserID)
}

// GetUserByPlatformID looks a user up by platform user id.
func (s *Store) GetUserByPlatformID(ctx context.Context, platformUserID int64) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, platform_user_id, username, display_name, role, created_at
		 FROM users WHERE platform_user_id = ?`, platformUserID).
		Scan(&u.ID, &u.PlatformUserID, &u.Username, &u.DisplayName, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

// SetUserRole updates a user's role, keyed by platform user id. Unknown
// users return ErrNotFound.
func (s *Store) SetUserRole(ctx context.Context, platformUserID int64, role string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET role = ? WHERE platform_user_id = ?`, role, platformUserID)
	if err != nil {
		return fmt.Errorf("failed to set role for user %d: %w", platformUserID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set role for user %d: %w", platformUserID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateLinkCode stores a single-use account link code.
func (s *Store) CreateLinkCode(ctx context.Context, code string, platformUserID int64, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO link_codes (code, platform_user_id, expires_at) VALUES (?, ?, ?)`,
		code, platformUserID, expiresAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to create link code: %w", err)
	}
	return nil
}

// ConsumeLinkCode marks a link code used and returns its platform user id.
// Expired or already-used codes return ErrNotFound.
func (s *Store) ConsumeLinkCode(ctx context.Context, code string, now time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var platformUserID int64
	var expiresAt string
	var used int
	err = tx.QueryRowContext(ctx,
		`SELECT platform_user_id, expires_at, used FROM link_codes WHERE code = ?`, code).
		Scan(&platformUserID, &expiresAt, &used)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up link code: %w", err)
	}

	expiry, err := time.Parse(time.RFC3339, expiresAt)
	if err != nil || used != 0 || now.UTC().After(expiry) {
		return 0, ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `UPDATE link_codes SET used = 1 WHERE code = ?`, code); err != nil {
		return 0, fmt.Errorf("failed to consume link code: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit link code: %w", err)
	}
	return platformUserID, nil
}
