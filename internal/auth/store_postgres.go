// Copyright (c) 2026 ClarifyX. All rights reserved.

// PostgreSQL implementations of the auth repositories.
//
// # err Mapping
//
// Storage-specific errors (like pgx.ErrNoRows) are mapped to domain-friendly
// [apperr.AppError] types to avoid leaking storage implementation details.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clarifyx/clarifyx/internal/platform/apperr"
	"github.com/clarifyx/clarifyx/internal/platform/dberr"
	"github.com/clarifyx/clarifyx/pkg/query"
)

const userColumns = `
	id, username, email, password_hash, display_name, avatar_url, bio, website,
	role, is_premium, total_earnings, is_verified, is_active, last_login_at,
	created_at, updated_at`

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.AvatarURL,
		&user.Bio,
		&user.Website,
		&user.Role,
		&user.IsPremium,
		&user.TotalEarnings,
		&user.IsVerified,
		&user.IsActive,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

/*
Create persists a new user record into the users.account table.

Description: Deep-persists account metadata, ensuring timestamps are initialized
if not provided.

Returns:
  - error: Database constraint violations or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			id, username, email, password_hash, display_name, role,
			is_premium, total_earnings, is_verified, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.Role,
		user.IsPremium,
		user.TotalEarnings,
		user.IsVerified,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}
	return nil
}

// FindByEmail retrieves a non-deleted user record by their unique email address.
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	q := `SELECT ` + userColumns + ` FROM users.account WHERE email = $1 AND deleted_at IS NULL`

	user, err := scanUser(repository.pool.QueryRow(context, q, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_email_failed: %w", err)
	}
	return user, nil
}

// FindByUsername retrieves a non-deleted user record by their unique username.
func (repository *PostgresUserRepository) FindByUsername(context context.Context, username string) (*User, error) {
	q := `SELECT ` + userColumns + ` FROM users.account WHERE username = $1 AND deleted_at IS NULL`

	user, err := scanUser(repository.pool.QueryRow(context, q, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_username_failed: %w", err)
	}
	return user, nil
}

// FindByID retrieves a non-deleted user record by primary key.
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	q := `SELECT ` + userColumns + ` FROM users.account WHERE id = $1 AND deleted_at IS NULL`

	user, err := scanUser(repository.pool.QueryRow(context, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err)
	}
	return user, nil
}

/*
List returns a filtered admin page of accounts plus the matching total.

Description: The caller-built query fragments carry the WHERE predicate;
soft-deleted rows are always excluded.
*/
func (repository *PostgresUserRepository) List(context context.Context, q query.Query) ([]*User, int, error) {
	where := q.WhereClause()
	if where == "" {
		where = " WHERE deleted_at IS NULL"
	} else {
		where += " AND deleted_at IS NULL"
	}

	var total int
	countQuery := `SELECT count(*) FROM users.account` + where
	if err := repository.pool.QueryRow(context, countQuery, q.Args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_users")
	}

	listQuery := `SELECT ` + userColumns + ` FROM users.account` + where + q.TailClause()
	rows, err := repository.pool.Query(context, listQuery, q.Args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_users")
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_user")
		}
		users = append(users, user)
	}

	return users, total, nil
}

// Update persists changes to a user's mutable profile fields.
func (repository *PostgresUserRepository) Update(context context.Context, user *User) error {
	const query = `
		UPDATE users.account
		SET display_name = $2, avatar_url = $3, bio = $4, website = $5, updated_at = $6
		WHERE id = $1 AND deleted_at IS NULL`

	user.UpdatedAt = time.Now()
	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.DisplayName,
		user.AvatarURL,
		user.Bio,
		user.Website,
		user.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_failed: %w", err)
	}
	return nil
}

// UpdatePassword updates only the password hash for a specific user.
func (repository *PostgresUserRepository) UpdatePassword(context context.Context, userID, newHash string) error {
	const query = `
		UPDATE users.account
		SET password_hash = $2, updated_at = $3
		WHERE id = $1 AND deleted_at IS NULL`

	_, err := repository.pool.Exec(context, query, userID, newHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_password_failed: %w", err)
	}
	return nil
}

// UpdateRole replaces the account's role.
func (repository *PostgresUserRepository) UpdateRole(context context.Context, userID, role string) error {
	const query = `UPDATE users.account SET role = $2, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`
	_, err := repository.pool.Exec(context, query, userID, role, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_role_failed: %w", err)
	}
	return nil
}

// SetActive toggles account suspension.
func (repository *PostgresUserRepository) SetActive(context context.Context, userID string, active bool) error {
	const query = `UPDATE users.account SET is_active = $2, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`
	_, err := repository.pool.Exec(context, query, userID, active, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_set_active_failed: %w", err)
	}
	return nil
}

// SetPremium syncs the premium membership flag.
func (repository *PostgresUserRepository) SetPremium(context context.Context, userID string, premium bool) error {
	const query = `UPDATE users.account SET is_premium = $2, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`
	_, err := repository.pool.Exec(context, query, userID, premium, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_set_premium_failed: %w", err)
	}
	return nil
}

// TouchLastLogin records a successful authentication time.
func (repository *PostgresUserRepository) TouchLastLogin(context context.Context, userID string) error {
	const query = `UPDATE users.account SET last_login_at = NOW() WHERE id = $1`
	_, err := repository.pool.Exec(context, query, userID)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_touch_last_login_failed: %w", err)
	}
	return nil
}

// SoftDelete marks a user account as deleted using their ID.
func (repository *PostgresUserRepository) SoftDelete(context context.Context, id string) error {
	const query = `UPDATE users.account SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	cmd, err := repository.pool.Exec(context, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_soft_delete_failed: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

// MarkVerified updates the user's status to is_verified = true.
func (repository *PostgresUserRepository) MarkVerified(context context.Context, userID string) error {
	const query = `UPDATE users.account SET is_verified = TRUE, updated_at = $2 WHERE id = $1`
	_, err := repository.pool.Exec(context, query, userID, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_mark_verified_failed: %w", err)
	}
	return nil
}

// # Session Repository

// PostgresSessionRepository implements the SessionRepository interface.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PostgreSQL implementation of SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

// Create persists a new session record into the users.session table.
func (repository *PostgresSessionRepository) Create(context context.Context, session *Session) error {
	const query = `
		INSERT INTO users.session (
			id, user_id, token_hash, user_agent, ip_address, expires_at, is_revoked, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(context, query,
		session.ID,
		session.UserID,
		session.TokenHash,
		session.UserAgent,
		session.IPAddress,
		session.ExpiresAt,
		session.IsRevoked,
		session.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_session_repo_create_failed: %w", err)
	}
	return nil
}

// FindByTokenHash securely resolves a refresh token hash into an active session.
func (repository *PostgresSessionRepository) FindByTokenHash(context context.Context, tokenHash string) (*Session, error) {
	const query = `
		SELECT id, user_id, token_hash, user_agent, ip_address, expires_at, is_revoked, created_at
		FROM users.session
		WHERE token_hash = $1 AND is_revoked = FALSE AND expires_at > NOW()`

	session := &Session{}
	err := repository.pool.QueryRow(context, query, tokenHash).Scan(
		&session.ID,
		&session.UserID,
		&session.TokenHash,
		&session.UserAgent,
		&session.IPAddress,
		&session.ExpiresAt,
		&session.IsRevoked,
		&session.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Session")
		}
		return nil, fmt.Errorf("postgres_session_repo_find_failed: %w", err)
	}
	return session, nil
}

// Revoke marks a specific session as revoked.
func (repository *PostgresSessionRepository) Revoke(context context.Context, sessionID string) error {
	const query = `UPDATE users.session SET is_revoked = TRUE WHERE id = $1`
	_, err := repository.pool.Exec(context, query, sessionID)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_revoke_failed: %w", err)
	}
	return nil
}

// RevokeAll marks all active sessions for a user as revoked.
func (repository *PostgresSessionRepository) RevokeAll(context context.Context, userID string) error {
	const query = `UPDATE users.session SET is_revoked = TRUE WHERE user_id = $1 AND is_revoked = FALSE`
	_, err := repository.pool.Exec(context, query, userID)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_revoke_all_failed: %w", err)
	}
	return nil
}

// RevokeOthers marks all active sessions for a user as revoked, except for one.
func (repository *PostgresSessionRepository) RevokeOthers(context context.Context, userID, currentSessionID string) error {
	const query = `UPDATE users.session SET is_revoked = TRUE WHERE user_id = $1 AND id != $2 AND is_revoked = FALSE`
	_, err := repository.pool.Exec(context, query, userID, currentSessionID)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_revoke_others_failed: %w", err)
	}
	return nil
}

// DeleteExpired permanently removes all sessions that have passed their expiration.
func (repository *PostgresSessionRepository) DeleteExpired(context context.Context) error {
	const query = `DELETE FROM users.session WHERE expires_at <= NOW()`
	_, err := repository.pool.Exec(context, query)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_delete_expired_failed: %w", err)
	}
	return nil
}
