// Copyright (c) 2026 ClarifyX. All rights reserved.

package auth

import (
	"context"
	"time"

	"github.com/clarifyx/clarifyx/pkg/query"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {
	// FindByID returns the account with the given ID.
	FindByID(context context.Context, id string) (*User, error)

	// FindByEmail returns the account with the given email.
	FindByEmail(context context.Context, email string) (*User, error)

	// FindByUsername returns the account with the given username.
	FindByUsername(context context.Context, username string) (*User, error)

	// List returns a filtered page of accounts plus the matching total.
	List(context context.Context, q query.Query) ([]*User, int, error)

	// Create persists a brand-new user account to the storage.
	Create(context context.Context, user *User) error

	// Update persists changes to mutable profile fields.
	Update(context context.Context, user *User) error

	// UpdatePassword replaces only the user's password hash.
	UpdatePassword(context context.Context, userID, newHash string) error

	// UpdateRole replaces the account's role.
	UpdateRole(context context.Context, userID, role string) error

	// SetActive toggles account suspension.
	SetActive(context context.Context, userID string, active bool) error

	// SetPremium syncs the premium membership flag. Called by the
	// billing layer on subscription status changes.
	SetPremium(context context.Context, userID string, premium bool) error

	// TouchLastLogin records a successful authentication time.
	TouchLastLogin(context context.Context, userID string) error

	// SoftDelete marks the account as deleted without removing the row.
	SoftDelete(context context.Context, id string) error

	// MarkVerified updates the user's status to is_verified = true.
	MarkVerified(context context.Context, userID string) error
}

// # Session Data Access

// SessionRepository defines the data access contract for refresh-token sessions.
type SessionRepository interface {
	// Create persists a new tracking session for an authenticated login.
	Create(context context.Context, session *Session) error

	// FindByTokenHash returns the active session matching the given token hash.
	FindByTokenHash(context context.Context, tokenHash string) (*Session, error)

	// Revoke marks a specific session as permanently invalidated.
	Revoke(context context.Context, sessionID string) error

	// RevokeAll revokes every active session belonging to the userID.
	RevokeAll(context context.Context, userID string) error

	// RevokeOthers revokes all sessions belonging to the userID except
	// for the current session.
	RevokeOthers(context context.Context, userID, currentSessionID string) error

	// DeleteExpired physically removes sessions whose ExpiresAt is in the past.
	DeleteExpired(context context.Context) error
}

// # Volatile Data Access

// TokenRepository is the contract for short-lived opaque tokens
// (password reset, email verification) backed by Redis.
type TokenRepository interface {
	// Set stores a token associated with a userID for a limited duration.
	Set(context context.Context, token string, userID string, ttl time.Duration) error

	// Get retrieves the userID associated with a given token.
	Get(context context.Context, token string) (string, error)

	// Delete removes a token after successful use.
	Delete(context context.Context, token string) error
}
