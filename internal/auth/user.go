// Copyright (c) 2026 ClarifyX. All rights reserved.

/*
Package auth implements the user identity and session management layer.

It defines the core domain entities (User, Session) and logic for
authentication, authorization, and account lifecycle, including the
marketplace-specific account state: premium membership and accumulated
author earnings.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to user identity.
*/
package auth

import (
	"time"

	"github.com/clarifyx/clarifyx/internal/platform/sec"
)

// # Domain Entities

// User represents a registered member of the ClarifyX marketplace.
type User struct {
	ID           string       `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Explicitly omitted from JSON for security.
	DisplayName  string       `json:"displayName"`
	AvatarURL    string       `json:"avatarUrl,omitempty"`
	Bio          string       `json:"bio,omitempty"`
	Website      string       `json:"website,omitempty"`
	Role         sec.UserRole `json:"role"`

	// IsPremium mirrors the user's active subscription state. It is
	// synced by the billing layer, never set directly by handlers.
	IsPremium bool `json:"isPremium"`

	// TotalEarnings is the lifetime author payout accumulator. Only the
	// earnings ledger mutates it, atomically alongside ledger inserts.
	TotalEarnings float64 `json:"totalEarnings"`

	IsVerified  bool       `json:"isVerified"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// IsAuthor reports whether the account can own and sell assets.
func (u *User) IsAuthor() bool {
	return u.Role.AtLeast(sec.RoleAuthor)
}

// Session represents an active refresh-token session.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	TokenHash string    `json:"-"` // Hashed value of the refresh token. Omitted for security.
	UserAgent string    `json:"userAgent"`
	IPAddress string    `json:"ipAddress"`
	ExpiresAt time.Time `json:"expiresAt"`
	IsRevoked bool      `json:"isRevoked"`
	CreatedAt time.Time `json:"createdAt"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldDisplayName     = "displayName"
	FieldWebsite         = "website"
	FieldRole            = "role"
	FieldLogin           = "login"
	FieldToken           = "token"
	FieldCurrentPassword = "currentPassword"
	FieldNewPassword     = "newPassword"
)
