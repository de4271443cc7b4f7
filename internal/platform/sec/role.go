// Copyright (c) 2026 ClarifyX. All rights reserved.

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Unrestricted system access, including admin account management
	RoleSuperAdmin UserRole = "super_admin"

	// Can manage assets, users, tickets, and view platform analytics
	RoleAdmin UserRole = "admin"

	// Can upload and sell their own digital assets
	RoleAuthor UserRole = "author"

	// Default role for standard registered users
	RoleSubscriber UserRole = "subscriber"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {

	// Linear scale (10-40) allows for future intermediate roles
	switch r {
	case RoleSuperAdmin:
		return 40
	case RoleAdmin:
		return 30
	case RoleAuthor:
		return 20
	case RoleSubscriber:
		return 10
	default:
		return 0
	}
}

// IsStaff reports whether the role carries administrative privileges.
func (r UserRole) IsStaff() bool {
	return r.AtLeast(RoleAdmin)
}

// IsStaff reports whether the raw claim role carries administrative
// privileges. Convenience wrapper for handlers working with JWT claims.
func IsStaff(role string) bool {
	return UserRole(role).IsStaff()
}
