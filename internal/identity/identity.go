// Package identity authenticates callers and carries the resulting
// principal through the request. A Session is produced by the login flow
// (local credential check or verified external token) and lives only in
// process memory; it is never written to the durable store.
package identity

import (
	"time"
)

// RoleLibrarian grants unrestricted write access across all gated resources.
const RoleLibrarian = "librarian"

// Session is the authenticated principal for the current request.
type Session struct {
	// Username identifies the principal; for token logins this is the
	// token subject (or preferred_username when the provider sends one).
	Username string

	// Roles granted at login time. Empty for users with no librarian
	// group membership.
	Roles []string

	// IDToken holds the raw, already-verified external token for token
	// logins. Empty for local credential logins.
	IDToken string

	// ExpiresAt is when the session stops being honored.
	ExpiresAt time.Time
}

// HasRole reports whether the session carries the given role.
func (s *Session) HasRole(role string) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}
