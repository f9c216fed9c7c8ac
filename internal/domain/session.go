package domain

import "time"

// TokenSet carries the provider-issued credentials attached to a session.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Session is the request-scoped representation of an authenticated user
// together with the roles and permissions currently assigned to them.
// It is derived from a validated access token and never persisted; the
// permission set is the deduplicated union across all held roles.
type Session struct {
	User        User
	Tokens      TokenSet
	Roles       []string
	Permissions []string
}

// HasPermission reports whether the session's permission set contains name.
func (s *Session) HasPermission(name string) bool {
	for _, p := range s.Permissions {
		if p == name {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether the session holds at least one of the
// given permissions.
func (s *Session) HasAnyPermission(names ...string) bool {
	for _, n := range names {
		if s.HasPermission(n) {
			return true
		}
	}
	return false
}
