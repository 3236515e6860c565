package domain

import "github.com/google/uuid"

// Role is a user's authorization level.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is a known value.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// AuthSession is a read-only snapshot of the caller's authentication state,
// supplied by the auth provider per request. Role is meaningful only when
// Authenticated is true.
type AuthSession struct {
	Authenticated bool
	UserID        uuid.UUID
	Role          Role
}

// Anonymous returns the session of an unauthenticated caller.
func Anonymous() AuthSession {
	return AuthSession{}
}

// IsAdmin reports whether the session belongs to an authenticated admin.
func (s AuthSession) IsAdmin() bool {
	return s.Authenticated && s.Role == RoleAdmin
}
