package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserStatus is the lifecycle state of a user account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

// User is a registered account of the reporting product.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"` // Argon2id, never exposed
	Role         Role       `json:"role"`
	Balance      int64      `json:"balance"` // test tokens, smallest unit
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsActive reports whether the account may sign in and act.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
