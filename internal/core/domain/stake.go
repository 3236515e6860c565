package domain

import (
	"time"

	"github.com/google/uuid"
)

// StakeStatus is the lifecycle state of a stake.
type StakeStatus string

const (
	StakeStatusActive   StakeStatus = "active"
	StakeStatusReleased StakeStatus = "released"
)

// Stake records tokens a user locked to become eligible for report
// submission. At most one active stake exists per user.
type Stake struct {
	ID         uuid.UUID   `json:"id"`
	UserID     uuid.UUID   `json:"user_id"`
	Amount     int64       `json:"amount"`
	Status     StakeStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	ReleasedAt *time.Time  `json:"released_at,omitempty"`
}
