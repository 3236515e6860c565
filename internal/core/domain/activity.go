package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActivityAction represents the type of recorded user action.
type ActivityAction string

const (
	ActivityRegister      ActivityAction = "REGISTER"
	ActivityLogin         ActivityAction = "LOGIN"
	ActivityConnectWallet ActivityAction = "CONNECT_WALLET"
	ActivitySwitchNetwork ActivityAction = "SWITCH_NETWORK"
	ActivityDisconnect    ActivityAction = "DISCONNECT_WALLET"
	ActivityStake         ActivityAction = "STAKE"
	ActivityUnstake       ActivityAction = "UNSTAKE"
	ActivityFaucet        ActivityAction = "FAUCET"
	ActivitySubmitReport  ActivityAction = "SUBMIT_REPORT"
	ActivityReviewReport  ActivityAction = "REVIEW_REPORT"
)

// ActivityLog records a single user-visible action in the system.
type ActivityLog struct {
	ID           uuid.UUID      `json:"id"`
	UserID       *uuid.UUID     `json:"user_id,omitempty"`
	Action       ActivityAction `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id,omitempty"`
	Details      string         `json:"details,omitempty"` // JSON string
	IPAddress    string         `json:"ip_address"`
	CreatedAt    time.Time      `json:"created_at"`
}
