package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReportStatus is the review state of a submitted report.
type ReportStatus string

const (
	ReportStatusSubmitted ReportStatus = "submitted"
	ReportStatusVerified  ReportStatus = "verified"
	ReportStatusRejected  ReportStatus = "rejected"
)

// Report is a user-submitted verification report. Submission is gated on an
// eligible wallet session and an active stake.
type Report struct {
	ID         uuid.UUID    `json:"id"`
	UserID     uuid.UUID    `json:"user_id"`
	Title      string       `json:"title"`
	Body       string       `json:"body"`
	Category   string       `json:"category"`
	Status     ReportStatus `json:"status"`
	ReviewNote *string      `json:"review_note,omitempty"`
	ReviewedBy *uuid.UUID   `json:"reviewed_by,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Reviewed reports whether the report has already been verified or rejected.
func (r *Report) Reviewed() bool {
	return r.Status != ReportStatusSubmitted
}
