package ports

import (
	"context"

	"staked-report-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepository defines persistence operations for users.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic
// locking of balance updates.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.User, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID, balance int64) error
}

// StakeRepository defines persistence operations for stakes.
type StakeRepository interface {
	Create(ctx context.Context, tx pgx.Tx, stake *domain.Stake) error
	GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*domain.Stake, error)
	// GetActiveByUserIDForUpdate is the transactional variant used while the
	// user row is locked, so concurrent confirms serialize on the same check.
	GetActiveByUserIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Stake, error)
	Release(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// ReportRepository defines persistence operations for reports.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error)
	List(ctx context.Context, params ReportListParams) ([]domain.Report, int64, error)
	UpdateReview(ctx context.Context, id uuid.UUID, status domain.ReportStatus, reviewedBy uuid.UUID, note *string) error
	GetStats(ctx context.Context, userID *uuid.UUID) (*ReportStats, error)
}

// ReportListParams holds filter + pagination for listing reports.
// UserID nil lists across all users (admin view).
type ReportListParams struct {
	UserID   *uuid.UUID
	Status   *domain.ReportStatus
	Page     int
	PageSize int
}

// ReportStats holds aggregated report counts for the dashboard.
type ReportStats struct {
	Total     int64
	Submitted int64
	Verified  int64
	Rejected  int64
}

// ActivityRepository defines persistence for the activity log.
type ActivityRepository interface {
	Create(ctx context.Context, entry *domain.ActivityLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
