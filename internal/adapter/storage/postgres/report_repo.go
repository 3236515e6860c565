package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"staked-report-gateway/internal/core/domain"
	"staked-report-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ReportRepo implements ports.ReportRepository.
type ReportRepo struct {
	pool Pool
}

// NewReportRepo creates a new ReportRepo.
func NewReportRepo(pool Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

// Create inserts a new report into the database.
func (r *ReportRepo) Create(ctx context.Context, rep *domain.Report) error {
	query := `INSERT INTO reports (id, user_id, title, body, category, status, review_note, reviewed_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		rep.ID, rep.UserID, rep.Title, rep.Body, rep.Category,
		rep.Status, rep.ReviewNote, rep.ReviewedBy, rep.CreatedAt, rep.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// GetByID fetches a report by UUID.
func (r *ReportRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	query := `SELECT id, user_id, title, body, category, status, review_note, reviewed_by, created_at, updated_at
		FROM reports WHERE id = $1`

	return r.scanReport(r.pool.QueryRow(ctx, query, id))
}

// List fetches reports with filtering and pagination.
func (r *ReportRepo) List(ctx context.Context, params ports.ReportListParams) ([]domain.Report, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if params.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIdx))
		args = append(args, *params.UserID)
		argIdx++
	}
	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM reports %s", where)
	var total int64
	err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}

	// Fetch page
	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT id, user_id, title, body, category, status, review_note, reviewed_by, created_at, updated_at
		FROM reports %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []domain.Report
	for rows.Next() {
		rep := domain.Report{}
		err := rows.Scan(
			&rep.ID, &rep.UserID, &rep.Title, &rep.Body, &rep.Category,
			&rep.Status, &rep.ReviewNote, &rep.ReviewedBy, &rep.CreatedAt, &rep.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan report row: %w", err)
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate report rows: %w", err)
	}
	return reports, total, nil
}

// UpdateReview records a review verdict. Only unreviewed reports can be
// updated; a zero rows-affected result means the report was already
// reviewed or does not exist.
func (r *ReportRepo) UpdateReview(ctx context.Context, id uuid.UUID, status domain.ReportStatus, reviewedBy uuid.UUID, note *string) error {
	query := `UPDATE reports SET status = $1, reviewed_by = $2, review_note = $3, updated_at = NOW()
		WHERE id = $4 AND status = 'submitted'`

	tag, err := r.pool.Exec(ctx, query, status, reviewedBy, note, id)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reviewable report not found: %s", id)
	}
	return nil
}

// GetStats retrieves aggregated report counts, optionally scoped to a user.
func (r *ReportRepo) GetStats(ctx context.Context, userID *uuid.UUID) (*ports.ReportStats, error) {
	var args []any
	where := ""
	if userID != nil {
		where = "WHERE user_id = $1"
		args = append(args, *userID)
	}

	query := fmt.Sprintf(`SELECT
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE status = 'submitted') AS submitted,
		COUNT(*) FILTER (WHERE status = 'verified') AS verified,
		COUNT(*) FILTER (WHERE status = 'rejected') AS rejected
		FROM reports %s`, where)

	stats := &ports.ReportStats{}
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&stats.Total, &stats.Submitted, &stats.Verified, &stats.Rejected,
	)
	if err != nil {
		return nil, fmt.Errorf("get report stats: %w", err)
	}
	return stats, nil
}

// scanReport is a helper to scan a single row into a Report.
func (r *ReportRepo) scanReport(row pgx.Row) (*domain.Report, error) {
	rep := &domain.Report{}
	err := row.Scan(
		&rep.ID, &rep.UserID, &rep.Title, &rep.Body, &rep.Category,
		&rep.Status, &rep.ReviewNote, &rep.ReviewedBy, &rep.CreatedAt, &rep.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan report: %w", err)
	}
	return rep, nil
}
