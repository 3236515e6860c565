package service

import (
	"context"
	"fmt"
	"time"

	"staked-report-gateway/internal/core/domain"
	"staked-report-gateway/internal/core/ports"
	"staked-report-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ReportServiceImpl implements ports.ReportService.
type ReportServiceImpl struct {
	reportRepo ports.ReportRepository
	stakeRepo  ports.StakeRepository
	gateSvc    ports.GateService
	log        zerolog.Logger
}

// NewReportService creates a new ReportServiceImpl.
func NewReportService(
	reportRepo ports.ReportRepository,
	stakeRepo ports.StakeRepository,
	gateSvc ports.GateService,
	log zerolog.Logger,
) *ReportServiceImpl {
	return &ReportServiceImpl{
		reportRepo: reportRepo,
		stakeRepo:  stakeRepo,
		gateSvc:    gateSvc,
		log:        log.With().Str("component", "report_service").Logger(),
	}
}

// Submit files a new report. The submitter's gate must be Ready and an
// active stake must back the submission.
func (s *ReportServiceImpl) Submit(ctx context.Context, req ports.SubmitReportRequest) (*domain.Report, error) {
	if err := s.gateSvc.RequireReady(ctx, req.UserID); err != nil {
		return nil, err
	}

	stake, err := s.stakeRepo.GetActiveByUserID(ctx, req.UserID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check active stake: %w", err))
	}
	if stake == nil {
		return nil, apperror.ErrStakeRequired()
	}

	now := time.Now().UTC()
	report := &domain.Report{
		ID:        uuid.New(),
		UserID:    req.UserID,
		Title:     req.Title,
		Body:      req.Body,
		Category:  req.Category,
		Status:    domain.ReportStatusSubmitted,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create report: %w", err))
	}

	s.log.Info().
		Str("report_id", report.ID.String()).
		Str("user_id", req.UserID.String()).
		Str("category", req.Category).
		Msg("report submitted")

	return report, nil
}

// Get returns a report. Owners see their own reports; admins see all.
func (s *ReportServiceImpl) Get(ctx context.Context, auth domain.AuthSession, id uuid.UUID) (*domain.Report, error) {
	report, err := s.reportRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get report: %w", err))
	}
	if report == nil {
		return nil, apperror.ErrReportNotFound()
	}
	if !auth.IsAdmin() && report.UserID != auth.UserID {
		return nil, apperror.ErrReportNotFound()
	}
	return report, nil
}

// List returns a page of reports with the total count.
func (s *ReportServiceImpl) List(ctx context.Context, params ports.ReportListParams) ([]domain.Report, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = defaultPageSize
	}
	if params.PageSize > maxPageSize {
		params.PageSize = maxPageSize
	}

	reports, total, err := s.reportRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list reports: %w", err))
	}
	return reports, total, nil
}

// Review records an admin verdict on a submitted report. A report is
// reviewed at most once.
func (s *ReportServiceImpl) Review(ctx context.Context, req ports.ReviewReportRequest) (*domain.Report, error) {
	if req.Verdict != domain.ReportStatusVerified && req.Verdict != domain.ReportStatusRejected {
		return nil, apperror.Validation(fmt.Sprintf("invalid verdict: %s", req.Verdict))
	}

	report, err := s.reportRepo.GetByID(ctx, req.ReportID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get report: %w", err))
	}
	if report == nil {
		return nil, apperror.ErrReportNotFound()
	}
	if report.Reviewed() {
		return nil, apperror.ErrAlreadyReviewed()
	}

	if err := s.reportRepo.UpdateReview(ctx, req.ReportID, req.Verdict, req.ReviewerID, req.Note); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update review: %w", err))
	}

	report.Status = req.Verdict
	report.ReviewNote = req.Note
	report.ReviewedBy = &req.ReviewerID
	report.UpdatedAt = time.Now().UTC()

	s.log.Info().
		Str("report_id", req.ReportID.String()).
		Str("reviewer_id", req.ReviewerID.String()).
		Str("verdict", string(req.Verdict)).
		Msg("report reviewed")

	return report, nil
}

// Stats returns aggregated report counts, scoped to one user when userID is
// set.
func (s *ReportServiceImpl) Stats(ctx context.Context, userID *uuid.UUID) (*ports.ReportStats, error) {
	stats, err := s.reportRepo.GetStats(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("report stats: %w", err))
	}
	return stats, nil
}
