package service

import (
	"context"
	"testing"

	"staked-report-gateway/internal/core/domain"
	"staked-report-gateway/internal/core/ports"
	"staked-report-gateway/internal/core/ports/mocks"
	"staked-report-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setupReportService(t *testing.T) (
	*ReportServiceImpl,
	*mocks.MockReportRepository,
	*mocks.MockStakeRepository,
	*mocks.MockGateService,
) {
	ctrl := gomock.NewController(t)
	reportRepo := mocks.NewMockReportRepository(ctrl)
	stakeRepo := mocks.NewMockStakeRepository(ctrl)
	gateSvc := mocks.NewMockGateService(ctrl)

	svc := NewReportService(reportRepo, stakeRepo, gateSvc, zerolog.Nop())
	return svc, reportRepo, stakeRepo, gateSvc
}

func TestReportService_Submit_Success(t *testing.T) {
	svc, reportRepo, stakeRepo, gateSvc := setupReportService(t)

	ctx := context.Background()
	userID := uuid.New()
	req := ports.SubmitReportRequest{
		UserID:   userID,
		Title:    "Mislabelled ingredient list",
		Body:     "Product batch 42 lists no allergens but contains peanuts.",
		Category: "food_safety",
	}

	gateSvc.EXPECT().RequireReady(ctx, userID).Return(nil)
	stakeRepo.EXPECT().GetActiveByUserID(ctx, userID).Return(&domain.Stake{UserID: userID}, nil)
	reportRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	report, err := svc.Submit(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, userID, report.UserID)
	assert.Equal(t, domain.ReportStatusSubmitted, report.Status)
	assert.NotEqual(t, uuid.Nil, report.ID)
}

func TestReportService_Submit_GateNotReady(t *testing.T) {
	svc, _, _, gateSvc := setupReportService(t)

	ctx := context.Background()
	userID := uuid.New()

	gateSvc.EXPECT().RequireReady(ctx, userID).Return(apperror.ErrGateNotReady())

	_, err := svc.Submit(ctx, ports.SubmitReportRequest{UserID: userID, Title: "t", Body: "b"})
	require.Error(t, err)
	assert.Equal(t, "WLT_006", appErrCode(t, err))
}

func TestReportService_Submit_StakeRequired(t *testing.T) {
	svc, _, stakeRepo, gateSvc := setupReportService(t)

	ctx := context.Background()
	userID := uuid.New()

	gateSvc.EXPECT().RequireReady(ctx, userID).Return(nil)
	stakeRepo.EXPECT().GetActiveByUserID(ctx, userID).Return(nil, nil)

	_, err := svc.Submit(ctx, ports.SubmitReportRequest{UserID: userID, Title: "t", Body: "b"})
	require.Error(t, err)
	assert.Equal(t, "STK_002", appErrCode(t, err))
}

func TestReportService_Get_OwnerAndAdminAccess(t *testing.T) {
	svc, reportRepo, _, _ := setupReportService(t)

	ctx := context.Background()
	ownerID := uuid.New()
	reportID := uuid.New()
	report := &domain.Report{ID: reportID, UserID: ownerID}

	owner := domain.AuthSession{Authenticated: true, UserID: ownerID, Role: domain.RoleUser}
	stranger := domain.AuthSession{Authenticated: true, UserID: uuid.New(), Role: domain.RoleUser}
	admin := domain.AuthSession{Authenticated: true, UserID: uuid.New(), Role: domain.RoleAdmin}

	reportRepo.EXPECT().GetByID(ctx, reportID).Return(report, nil).Times(3)

	got, err := svc.Get(ctx, owner, reportID)
	require.NoError(t, err)
	assert.Equal(t, report, got)

	// Other users cannot tell a hidden report from a missing one.
	_, err = svc.Get(ctx, stranger, reportID)
	require.Error(t, err)
	assert.Equal(t, "RPT_001", appErrCode(t, err))

	got, err = svc.Get(ctx, admin, reportID)
	require.NoError(t, err)
	assert.Equal(t, report, got)
}

func TestReportService_Get_NotFound(t *testing.T) {
	svc, reportRepo, _, _ := setupReportService(t)

	ctx := context.Background()
	reportID := uuid.New()
	auth := domain.AuthSession{Authenticated: true, UserID: uuid.New(), Role: domain.RoleUser}

	reportRepo.EXPECT().GetByID(ctx, reportID).Return(nil, nil)

	_, err := svc.Get(ctx, auth, reportID)
	require.Error(t, err)
	assert.Equal(t, "RPT_001", appErrCode(t, err))
}

func TestReportService_List_NormalizesPagination(t *testing.T) {
	svc, reportRepo, _, _ := setupReportService(t)
	ctx := context.Background()

	reportRepo.EXPECT().
		List(ctx, ports.ReportListParams{Page: 1, PageSize: defaultPageSize}).
		Return([]domain.Report{}, int64(0), nil)

	_, _, err := svc.List(ctx, ports.ReportListParams{Page: 0, PageSize: 0})
	require.NoError(t, err)

	reportRepo.EXPECT().
		List(ctx, ports.ReportListParams{Page: 3, PageSize: maxPageSize}).
		Return([]domain.Report{}, int64(0), nil)

	_, _, err = svc.List(ctx, ports.ReportListParams{Page: 3, PageSize: 5000})
	require.NoError(t, err)
}

func TestReportService_Review_Success(t *testing.T) {
	svc, reportRepo, _, _ := setupReportService(t)

	ctx := context.Background()
	reportID := uuid.New()
	reviewerID := uuid.New()
	note := "verified against supplier records"
	report := &domain.Report{ID: reportID, UserID: uuid.New(), Status: domain.ReportStatusSubmitted}

	reportRepo.EXPECT().GetByID(ctx, reportID).Return(report, nil)
	reportRepo.EXPECT().UpdateReview(ctx, reportID, domain.ReportStatusVerified, reviewerID, &note).Return(nil)

	reviewed, err := svc.Review(ctx, ports.ReviewReportRequest{
		ReportID:   reportID,
		ReviewerID: reviewerID,
		Verdict:    domain.ReportStatusVerified,
		Note:       &note,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusVerified, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, reviewerID, *reviewed.ReviewedBy)
}

func TestReportService_Review_InvalidVerdict(t *testing.T) {
	svc, _, _, _ := setupReportService(t)

	_, err := svc.Review(context.Background(), ports.ReviewReportRequest{
		ReportID:   uuid.New(),
		ReviewerID: uuid.New(),
		Verdict:    domain.ReportStatusSubmitted,
	})
	require.Error(t, err)
	assert.Equal(t, "SYS_002", appErrCode(t, err))
}

func TestReportService_Review_AlreadyReviewed(t *testing.T) {
	svc, reportRepo, _, _ := setupReportService(t)

	ctx := context.Background()
	reportID := uuid.New()
	report := &domain.Report{ID: reportID, Status: domain.ReportStatusVerified}

	reportRepo.EXPECT().GetByID(ctx, reportID).Return(report, nil)

	_, err := svc.Review(ctx, ports.ReviewReportRequest{
		ReportID:   reportID,
		ReviewerID: uuid.New(),
		Verdict:    domain.ReportStatusRejected,
	})
	require.Error(t, err)
	assert.Equal(t, "RPT_002", appErrCode(t, err))
}

func TestReportService_Stats(t *testing.T) {
	svc, reportRepo, _, _ := setupReportService(t)

	ctx := context.Background()
	stats := &ports.ReportStats{Total: 10, Submitted: 4, Verified: 5, Rejected: 1}

	reportRepo.EXPECT().GetStats(ctx, gomock.Nil()).Return(stats, nil)

	got, err := svc.Stats(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, stats, got)
}
