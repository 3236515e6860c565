package handler

import (
	"time"

	"staked-report-gateway/internal/adapter/http/dto"
	"staked-report-gateway/internal/adapter/http/middleware"
	"staked-report-gateway/internal/core/ports"
	"staked-report-gateway/pkg/apperror"
	"staked-report-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// DashboardHandler handles the public landing, dashboard and profile pages.
type DashboardHandler struct {
	userRepo   ports.UserRepository
	stakingSvc ports.StakingService
	reportSvc  ports.ReportService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(userRepo ports.UserRepository, stakingSvc ports.StakingService, reportSvc ports.ReportService) *DashboardHandler {
	return &DashboardHandler{userRepo: userRepo, stakingSvc: stakingSvc, reportSvc: reportSvc}
}

// Home handles GET / — the public landing page.
func (h *DashboardHandler) Home(c *gin.Context) {
	auth := middleware.AuthSessionFrom(c)
	response.OK(c, gin.H{
		"product":       "staked report gateway",
		"authenticated": auth.Authenticated,
	})
}

// Forbidden handles GET /forbidden — the page the guard redirects
// non-admins to.
func (h *DashboardHandler) Forbidden(c *gin.Context) {
	response.OK(c, gin.H{
		"message": "You do not have access to that page.",
	})
}

// Dashboard handles GET /dashboard.
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	auth := middleware.AuthSessionFrom(c)
	ctx := c.Request.Context()

	user, err := h.userRepo.GetByID(ctx, auth.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if user == nil {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	uid := auth.UserID
	stats, err := h.reportSvc.Stats(ctx, &uid)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.DashboardResponse{
		Balance:      user.Balance,
		TotalReports: stats.Total,
		Submitted:    stats.Submitted,
		Verified:     stats.Verified,
		Rejected:     stats.Rejected,
	}

	stake, err := h.stakingSvc.ActiveStake(ctx, auth.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if stake != nil {
		sr := toStakeResponse(stake)
		resp.Stake = &sr
	}

	response.OK(c, resp)
}

// Profile handles GET /profile.
func (h *DashboardHandler) Profile(c *gin.Context) {
	auth := middleware.AuthSessionFrom(c)
	ctx := c.Request.Context()

	user, err := h.userRepo.GetByID(ctx, auth.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if user == nil {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	resp := dto.ProfileResponse{
		UserID:    user.ID.String(),
		Username:  user.Username,
		Role:      string(user.Role),
		Balance:   user.Balance,
		Status:    string(user.Status),
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}

	stake, err := h.stakingSvc.ActiveStake(ctx, auth.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if stake != nil {
		sr := toStakeResponse(stake)
		resp.Stake = &sr
	}

	response.OK(c, resp)
}
