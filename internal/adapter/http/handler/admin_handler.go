package handler

import (
	"staked-report-gateway/internal/adapter/http/dto"
	"staked-report-gateway/internal/adapter/http/middleware"
	"staked-report-gateway/internal/core/domain"
	"staked-report-gateway/internal/core/ports"
	"staked-report-gateway/pkg/apperror"
	"staked-report-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler handles the admin review endpoints.
type AdminHandler struct {
	reportSvc ports.ReportService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(reportSvc ports.ReportService) *AdminHandler {
	return &AdminHandler{reportSvc: reportSvc}
}

// Overview handles GET /admin — global report statistics.
func (h *AdminHandler) Overview(c *gin.Context) {
	stats, err := h.reportSvc.Stats(c.Request.Context(), nil)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{
		"total_reports": stats.Total,
		"submitted":     stats.Submitted,
		"verified":      stats.Verified,
		"rejected":      stats.Rejected,
	})
}

// Review handles POST /admin/reports/:id/review.
func (h *AdminHandler) Review(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid report id"))
		return
	}

	var req dto.ReviewReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	auth := middleware.AuthSessionFrom(c)
	report, err := h.reportSvc.Review(c.Request.Context(), ports.ReviewReportRequest{
		ReportID:   id,
		ReviewerID: auth.UserID,
		Verdict:    domain.ReportStatus(req.Verdict),
		Note:       req.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toReportResponse(report))
}
