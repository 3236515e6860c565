package handler

import (
	"math"
	"strconv"
	"time"

	"staked-report-gateway/internal/adapter/http/dto"
	"staked-report-gateway/internal/adapter/http/middleware"
	"staked-report-gateway/internal/core/domain"
	"staked-report-gateway/internal/core/ports"
	"staked-report-gateway/pkg/apperror"
	"staked-report-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReportHandler handles report submission and browsing endpoints.
type ReportHandler struct {
	reportSvc ports.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportSvc ports.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// Submit handles POST /submit-report.
func (h *ReportHandler) Submit(c *gin.Context) {
	var req dto.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	auth := middleware.AuthSessionFrom(c)
	report, err := h.reportSvc.Submit(c.Request.Context(), ports.SubmitReportRequest{
		UserID:   auth.UserID,
		Title:    req.Title,
		Body:     req.Body,
		Category: req.Category,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toReportResponse(report))
}

// Get handles GET /reports/:id.
func (h *ReportHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid report id"))
		return
	}

	auth := middleware.AuthSessionFrom(c)
	report, err := h.reportSvc.Get(c.Request.Context(), auth, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toReportResponse(report))
}

// List handles GET /reports. Non-admins only ever see their own reports;
// admins see all and may filter by user_id.
func (h *ReportHandler) List(c *gin.Context) {
	auth := middleware.AuthSessionFrom(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	params := ports.ReportListParams{
		Page:     page,
		PageSize: pageSize,
	}

	if auth.IsAdmin() {
		if u := c.Query("user_id"); u != "" {
			if id, err := uuid.Parse(u); err == nil {
				params.UserID = &id
			}
		}
	} else {
		uid := auth.UserID
		params.UserID = &uid
	}

	if s := c.Query("status"); s != "" {
		status := domain.ReportStatus(s)
		params.Status = &status
	}

	reports, total, err := h.reportSvc.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.ReportResponse, 0, len(reports))
	for i := range reports {
		items = append(items, toReportResponse(&reports[i]))
	}

	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))

	response.OK(c, dto.ReportListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

func toReportResponse(r *domain.Report) dto.ReportResponse {
	resp := dto.ReportResponse{
		ID:         r.ID.String(),
		UserID:     r.UserID.String(),
		Title:      r.Title,
		Body:       r.Body,
		Category:   r.Category,
		Status:     string(r.Status),
		ReviewNote: r.ReviewNote,
		CreatedAt:  r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  r.UpdatedAt.Format(time.RFC3339),
	}
	if r.ReviewedBy != nil {
		reviewer := r.ReviewedBy.String()
		resp.ReviewedBy = &reviewer
	}
	return resp
}
