package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apphazard "github.com/safework/backend/internal/application/hazard"
	"github.com/safework/backend/internal/interfaces/http/middleware"
)

// HazardHandler handles hazard report HTTP requests
type HazardHandler struct {
	BaseHandler
	reportService *apphazard.ReportService
	sessionMW     gin.HandlerFunc
	adminMW       gin.HandlerFunc
}

// NewHazardHandler creates a new hazard handler
func NewHazardHandler(reportService *apphazard.ReportService, sessionMW, adminMW gin.HandlerFunc) *HazardHandler {
	return &HazardHandler{
		reportService: reportService,
		sessionMW:     sessionMW,
		adminMW:       adminMW,
	}
}

// RegisterRoutes registers hazard endpoints on the API group
func (h *HazardHandler) RegisterRoutes(rg *gin.RouterGroup) {
	hazards := rg.Group("/hazards", h.sessionMW)
	hazards.POST("", h.Create)
	hazards.GET("", h.List)
	hazards.PATCH("/:id", h.adminMW, h.UpdateStatus)
}

// Create submits a new hazard report
func (h *HazardHandler) Create(c *gin.Context) {
	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	dto, err := h.reportService.CreateReport(c.Request.Context(), apphazard.CreateReportInput{
		ReporterID:       middleware.GetSessionAccountID(c),
		ReporterUsername: middleware.GetSessionUsername(c),
		Type:             req.Type,
		Location:         req.Location,
		RiskLevel:        req.RiskLevel,
		Description:      req.Description,
		ImageURL:         req.ImageURL,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto)
}

// List returns reports visible to the caller, newest first
func (h *HazardHandler) List(c *gin.Context) {
	dtos, err := h.reportService.ListReports(c.Request.Context(), apphazard.ListReportsInput{
		ViewerID:   middleware.GetSessionAccountID(c),
		ViewerRole: middleware.GetSessionRole(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dtos)
}

// UpdateStatus applies a triage decision to a report
func (h *HazardHandler) UpdateStatus(c *gin.Context) {
	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.NotFound(c, "Report not found")
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	dto, err := h.reportService.UpdateStatus(c.Request.Context(), apphazard.UpdateStatusInput{
		ReportID:  reportID,
		ActorRole: middleware.GetSessionRole(c),
		Status:    req.Status,
		Remarks:   req.Remarks,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto)
}
