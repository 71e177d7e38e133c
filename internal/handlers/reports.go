// Package handlers exposes the HTTP surface for CSV report operations.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/riya-shete/csv-analyzer/internal/apperrors"
	"github.com/riya-shete/csv-analyzer/internal/models"
	"github.com/riya-shete/csv-analyzer/internal/services"
)

// ReportHandler handles report-related HTTP requests
type ReportHandler struct {
	svc    *services.ReportService
	logger *zap.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(svc *services.ReportService, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{svc: svc, logger: logger.Named("handlers")}
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ReportSummary is the lightweight list projection: no preview data,
// stats or insights.
type ReportSummary struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	Columns          []string  `json:"columns"`
	RowCount         int       `json:"row_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// FollowUpRequest is the body for POST /reports/:id/follow-up.
type FollowUpRequest struct {
	Question string `json:"question" validate:"required,max=500"`
}

// FollowUpResponse echoes the stored question/answer pair.
type FollowUpResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Upload handles POST /api/upload
func (h *ReportHandler) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "No file provided. Please upload a CSV file.",
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("could not open uploaded file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "An unexpected error occurred while processing the file.",
		})
	}
	defer src.Close()

	report, err := h.svc.Upload(c.Request().Context(), fileHeader.Filename, fileHeader.Size, src)
	if err != nil {
		return h.errorResponse(c, err, "An unexpected error occurred while processing the file.")
	}

	return c.JSON(http.StatusCreated, report)
}

// List handles GET /api/reports
func (h *ReportHandler) List(c echo.Context) error {
	reports, err := h.svc.List(c.Request().Context())
	if err != nil {
		return h.errorResponse(c, err, "Failed to list reports.")
	}

	summaries := make([]ReportSummary, len(reports))
	for i, r := range reports {
		summaries[i] = toSummary(r)
	}
	return c.JSON(http.StatusOK, summaries)
}

// Get handles GET /api/reports/:id
func (h *ReportHandler) Get(c echo.Context) error {
	report, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.errorResponse(c, err, "Failed to fetch report.")
	}
	return c.JSON(http.StatusOK, report)
}

// Delete handles DELETE /api/reports/:id
func (h *ReportHandler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return h.errorResponse(c, err, "Failed to delete report.")
	}
	return c.NoContent(http.StatusNoContent)
}

// GenerateInsights handles POST /api/reports/:id/insights. Provider
// failures are embedded in the stored insights text, so this endpoint
// only fails for missing reports or persistence errors.
func (h *ReportHandler) GenerateInsights(c echo.Context) error {
	report, err := h.svc.GenerateInsights(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.errorResponse(c, err, "Failed to generate insights. Please try again.")
	}
	return c.JSON(http.StatusOK, report)
}

// AskFollowUp handles POST /api/reports/:id/follow-up
func (h *ReportHandler) AskFollowUp(c echo.Context) error {
	var req FollowUpRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body."})
	}
	if err := c.Validate(&req); err != nil {
		return h.errorResponse(c, err, "Failed to answer question. Please try again.")
	}

	pair, err := h.svc.AskFollowUp(c.Request().Context(), c.Param("id"), req.Question)
	if err != nil {
		return h.errorResponse(c, err, "Failed to answer question. Please try again.")
	}

	return c.JSON(http.StatusOK, FollowUpResponse{Question: pair.Question, Answer: pair.Answer})
}

// errorResponse maps service errors onto the HTTP taxonomy: validation
// and parse failures are 400 with their message, missing reports are
// 404, anything else is logged and returned as a generic 500.
func (h *ReportHandler) errorResponse(c echo.Context, err error, generic string) error {
	var validationErr *apperrors.ValidationError
	if errors.As(err, &validationErr) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: validationErr.Message})
	}

	var parseErr *apperrors.ParseError
	if errors.As(err, &parseErr) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: parseErr.Message})
	}

	if errors.Is(err, apperrors.ErrNotFound) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "Report not found."})
	}

	h.logger.Error("unexpected error",
		zap.String("path", c.Request().URL.Path),
		zap.Error(err))
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: generic})
}

func toSummary(r models.Report) ReportSummary {
	return ReportSummary{
		ID:               r.ID,
		OriginalFilename: r.OriginalFilename,
		Columns:          r.Columns,
		RowCount:         r.RowCount,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// RegisterRoutes registers report routes on the API group.
func (h *ReportHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/upload", h.Upload)

	reports := g.Group("/reports")
	reports.GET("", h.List)
	reports.GET("/:id", h.Get)
	reports.DELETE("/:id", h.Delete)
	reports.POST("/:id/insights", h.GenerateInsights)
	reports.POST("/:id/follow-up", h.AskFollowUp)
}
