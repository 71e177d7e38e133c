package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/riya-shete/csv-analyzer/internal/services"
)

// HealthHandler handles the health check endpoint for the status page.
type HealthHandler struct {
	svc *services.ReportService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(svc *services.ReportService) *HealthHandler {
	return &HealthHandler{svc: svc}
}

// HealthResponse enumerates per-subsystem status plus the overall
// rollup. The endpoint itself always answers 200; problems show up in
// the body.
type HealthResponse struct {
	Backend  services.SubsystemHealth `json:"backend"`
	Database services.SubsystemHealth `json:"database"`
	LLM      services.SubsystemHealth `json:"llm"`
	Overall  string                   `json:"overall"`
}

// Health handles GET /api/health. Checks backend, database and LLM
// connection.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx := c.Request().Context()

	resp := HealthResponse{
		Backend:  services.SubsystemHealth{Status: "healthy", Detail: "Server is running"},
		Database: h.svc.DatabaseHealth(ctx),
		LLM:      h.svc.LLMHealth(ctx),
	}
	resp.Overall = overallStatus(resp.Backend, resp.Database, resp.LLM)

	return c.JSON(http.StatusOK, resp)
}

// overallStatus is "healthy" only when every subsystem is healthy,
// "error" when any subsystem reports an error, "degraded" otherwise.
func overallStatus(subsystems ...services.SubsystemHealth) string {
	allHealthy := true
	for _, s := range subsystems {
		switch s.Status {
		case "error":
			return "error"
		case "healthy":
		default:
			allHealthy = false
		}
	}
	if allHealthy {
		return "healthy"
	}
	return "degraded"
}

// RegisterRoutes registers the health route on the API group.
func (h *HealthHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/health", h.Health)
}
