package handlers

import (
	"time"

	"github.com/dimpinis9/estately/app/dto"
	"github.com/dimpinis9/estately/app/middleware"
	businessflow "github.com/dimpinis9/estately/business_flow"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// DashboardHandlerInterface defines the contract for dashboard handlers
type DashboardHandlerInterface interface {
	GetMetrics(c fiber.Ctx) error
	ExportMetrics(c fiber.Ctx) error
}

// DashboardHandler serves the owner's dashboard figures
type DashboardHandler struct {
	flow   businessflow.DashboardMetricsFlow
	logger *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(flow businessflow.DashboardMetricsFlow, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{flow: flow, logger: logger}
}

// parseAt reads the optional RFC3339 "at" query parameter. Absent means now.
func parseAt(c fiber.Ctx) (time.Time, error) {
	var req dto.DashboardMetricsRequest
	if err := c.Bind().Query(&req); err != nil {
		return time.Time{}, err
	}
	if req.At == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, req.At)
}

// GetMetrics returns the dashboard metrics
// @Summary Dashboard Metrics
// @Tags Dashboard
// @Produce json
// @Param at query string false "Evaluation instant, RFC3339"
// @Success 200 {object} dto.APIResponse{data=dto.DashboardMetrics} "Metrics, possibly with degraded sections"
// @Failure 400 {object} dto.APIResponse "Invalid at parameter"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/dashboard/metrics [get]
func (h *DashboardHandler) GetMetrics(c fiber.Ctx) error {
	ownerID, ok := middleware.GetOwnerIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Owner not found in context", businessflow.ErrCodeOwnerContextMissing, nil)
	}

	at, err := parseAt(c)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid at parameter, expected RFC3339", "INVALID_AT", err.Error())
	}

	ctx, cancel := requestContext(c, "/api/v1/dashboard/metrics", defaultRequestTimeout)
	defer cancel()

	metrics, err := h.flow.GetDashboardMetrics(ctx, ownerID, at)
	if err != nil {
		if businessflow.IsOwnerContextMissing(err) {
			return errorResponse(c, fiber.StatusUnauthorized, "Owner not found in context", businessflow.ErrCodeOwnerContextMissing, nil)
		}
		h.logger.Error("dashboard metrics failed", zap.Uint("owner_id", ownerID), zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to compute dashboard metrics", "DASHBOARD_METRICS_FAILED", nil)
	}

	message := "Dashboard metrics retrieved successfully"
	if metrics.IsDegraded() {
		message = "Dashboard metrics partially available"
	}
	return successResponse(c, fiber.StatusOK, message, metrics)
}

// ExportMetrics downloads the dashboard metrics as an XLSX workbook
// @Summary Export Dashboard Metrics
// @Tags Dashboard
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param at query string false "Evaluation instant, RFC3339"
// @Success 200 {file} file
// @Failure 400 {object} dto.APIResponse "Invalid at parameter"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Export failed"
// @Router /api/v1/dashboard/metrics/export [get]
func (h *DashboardHandler) ExportMetrics(c fiber.Ctx) error {
	ownerID, ok := middleware.GetOwnerIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Owner not found in context", businessflow.ErrCodeOwnerContextMissing, nil)
	}

	at, err := parseAt(c)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid at parameter, expected RFC3339", "INVALID_AT", err.Error())
	}

	ctx, cancel := requestContext(c, "/api/v1/dashboard/metrics/export", defaultRequestTimeout)
	defer cancel()

	filename, data, err := h.flow.ExportDashboardMetrics(ctx, ownerID, at)
	if err != nil {
		if businessflow.IsOwnerContextMissing(err) {
			return errorResponse(c, fiber.StatusUnauthorized, "Owner not found in context", businessflow.ErrCodeOwnerContextMissing, nil)
		}
		h.logger.Error("dashboard export failed", zap.Uint("owner_id", ownerID), zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to generate Excel", businessflow.ErrCodeMetricsExportFailure, nil)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}
