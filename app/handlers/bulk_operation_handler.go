package handlers

import (
	"github.com/dimpinis9/estately/app/dto"
	"github.com/dimpinis9/estately/app/middleware"
	businessflow "github.com/dimpinis9/estately/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// BulkOperationHandlerInterface defines the contract for bulk operation handlers
type BulkOperationHandlerInterface interface {
	Execute(c fiber.Ctx) error
}

// BulkOperationHandler handles bulk mutations over an owner's leads and properties
type BulkOperationHandler struct {
	flow      businessflow.BulkOperationFlow
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBulkOperationHandler creates a new bulk operation handler
func NewBulkOperationHandler(flow businessflow.BulkOperationFlow, logger *zap.Logger) *BulkOperationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkOperationHandler{
		flow:      flow,
		validator: validator.New(),
		logger:    logger,
	}
}

// Execute applies one action to every listed entity and reports per-item outcomes
// @Summary Execute Bulk Operation
// @Tags BulkOperations
// @Accept json
// @Produce json
// @Param request body dto.BulkOperationRequest true "Bulk operation"
// @Success 200 {object} dto.APIResponse{data=dto.BulkOperationResult} "Batch processed, see per-item errors"
// @Failure 400 {object} dto.APIResponse "Request rejected before any item ran"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/bulk-operations [post]
func (h *BulkOperationHandler) Execute(c fiber.Ctx) error {
	ownerID, ok := middleware.GetOwnerIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Owner not found in context", businessflow.ErrCodeOwnerContextMissing, nil)
	}

	var req dto.BulkOperationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", businessflow.ErrCodeValidation, validationMessages(err))
	}

	ctx, cancel := requestContext(c, "/api/v1/bulk-operations", defaultRequestTimeout)
	defer cancel()

	result, err := h.flow.Execute(ctx, ownerID, &req, clientMetadata(c))
	if err != nil {
		switch {
		case businessflow.IsOwnerContextMissing(err):
			return errorResponse(c, fiber.StatusUnauthorized, "Owner not found in context", businessflow.ErrCodeOwnerContextMissing, nil)
		case businessflow.IsValidationError(err):
			return errorResponse(c, fiber.StatusBadRequest, "Invalid bulk operation request", businessflow.ErrCodeValidation, err.Error())
		}

		h.logger.Error("bulk operation failed", zap.Uint("owner_id", ownerID), zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Bulk operation failed", "BULK_OPERATION_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Bulk operation processed", result)
}
