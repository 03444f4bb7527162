package handlers

import (
	"github.com/dimpinis9/estately/app/dto"
	businessflow "github.com/dimpinis9/estately/business_flow"
	"github.com/dimpinis9/estately/models"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// StatusTransitionHandlerInterface exposes the transition tables to clients
type StatusTransitionHandlerInterface interface {
	AllowedTransitions(c fiber.Ctx) error
	ValidateTransition(c fiber.Ctx) error
}

type StatusTransitionHandler struct {
	validator *validator.Validate
}

func NewStatusTransitionHandler() *StatusTransitionHandler {
	return &StatusTransitionHandler{validator: validator.New()}
}

// AllowedTransitions lists the statuses reachable from the given one
// @Summary Allowed Status Transitions
// @Tags StatusTransitions
// @Produce json
// @Param kind query string true "lead or property"
// @Param from query string true "Current status"
// @Success 200 {object} dto.APIResponse{data=dto.AllowedTransitionsResponse}
// @Failure 400 {object} dto.APIResponse
// @Router /api/v1/status-transitions [get]
func (h *StatusTransitionHandler) AllowedTransitions(c fiber.Ctx) error {
	var req dto.AllowedTransitionsRequest
	if err := c.Bind().Query(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", businessflow.ErrCodeValidation, validationMessages(err))
	}

	return successResponse(c, fiber.StatusOK, "Allowed transitions retrieved successfully", dto.AllowedTransitionsResponse{
		Kind:    req.Kind,
		From:    req.From,
		Allowed: businessflow.AllowedTransitions(models.EntityKind(req.Kind), req.From),
	})
}

// ValidateTransition reports whether a single move is legal and why not
// @Summary Validate Status Transition
// @Tags StatusTransitions
// @Accept json
// @Produce json
// @Param request body dto.ValidateTransitionRequest true "Transition"
// @Success 200 {object} dto.APIResponse{data=dto.TransitionDecisionResponse}
// @Failure 400 {object} dto.APIResponse
// @Router /api/v1/status-transitions/validate [post]
func (h *StatusTransitionHandler) ValidateTransition(c fiber.Ctx) error {
	var req dto.ValidateTransitionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", businessflow.ErrCodeValidation, validationMessages(err))
	}

	decision := businessflow.ValidateTransition(models.EntityKind(req.Kind), req.From, req.To)
	return successResponse(c, fiber.StatusOK, "Transition evaluated", dto.TransitionDecisionResponse{
		Allowed: decision.Allowed,
		Reason:  string(decision.Reason),
	})
}
