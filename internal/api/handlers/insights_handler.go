package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"Grocery-Receipt-Tracker/domain"
	"Grocery-Receipt-Tracker/internal/api/presenters"
	"Grocery-Receipt-Tracker/pkg/insights"
)

type (
	InsightsHandler interface {
		GetInsights(c *fiber.Ctx) error
		GetNarrative(c *fiber.Ctx) error
		GenerateInsights(c *fiber.Ctx) error
	}

	insightsHandler struct {
		insightsService insights.InsightsService
		validator       *validator.Validate
	}
)

func NewInsightsHandler(insightsService insights.InsightsService, validator *validator.Validate) InsightsHandler {
	return &insightsHandler{
		insightsService: insightsService,
		validator:       validator,
	}
}

func (h *insightsHandler) GetInsights(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	rollup, err := h.insightsService.GetRollup(c.Context(), domain.UserOwner(userID))
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetInsights, err)
	}

	return presenters.SuccessResponse(c, rollup, fiber.StatusOK, domain.MessageSuccessGetInsights)
}

func (h *insightsHandler) GetNarrative(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	narrative, err := h.insightsService.GetNarrative(c.Context(), domain.UserOwner(userID))
	if err != nil {
		if errors.Is(err, domain.ErrInsightsNotFound) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedGetInsights, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetInsights, err)
	}

	return presenters.SuccessResponse(c, narrative, fiber.StatusOK, domain.MessageSuccessGetNarrative)
}

// GenerateInsights refreshes the stored narrative for the caller: the
// authenticated user, or an anonymous session when a session id is given.
func (h *insightsHandler) GenerateInsights(c *fiber.Ctx) error {
	req := new(domain.GenerateInsightsRequest)
	if err := c.BodyParser(req); err != nil && len(c.Body()) > 0 {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	var owner domain.Owner
	if userID := currentUserID(c); userID != "" {
		owner = domain.UserOwner(userID)
	} else if req.SessionID != "" {
		owner = domain.SessionOwner(req.SessionID)
	} else {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGenerateInsights, domain.ErrSessionRequired)
	}

	narrative, err := h.insightsService.GenerateNarrative(c.Context(), owner)
	if err != nil {
		if errors.Is(err, domain.ErrNoProcessedReceipt) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedGenerateInsights, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGenerateInsights, err)
	}

	return presenters.SuccessResponse(c, narrative, fiber.StatusOK, domain.MessageSuccessGenerateInsights)
}
