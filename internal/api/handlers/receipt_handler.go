package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"Grocery-Receipt-Tracker/domain"
	"Grocery-Receipt-Tracker/internal/api/presenters"
	"Grocery-Receipt-Tracker/pkg/receipt"
)

type (
	ReceiptHandler interface {
		UploadReceipts(c *fiber.Ctx) error
		GetReceipts(c *fiber.Ctx) error
		GetSessionSummary(c *fiber.Ctx) error
		MigrateSession(c *fiber.Ctx) error
		ProcessReceipts(c *fiber.Ctx) error
	}

	receiptHandler struct {
		receiptService receipt.ReceiptService
		validator      *validator.Validate
	}
)

func NewReceiptHandler(receiptService receipt.ReceiptService, validator *validator.Validate) ReceiptHandler {
	return &receiptHandler{
		receiptService: receiptService,
		validator:      validator,
	}
}

// currentUserID returns the authenticated user id, or "" on anonymous
// requests that passed the optional-auth middleware.
func currentUserID(c *fiber.Ctx) string {
	if id, ok := c.Locals("user_id").(string); ok {
		return id
	}
	return ""
}

func (h *receiptHandler) UploadReceipts(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	req := domain.UploadReceiptsRequest{
		Files:     form.File["file"],
		StoreName: c.FormValue("storeName"),
		SessionID: c.FormValue("sessionId"),
	}
	if len(req.Files) == 0 {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUploadReceipts, domain.ErrMissingFile)
	}

	res, err := h.receiptService.UploadReceipts(c.Context(), req, currentUserID(c))
	if err != nil {
		if errors.Is(err, domain.ErrMissingFile) || errors.Is(err, domain.ErrInvalidFileType) {
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUploadReceipts, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedUploadReceipts, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessUploadReceipts)
}

func (h *receiptHandler) GetReceipts(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	receipts, err := h.receiptService.ListReceipts(c.Context(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetReceipts, err)
	}

	return presenters.SuccessResponse(c, receipts, fiber.StatusOK, domain.MessageSuccessGetReceipts)
}

func (h *receiptHandler) GetSessionSummary(c *fiber.Ctx) error {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetSummary, domain.ErrSessionRequired)
	}

	summary, err := h.receiptService.SessionSummary(c.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedGetSummary, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetSummary, err)
	}

	return presenters.SuccessResponse(c, summary, fiber.StatusOK, domain.MessageSuccessGetSummary)
}

func (h *receiptHandler) MigrateSession(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	req := new(domain.MigrateSessionRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedMigrateReceipts, err)
	}

	res, err := h.receiptService.MigrateSession(c.Context(), userID, req.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) || errors.Is(err, domain.ErrNothingMigrated) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedMigrateReceipts, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedMigrateReceipts, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessMigrateReceipts)
}

func (h *receiptHandler) ProcessReceipts(c *fiber.Ctx) error {
	req := new(domain.ProcessReceiptsRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedProcessReceipts, err)
	}

	res, err := h.receiptService.ProcessReceipts(c.Context(), *req, currentUserID(c))
	if err != nil {
		if errors.Is(err, domain.ErrSessionRequired) {
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedProcessReceipts, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedProcessReceipts, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessProcessReceipts)
}
