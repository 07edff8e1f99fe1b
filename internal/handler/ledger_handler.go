package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/biblioflow/biblioflow-api/internal/dto"
	"github.com/biblioflow/biblioflow-api/internal/service"
	"github.com/biblioflow/biblioflow-api/internal/utils"
)

// LedgerHandler exposes the circulation-desk endpoints.
type LedgerHandler struct {
	service service.LedgerService
	logger  zerolog.Logger
}

// NewLedgerHandler constructs a ledger handler.
func NewLedgerHandler(service service.LedgerService, logger zerolog.Logger) *LedgerHandler {
	return &LedgerHandler{
		service: service,
		logger:  logger.With().Str("component", "ledger_handler").Logger(),
	}
}

// Register wires circulation routes.
func (h *LedgerHandler) Register(router fiber.Router) {
	router.Post("/borrow", h.borrow)
	router.Post("/return", h.returnBook)
	router.Get("/borrows", h.listBorrows)
}

func (h *LedgerHandler) borrow(c *fiber.Ctx) error {
	var payload dto.BorrowRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Borrow(c.Context(), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrStudentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "Student not found")
		case errors.Is(err, service.ErrBookNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "Book not found")
		case errors.Is(err, service.ErrBookNotAvailable):
			return utils.SendError(c, fiber.StatusBadRequest, "Book is not available")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to borrow book")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to borrow book")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "book borrowed", response)
}

func (h *LedgerHandler) returnBook(c *fiber.Ctx) error {
	var payload dto.ReturnRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Return(c.Context(), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrBookNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "Book not found")
		case errors.Is(err, service.ErrNoActiveBorrow):
			return utils.SendError(c, fiber.StatusBadRequest, "No active borrow for this book")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to return book")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to return book")
		}
	}

	return utils.SendSuccess(c, "book returned", response)
}

func (h *LedgerHandler) listBorrows(c *fiber.Ctx) error {
	// The bare listing shows the desk's open loans; pass active=false for history.
	active, err := parseQueryBool(c, "active", true)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid active flag")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	skip, err := parseQueryInt(c, "skip")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid skip")
	}

	response, err := h.service.ListBorrows(c.Context(), dto.BorrowListRequest{
		Active: active,
		Limit:  limit,
		Skip:   skip,
	})
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list borrows")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list borrows")
	}

	return utils.SendSuccess(c, "borrows retrieved", response)
}
