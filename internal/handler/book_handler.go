package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/biblioflow/biblioflow-api/internal/dto"
	"github.com/biblioflow/biblioflow-api/internal/service"
	"github.com/biblioflow/biblioflow-api/internal/utils"
)

// BookHandler exposes the catalogue endpoints.
type BookHandler struct {
	service service.BookService
	logger  zerolog.Logger
}

// NewBookHandler constructs a book handler.
func NewBookHandler(service service.BookService, logger zerolog.Logger) *BookHandler {
	return &BookHandler{
		service: service,
		logger:  logger.With().Str("component", "book_handler").Logger(),
	}
}

// Register wires catalogue routes.
func (h *BookHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("", h.list)
	router.Get("/by-code/:code", h.getByCode)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
}

// RegisterSuggest wires the typeahead route.
func (h *BookHandler) RegisterSuggest(router fiber.Router) {
	router.Get("/books", h.suggest)
}

func (h *BookHandler) create(c *fiber.Ctx) error {
	var payload dto.BookCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Create(c.Context(), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrBookCodeRequired):
			return utils.SendError(c, fiber.StatusBadRequest, "Provide at least SBIN or Stamp code")
		case errors.Is(err, service.ErrDuplicateBookCode):
			return utils.SendError(c, fiber.StatusBadRequest, "Duplicate SBIN or Stamp code")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to create book")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to create book")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "book catalogued", response)
}

func (h *BookHandler) list(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	skip, err := parseQueryInt(c, "skip")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid skip")
	}

	response, err := h.service.List(c.Context(), c.Query("q"), limit, skip)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list books")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list books")
	}

	return utils.SendSuccess(c, "books retrieved", response)
}

func (h *BookHandler) get(c *fiber.Ctx) error {
	response, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, service.ErrBookNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "Book not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to get book")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to get book")
	}

	return utils.SendSuccess(c, "book retrieved", response)
}

func (h *BookHandler) getByCode(c *fiber.Ctx) error {
	response, err := h.service.GetByCode(c.Context(), c.Params("code"))
	if err != nil {
		if errors.Is(err, service.ErrBookNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "Book not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to get book by code")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to get book")
	}

	return utils.SendSuccess(c, "book retrieved", response)
}

func (h *BookHandler) update(c *fiber.Ctx) error {
	var payload dto.BookUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Update(c.Context(), c.Params("id"), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrBookNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "Book not found")
		case errors.Is(err, service.ErrDuplicateBookCode):
			return utils.SendError(c, fiber.StatusBadRequest, "Duplicate SBIN or Stamp code")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to update book")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to update book")
		}
	}

	return utils.SendSuccess(c, "book updated", response)
}

func (h *BookHandler) delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), c.Params("id")); err != nil {
		switch {
		case errors.Is(err, service.ErrBookNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "Book not found")
		case errors.Is(err, service.ErrBookOnLoan):
			return utils.SendError(c, fiber.StatusBadRequest, "Book is currently borrowed")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to delete book")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to delete book")
		}
	}

	return utils.SendSuccess(c, "book deleted", nil)
}

func (h *BookHandler) suggest(c *fiber.Ctx) error {
	response, err := h.service.Suggest(c.Context(), c.Query("q"))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to suggest books")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to suggest books")
	}

	return utils.SendSuccess(c, "book suggestions retrieved", response)
}
