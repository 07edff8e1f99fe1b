package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/biblioflow/biblioflow-api/internal/dto"
	"github.com/biblioflow/biblioflow-api/internal/service"
	"github.com/biblioflow/biblioflow-api/internal/utils"
)

// StudentHandler exposes the student registry endpoints.
type StudentHandler struct {
	service service.StudentService
	logger  zerolog.Logger
}

// NewStudentHandler constructs a student handler.
func NewStudentHandler(service service.StudentService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		service: service,
		logger:  logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register wires student routes.
func (h *StudentHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
}

// RegisterSuggest wires the typeahead route.
func (h *StudentHandler) RegisterSuggest(router fiber.Router) {
	router.Get("/students", h.suggest)
}

func (h *StudentHandler) create(c *fiber.Ctx) error {
	var payload dto.StudentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Create(c.Context(), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrDuplicateAdmission):
			return utils.SendError(c, fiber.StatusBadRequest, "Admission number already exists")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to create student")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to create student")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student registered", response)
}

func (h *StudentHandler) list(c *fiber.Ctx) error {
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
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list students")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list students")
	}

	return utils.SendSuccess(c, "students retrieved", response)
}

func (h *StudentHandler) get(c *fiber.Ctx) error {
	response, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "Student not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to get student")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to get student")
	}

	return utils.SendSuccess(c, "student retrieved", response)
}

func (h *StudentHandler) update(c *fiber.Ctx) error {
	var payload dto.StudentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Update(c.Context(), c.Params("id"), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrStudentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "Student not found")
		case errors.Is(err, service.ErrDuplicateAdmission):
			return utils.SendError(c, fiber.StatusBadRequest, "Admission number already exists")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to update student")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to update student")
		}
	}

	return utils.SendSuccess(c, "student updated", response)
}

func (h *StudentHandler) delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), c.Params("id")); err != nil {
		switch {
		case errors.Is(err, service.ErrStudentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "Student not found")
		case errors.Is(err, service.ErrStudentHasActiveBorrow):
			return utils.SendError(c, fiber.StatusBadRequest, "Student has active borrow")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to delete student")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to delete student")
		}
	}

	return utils.SendSuccess(c, "student deleted", nil)
}

func (h *StudentHandler) suggest(c *fiber.Ctx) error {
	response, err := h.service.Suggest(c.Context(), c.Query("q"))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to suggest students")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to suggest students")
	}

	return utils.SendSuccess(c, "student suggestions retrieved", response)
}
