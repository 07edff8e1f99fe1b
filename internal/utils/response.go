package utils

import "github.com/gofiber/fiber/v2"

// APIResponse is the envelope every circulation endpoint returns. Data carries
// the student, book, or borrow payload and is omitted on errors.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
}

const (
	defaultSuccessMessage = "success"
	defaultErrorMessage   = "error"
)

// SendSuccess writes a 200 envelope, e.g. a fetched book or a closed borrow.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendSuccessWithStatus writes a success envelope with an explicit status.
// Handlers use this for 201s on registrations and checkouts.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	if message == "" {
		message = defaultSuccessMessage
	}
	if status == 0 {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// SendError writes a failure envelope carrying only the desk-facing message,
// such as "Book is not available" or "No active borrow for this book".
func SendError(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = defaultErrorMessage
	}

	return c.Status(status).JSON(APIResponse{
		Success: false,
		Message: message,
	})
}
