package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/surveyplan/internal/core/ports"
	"github.com/samirrijal/surveyplan/internal/core/usecases"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errUnprocessable returns a 422 error.
func errUnprocessable(c *fiber.Ctx, msg string) error {
	return newError(c, 422, "unprocessable", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errUnavailable returns a 503 error.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, 503, "unavailable", msg)
}

// planError maps service errors onto API errors. Internal details are logged,
// not returned.
func planError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, usecases.ErrInvalidRequest):
		return errBadRequest(c, err.Error())
	case errors.Is(err, usecases.ErrPlanTooLarge):
		return errUnprocessable(c, err.Error())
	case errors.Is(err, ports.ErrNotFound):
		return errNotFound(c, "plan not found")
	default:
		LoggerFromCtx(c.UserContext()).Error("plan request failed", "error", err)
		return errInternal(c, "internal error")
	}
}
