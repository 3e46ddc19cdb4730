package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/lgatracker/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, not_found, registry_unavailable, rate_limited, internal_error
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

func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

func errUnavailable(c *fiber.Ctx, msg string) error {
	c.Set(fiber.HeaderRetryAfter, "5")
	return newError(c, fiber.StatusServiceUnavailable, "registry_unavailable", msg)
}

func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errFromDomain maps core errors to HTTP responses.
func errFromDomain(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrRegistryUnavailable):
		return errUnavailable(c, "region boundaries are not loaded yet")
	case errors.Is(err, domain.ErrRegionNotFound):
		return errNotFound(c, "region not found")
	default:
		LoggerFromCtx(c.UserContext()).Error("request failed", "error", err)
		return errInternal(c, err.Error())
	}
}
