package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/encinapp/encinapp/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int               `json:"status"`
	Code      string            `json:"code"`    // bad_request, not_found, bad_gateway, ...
	Message   string            `json:"message"` // Human-readable message
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	return c.Status(status).JSON(apiError(c, status, code, message))
}

func apiError(c *fiber.Ctx, status int, code string, message string) APIError {
	reqID, _ := c.Locals("requestid").(string)
	return APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	}
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errUnauthorized returns a 401 error.
func errUnauthorized(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusUnauthorized, "unauthorized", msg)
}

// errForbidden returns a 403 error.
func errForbidden(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusForbidden, "forbidden", msg)
}

// errConflict returns a 409 error.
func errConflict(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusConflict, "conflict", msg)
}

// errBadGateway returns a 502 error.
func errBadGateway(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadGateway, "bad_gateway", msg)
}

// errUnavailable returns a 503 error.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusServiceUnavailable, "service_unavailable", msg)
}

// respondError maps a service error onto its HTTP status.
func respondError(c *fiber.Ctx, err error) error {
	var (
		verr *domain.ValidationError
		berr *domain.BackendError
	)
	switch {
	case errors.As(err, &verr):
		e := apiError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
		e.Fields = verr.Fields
		return c.Status(e.Status).JSON(e)
	case errors.Is(err, domain.ErrInvalidCategory):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNotificationNotFound):
		return errNotFound(c, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrSessionExpired),
		errors.Is(err, domain.ErrUnauthenticated):
		return errUnauthorized(c, err.Error())
	case errors.Is(err, domain.ErrPermissionDenied):
		return errForbidden(c, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		return errConflict(c, err.Error())
	case errors.Is(err, domain.ErrLocationUnavailable):
		return errUnavailable(c, err.Error())
	case errors.Is(err, domain.ErrBackendUnavailable), errors.As(err, &berr):
		return errBadGateway(c, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return newError(c, fiber.StatusGatewayTimeout, "timeout", err.Error())
	}
	return errInternal(c, err.Error())
}
