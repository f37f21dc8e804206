package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"invoiceanalytics/internal/http/middleware"
)

// errorPayload is the body of every non-2xx JSON response.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func requestIDFromCtx(c *fiber.Ctx) string {
	s, _ := c.Locals(middleware.RequestIDLocalKey).(string)
	return s
}

// writeError writes the error envelope with the given status and machine-readable code
// (e.g. "INVALID_PAGE", "NOT_FOUND", "INTERNAL_ERROR").
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error:     errorEnvelope{Code: code, Message: message},
	})
}

// internalError reports a failed read with the underlying error text.
func internalError(c *fiber.Ctx, err error) error {
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
}

// ErrorHandler is the app-wide handler for errors that escape the route handlers,
// mostly routing misses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
