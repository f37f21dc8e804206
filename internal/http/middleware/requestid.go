package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	RequestIDHeader   = "X-Request-ID"
	RequestIDLocalKey = "request_id"

	maxRequestIDLen = 128
)

// RequestID stores a request ID in c.Locals(RequestIDLocalKey) and echoes it in X-Request-ID.
// The caller's header value is reused when present and at most 128 bytes long.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := incomingRequestID(c)
		c.Locals(RequestIDLocalKey, id)
		c.Set(RequestIDHeader, id)
		return c.Next()
	}
}

func incomingRequestID(c *fiber.Ctx) string {
	if id := c.Get(RequestIDHeader); id != "" && len(id) <= maxRequestIDLen {
		// fasthttp reuses the header buffer after the handler returns.
		return string([]byte(id))
	}
	return uuid.NewString()
}
