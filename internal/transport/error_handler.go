package transport

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/emrekoc/notifyq/internal/observability"
)

// ErrorHandler is the fiber fallback for errors no route handler mapped.
// The log line carries the request id so it can be joined with the worker's
// correlation-tagged lines for the same notification.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
		}

		log := observability.WithContextLogger(logger, c.UserContext())
		requestID, _ := c.Locals("requestid").(string)
		if requestID != "" {
			log = log.With(zap.String("requestId", requestID))
		}

		log.Error("request error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		)

		body := fiber.Map{"error": err.Error()}
		if requestID != "" {
			body["request_id"] = requestID
		}

		return c.Status(code).JSON(body)
	}
}
