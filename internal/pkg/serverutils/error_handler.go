package serverutils

import (
	"errors"

	"chat-relay-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler answers every failure as plain text "Error: <message>".
// *fiber.Error keeps its status code, anything else is a 500.
func ErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return func(ctx *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
		}

		if code >= fiber.StatusInternalServerError {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"status": code,
				"error":  err.Error(),
			})
		}

		ctx.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return ctx.Status(code).SendString("Error: " + err.Error())
	}
}
