package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Status maps an error kind to the HTTP status sent to the client.
func Status(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	switch KindOf(err) {
	case KindValidation, KindInvalidFilter:
		return fiber.StatusBadRequest
	case KindAuthorization:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	case KindNetwork:
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler renders every error as {"error", "kind", "field", "retryable"}.
// Internal errors are logged and their text is not sent.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := Status(err)
		body := fiber.Map{"error": err.Error()}

		var e *Error
		if errors.As(err, &e) {
			body["kind"] = e.Kind
			if e.Field != "" {
				body["field"] = e.Field
			}
			if e.Kind == KindNetwork {
				body["retryable"] = true
			}
		}
		if code >= fiber.StatusInternalServerError && code != fiber.StatusBadGateway {
			log.Error("internal error", zap.String("path", c.Path()), zap.Error(err))
			if e == nil {
				body["error"] = "internal server error"
			}
		}
		return c.Status(code).JSON(body)
	}
}
