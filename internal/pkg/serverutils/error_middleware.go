package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into the standard
// response envelope. statusOf maps domain errors to HTTP codes; zero means
// it does not know the error.
func ErrorHandlerMiddleware(statusOf func(error) int) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		var fiberErr *fiber.Error
		var validationErr *ValidationError
		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
		case errors.As(err, &validationErr):
			code = fiber.StatusBadRequest
		case statusOf != nil:
			if mapped := statusOf(err); mapped != 0 {
				code = mapped
			}
		}

		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}
