package controller

import (
	"errors"

	"ragchat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ErrorStatus maps service errors to HTTP status codes. Unknown errors map
// to zero.
func ErrorStatus(err error) int {
	var backendErr *service.BackendError
	switch {
	case errors.Is(err, service.ErrEmptyQuery), errors.Is(err, service.ErrEmptyDocument):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrSessionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrQueryInFlight):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrNoDocuments):
		return fiber.StatusUnprocessableEntity
	case errors.As(err, &backendErr):
		return fiber.StatusBadGateway
	}
	return 0
}
