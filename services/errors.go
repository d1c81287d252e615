// services/errors.go
package services

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Stable error kinds for the reward ledger. Handlers translate these to HTTP
// statuses; nothing below a handler ever touches fiber.
var (
	ErrUnauthorized    = errors.New("unauthorized: no user identity")
	ErrForbidden       = errors.New("forbidden: caller does not own the target's novel")
	ErrNotFound        = errors.New("target not found")
	ErrDuplicateAction = errors.New("duplicate action")
	ErrInvalidInput    = errors.New("invalid input")
)

// statusForError maps a ledger error to an HTTP status code.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrDuplicateAction):
		return fiber.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// respondError writes the standard error envelope for a ledger error.
func respondError(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	if status == fiber.StatusInternalServerError {
		return c.Status(status).JSON(fiber.Map{"error": "internal error", "cause": err.Error()})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
