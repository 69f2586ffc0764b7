package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/sitwell/internal/models"
	"github.com/example/sitwell/internal/otp"
	"github.com/example/sitwell/internal/services"
)

// translateError maps service errors onto HTTP responses. Anything not
// in the taxonomy bubbles up as a 500 through fiber's error handler; the
// client gets a generic message and the details stay in the logs.
func translateError(c *fiber.Ctx, err error) error {
	var validation *services.ValidationError
	if errors.As(err, &validation) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "validation failed",
			"fields":  validation.Fields,
		})
	}

	switch {
	case errors.Is(err, services.ErrUnavailable),
		errors.Is(err, models.ErrInsufficientStock):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, models.ErrQuantityExceeded):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, otp.ErrExpired):
		return fiber.NewError(fiber.StatusBadRequest, "OTP expired, please request a new one")
	case errors.Is(err, otp.ErrMismatch):
		return fiber.NewError(fiber.StatusBadRequest, "invalid OTP")
	case errors.Is(err, services.ErrTooManyAttempts):
		return fiber.NewError(fiber.StatusTooManyRequests, err.Error())
	case errors.Is(err, services.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "not found")
	case errors.Is(err, services.ErrPermission):
		return fiber.NewError(fiber.StatusForbidden, "permission denied")
	case errors.Is(err, services.ErrInvalidCredentials):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrAccountInactive),
		errors.Is(err, services.ErrAccountBlocked):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	}

	return err
}
