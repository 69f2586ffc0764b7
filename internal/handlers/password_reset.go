package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/sitwell/internal/ratelimit"
	"github.com/example/sitwell/internal/services"
)

// PasswordResetHandler serves the three-step forgot-password flow.
type PasswordResetHandler struct {
	auth    *services.AuthService
	limiter *ratelimit.Limiter
}

func NewPasswordResetHandler(auth *services.AuthService, limiter *ratelimit.Limiter) *PasswordResetHandler {
	return &PasswordResetHandler{auth: auth, limiter: limiter}
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// Forgot starts a reset flow and emails the OTP. An unknown email is a
// plain 404: the flow token in the response already reveals whether the
// account exists, so pretending otherwise would only mislead.
func (h *PasswordResetHandler) Forgot(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email is required")
	}

	flowToken, err := h.auth.RequestPasswordReset(c.Context(), req.Email)
	if err != nil {
		return translateError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"message":    "OTP sent to your email.",
		"flow_token": flowToken,
	})
}

// VerifyOTP checks the reset code and marks the flow verified.
func (h *PasswordResetHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.FlowToken == "" || req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "flow_token and code are required")
	}

	if h.limiter.Blocked(c.Context(), req.FlowToken) {
		return translateError(c, services.ErrTooManyAttempts)
	}

	if err := h.auth.VerifyResetOTP(c.Context(), req.FlowToken, req.Code, time.Now()); err != nil {
		h.limiter.RecordFailure(c.Context(), req.FlowToken)
		return translateError(c, err)
	}
	h.limiter.Reset(c.Context(), req.FlowToken)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "OTP verified. You may now set a new password.",
	})
}

type resetPasswordRequest struct {
	FlowToken       string `json:"flow_token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Reset sets the new password on a verified flow and closes it.
func (h *PasswordResetHandler) Reset(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.FlowToken == "" {
		return fiber.NewError(fiber.StatusBadRequest, "flow_token is required")
	}
	if req.Password != req.ConfirmPassword {
		return translateError(c, services.NewValidationError("confirm_password", "Passwords don't match."))
	}

	if err := h.auth.SetNewPassword(c.Context(), req.FlowToken, req.Password, time.Now()); err != nil {
		return translateError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Password updated. Please log in with your new password.",
	})
}
