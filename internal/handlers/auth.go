package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/sitwell/internal/config"
	"github.com/example/sitwell/internal/ratelimit"
	"github.com/example/sitwell/internal/services"
	"github.com/example/sitwell/internal/utils"
)

// AuthHandler bundles dependencies for the signup and login endpoints.
type AuthHandler struct {
	auth    *services.AuthService
	cfg     *config.Config
	limiter *ratelimit.Limiter
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth *services.AuthService, cfg *config.Config, limiter *ratelimit.Limiter) *AuthHandler {
	return &AuthHandler{auth: auth, cfg: cfg, limiter: limiter}
}

type registerRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Register creates an inactive account and starts the signup OTP flow.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Password != req.ConfirmPassword {
		return translateError(c, services.NewValidationError("confirm_password", "Passwords don't match."))
	}

	flowToken, err := h.auth.SignUp(c.Context(), services.SignUpInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
	})
	if err != nil {
		return translateError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":    true,
		"message":    "OTP sent to your email.",
		"flow_token": flowToken,
	})
}

type verifyOTPRequest struct {
	FlowToken string `json:"flow_token"`
	Code      string `json:"code"`
}

// VerifySignup activates the account once the signup OTP checks out.
func (h *AuthHandler) VerifySignup(c *fiber.Ctx) error {
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

	if err := h.auth.VerifySignup(c.Context(), req.FlowToken, req.Code, time.Now()); err != nil {
		h.limiter.RecordFailure(c.Context(), req.FlowToken)
		return translateError(c, err)
	}
	h.limiter.Reset(c.Context(), req.FlowToken)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Account verified. Please log in.",
	})
}

type resendOTPRequest struct {
	FlowToken string `json:"flow_token"`
}

// ResendOTP issues a fresh code for an in-flight flow. The previous code
// is dead from this point on.
func (h *AuthHandler) ResendOTP(c *fiber.Ctx) error {
	var req resendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.FlowToken == "" {
		return fiber.NewError(fiber.StatusBadRequest, "flow_token is required")
	}

	if err := h.auth.ResendOTP(c.Context(), req.FlowToken, time.Now()); err != nil {
		return translateError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "A new OTP has been sent to your email.",
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an active, unblocked user and returns a token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return translateError(c, err)
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
		"user": fiber.Map{
			"id":         user.ID,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"email":      user.Email,
			"is_staff":   user.IsStaff,
		},
	})
}
