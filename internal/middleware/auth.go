package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/sitwell/internal/config"
	"github.com/example/sitwell/internal/models"
	"github.com/example/sitwell/internal/utils"
)

const (
	userIDContextKey = "currentUserID"
	userContextKey   = "currentUser"
)

// AuthMiddleware validates the bearer token and reloads the account on
// every request. Reloading is what makes an admin block effective
// mid-session: a blocked or deactivated user is rejected here no matter
// how fresh their token is.
func AuthMiddleware(cfg *config.Config, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		userID, err := utils.ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		var user models.User
		if err := db.First(&user, "id = ?", userID).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		if user.IsBlocked {
			return fiber.NewError(fiber.StatusForbidden, "your account has been blocked, please contact support")
		}
		if !user.IsActive {
			return fiber.NewError(fiber.StatusForbidden, "your account is not activated")
		}

		c.Locals(userIDContextKey, userID)
		c.Locals(userContextKey, &user)
		return c.Next()
	}
}

// AdminRequired allows only staff accounts past.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := GetCurrentUser(c)
		if !ok || !user.IsStaff {
			return fiber.NewError(fiber.StatusForbidden, "admin access required")
		}
		return c.Next()
	}
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	value := c.Locals(userIDContextKey)
	if value == nil {
		return uuid.Nil, false
	}

	if id, ok := value.(uuid.UUID); ok {
		return id, true
	}

	return uuid.Nil, false
}

// GetCurrentUser extracts the authenticated user loaded by the
// middleware.
func GetCurrentUser(c *fiber.Ctx) (*models.User, bool) {
	value := c.Locals(userContextKey)
	if value == nil {
		return nil, false
	}

	if user, ok := value.(*models.User); ok {
		return user, true
	}

	return nil, false
}
