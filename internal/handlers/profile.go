package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/sitwell/internal/middleware"
	"github.com/example/sitwell/internal/models"
	"github.com/example/sitwell/internal/ratelimit"
	"github.com/example/sitwell/internal/services"
	"github.com/example/sitwell/internal/utils"
)

// ProfileHandler serves the logged-in user's profile, addresses and wishlist.
type ProfileHandler struct {
	db      *gorm.DB
	auth    *services.AuthService
	limiter *ratelimit.Limiter
}

func NewProfileHandler(db *gorm.DB, auth *services.AuthService, limiter *ratelimit.Limiter) *ProfileHandler {
	return &ProfileHandler{db: db, auth: auth, limiter: limiter}
}

// Me returns the current user's profile.
func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

type updateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
}

// UpdateMe edits the mutable profile fields. Email changes go through the
// dedicated OTP flow instead.
func (h *ProfileHandler) UpdateMe(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.FirstName != nil {
		if msg := utils.ValidateName(*req.FirstName); msg != "" {
			return translateError(c, services.NewValidationError("first_name", msg))
		}
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		if msg := utils.ValidateName(*req.LastName); msg != "" {
			return translateError(c, services.NewValidationError("last_name", msg))
		}
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		normalized, msg := utils.ValidatePhone(*req.Phone)
		if msg != "" {
			return translateError(c, services.NewValidationError("phone", msg))
		}
		var count int64
		h.db.Model(&models.User{}).
			Where("phone = ? AND id <> ?", normalized, user.ID).
			Count(&count)
		if count > 0 {
			return translateError(c, services.NewValidationError("phone", "This phone number is already in use."))
		}
		user.Phone = normalized
	}

	if err := h.db.Save(user).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to update profile")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

type emailChangeRequest struct {
	NewEmail string `json:"new_email"`
}

// RequestEmailChange stages a new email address and sends the OTP to it.
func (h *ProfileHandler) RequestEmailChange(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	var req emailChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	flowToken, err := h.auth.RequestEmailChange(c.Context(), userID, req.NewEmail)
	if err != nil {
		return translateError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"message":    "OTP sent to the new email address.",
		"flow_token": flowToken,
	})
}

// VerifyEmailChange confirms the OTP and swaps the address over.
func (h *ProfileHandler) VerifyEmailChange(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

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

	if err := h.auth.VerifyEmailChange(c.Context(), userID, req.FlowToken, req.Code, time.Now()); err != nil {
		h.limiter.RecordFailure(c.Context(), req.FlowToken)
		return translateError(c, err)
	}
	h.limiter.Reset(c.Context(), req.FlowToken)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Email address updated.",
	})
}

// ListAddresses returns the user's saved shipping addresses, default first.
func (h *ProfileHandler) ListAddresses(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	var addresses []models.UserAddress
	if err := h.db.Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").
		Find(&addresses).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load addresses")
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"addresses": addresses,
	})
}

type addressRequest struct {
	Label       string `json:"label"`
	FullName    string `json:"full_name"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	District    string `json:"district"`
	PostalCode  string `json:"postal_code"`
	Phone       string `json:"phone"`
	IsDefault   bool   `json:"is_default"`
}

func (r *addressRequest) validate() error {
	if r.FullName == "" {
		return services.NewValidationError("full_name", "Full name is required.")
	}
	if r.AddressLine == "" {
		return services.NewValidationError("address_line", "Address line is required.")
	}
	if r.City == "" {
		return services.NewValidationError("city", "City is required.")
	}
	phone, msg := utils.ValidatePhone(r.Phone)
	if msg != "" {
		return services.NewValidationError("phone", msg)
	}
	r.Phone = phone
	return nil
}

// CreateAddress adds a shipping address. The first address a user saves
// becomes the default automatically.
func (h *ProfileHandler) CreateAddress(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	var req addressRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := req.validate(); err != nil {
		return translateError(c, err)
	}

	address := models.UserAddress{
		UserID:      userID,
		Label:       req.Label,
		FullName:    req.FullName,
		AddressLine: req.AddressLine,
		City:        req.City,
		District:    req.District,
		PostalCode:  req.PostalCode,
		Phone:       req.Phone,
		IsDefault:   req.IsDefault,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.UserAddress{}).
			Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			address.IsDefault = true
		} else if address.IsDefault {
			if err := clearDefaultAddress(tx, userID); err != nil {
				return err
			}
		}
		return tx.Create(&address).Error
	})
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to save address")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"address": address,
	})
}

// UpdateAddress edits an address the user owns.
func (h *ProfileHandler) UpdateAddress(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}
	addressID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid address id")
	}

	var req addressRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := req.validate(); err != nil {
		return translateError(c, err)
	}

	var address models.UserAddress
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", addressID, userID).
			First(&address).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return services.ErrNotFound
			}
			return err
		}

		if req.IsDefault && !address.IsDefault {
			if err := clearDefaultAddress(tx, userID); err != nil {
				return err
			}
		}

		address.Label = req.Label
		address.FullName = req.FullName
		address.AddressLine = req.AddressLine
		address.City = req.City
		address.District = req.District
		address.PostalCode = req.PostalCode
		address.Phone = req.Phone
		address.IsDefault = address.IsDefault || req.IsDefault
		return tx.Save(&address).Error
	})
	if err != nil {
		return translateError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"address": address,
	})
}

// DeleteAddress removes an address. If it was the default, the most
// recently created remaining address takes over.
func (h *ProfileHandler) DeleteAddress(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}
	addressID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid address id")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		var address models.UserAddress
		if err := tx.Where("id = ? AND user_id = ?", addressID, userID).
			First(&address).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return services.ErrNotFound
			}
			return err
		}

		if err := tx.Delete(&address).Error; err != nil {
			return err
		}

		if address.IsDefault {
			var next models.UserAddress
			err := tx.Where("user_id = ?", userID).
				Order("created_at DESC").
				First(&next).Error
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			if err != nil {
				return err
			}
			next.IsDefault = true
			return tx.Save(&next).Error
		}
		return nil
	})
	if err != nil {
		return translateError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Address deleted.",
	})
}

func clearDefaultAddress(tx *gorm.DB, userID uuid.UUID) error {
	return tx.Model(&models.UserAddress{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}

// ListWishlist returns the user's bookmarked products.
func (h *ProfileHandler) ListWishlist(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	var items []models.WishlistItem
	if err := h.db.Preload("Product").Preload("Product.Category").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load wishlist")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"items":   items,
	})
}

type wishlistRequest struct {
	ProductID uuid.UUID `json:"product_id"`
}

// AddToWishlist bookmarks a product. Adding an already-bookmarked product
// is a no-op.
func (h *ProfileHandler) AddToWishlist(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	var req wishlistRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.ProductID == uuid.Nil {
		return fiber.NewError(fiber.StatusBadRequest, "product_id is required")
	}

	var product models.Product
	if err := h.db.Preload("Category").
		Where("id = ? AND is_deleted = ?", req.ProductID, false).
		First(&product).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return translateError(c, services.ErrNotFound)
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load product")
	}

	item := models.WishlistItem{UserID: userID, ProductID: product.ID}
	if err := h.db.Where("user_id = ? AND product_id = ?", userID, product.ID).
		FirstOrCreate(&item).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to update wishlist")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Added to wishlist.",
	})
}

// RemoveFromWishlist drops a bookmark.
func (h *ProfileHandler) RemoveFromWishlist(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}
	productID, err := uuid.Parse(c.Params("productId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	if err := h.db.Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{}).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to update wishlist")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Removed from wishlist.",
	})
}
