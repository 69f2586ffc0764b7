package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/sitwell/internal/middleware"
	"github.com/example/sitwell/internal/models"
	"github.com/example/sitwell/internal/services"
	"github.com/example/sitwell/internal/utils"
)

// OrderHandler serves checkout and the customer's order history.
type OrderHandler struct {
	db     *gorm.DB
	orders *services.OrderService
}

func NewOrderHandler(db *gorm.DB, orders *services.OrderService) *OrderHandler {
	return &OrderHandler{db: db, orders: orders}
}

type placeOrderRequest struct {
	AddressID  *uuid.UUID `json:"address_id"`
	CouponCode string     `json:"coupon_code"`
	Notes      string     `json:"notes"`
}

// Place checks out the cart as a cash-on-delivery order.
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	var req placeOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.orders.Place(c.Context(), userID, services.PlaceOrderInput{
		AddressID:  req.AddressID,
		CouponCode: req.CouponCode,
		Notes:      req.Notes,
	})
	if err != nil {
		return translateError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Order placed.",
		"order":   order,
	})
}

// List returns the user's orders, newest first.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}
	pagination := utils.ParsePagination(c)

	query := h.db.Model(&models.Order{}).Where("user_id = ?", userID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to count orders")
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("created_at DESC").
		Limit(pagination.Limit).Offset(pagination.Offset).
		Find(&orders).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load orders")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"orders":  orders,
		"pagination": fiber.Map{
			"page":  pagination.Page,
			"limit": pagination.Limit,
			"total": total,
		},
	})
}

// Get returns one of the user's orders with items and status history.
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	var order models.Order
	if err := h.db.Preload("Items").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load order")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"order":   order,
	})
}

type orderActionRequest struct {
	Reason string `json:"reason"`
}

// Cancel cancels a whole order while it is still cancellable and credits
// the stock back.
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	var req orderActionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.orders.Cancel(c.Context(), userID, orderID, req.Reason); err != nil {
		return translateError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Order cancelled.",
	})
}

// CancelItem cancels one line of an early-stage order.
func (h *OrderHandler) CancelItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}
	itemID, err := uuid.Parse(c.Params("itemId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order item id")
	}

	var req orderActionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.orders.CancelItem(c.Context(), userID, orderID, itemID, req.Reason); err != nil {
		return translateError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Item cancelled.",
	})
}

// Return requests a return on a delivered order.
func (h *OrderHandler) Return(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	var req orderActionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Reason == "" {
		return translateError(c, services.NewValidationError("reason", "A return reason is required."))
	}

	if err := h.orders.Return(c.Context(), userID, orderID, req.Reason); err != nil {
		return translateError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Return processed and amount refunded.",
	})
}
