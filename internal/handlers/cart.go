package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/sitwell/internal/middleware"
	"github.com/example/sitwell/internal/models"
	"github.com/example/sitwell/internal/services"
)

// CartHandler serves the logged-in user's cart.
type CartHandler struct {
	carts *services.CartService
}

func NewCartHandler(carts *services.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// Get returns the cart with derived line and cart totals.
func (h *CartHandler) Get(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	cart, err := h.carts.Get(c.Context(), userID)
	if err != nil {
		return translateError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"cart":    cartView(cart),
	})
}

type addToCartRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// Add puts a product in the cart, or bumps the quantity if it is already
// there. The product leaves the wishlist at the same time.
func (h *CartHandler) Add(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	var req addToCartRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.ProductID == uuid.Nil {
		return fiber.NewError(fiber.StatusBadRequest, "product_id is required")
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	if err := h.carts.Add(c.Context(), userID, req.ProductID, req.Quantity); err != nil {
		return translateError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Added to cart.",
	})
}

type updateQuantityRequest struct {
	Delta int `json:"delta"`
}

// UpdateQuantity steps a line's quantity up or down by one.
func (h *CartHandler) UpdateQuantity(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}
	itemID, err := uuid.Parse(c.Params("itemId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid cart item id")
	}

	var req updateQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.carts.UpdateQuantity(c.Context(), userID, itemID, req.Delta); err != nil {
		return translateError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Quantity updated.",
	})
}

// Remove drops a line from the cart.
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}
	itemID, err := uuid.Parse(c.Params("itemId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid cart item id")
	}

	if err := h.carts.Remove(c.Context(), userID, itemID); err != nil {
		return translateError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Item removed.",
	})
}

// Clear empties the cart.
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	if err := h.carts.Clear(c.Context(), userID); err != nil {
		return translateError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Cart cleared.",
	})
}

func cartView(cart *models.Cart) fiber.Map {
	items := make([]fiber.Map, 0, len(cart.Items))
	for i := range cart.Items {
		item := &cart.Items[i]
		view := fiber.Map{
			"id":         item.ID,
			"product_id": item.ProductID,
			"quantity":   item.Quantity,
			"line_total": item.LineTotal(),
		}
		if item.Product != nil {
			view["product"] = fiber.Map{
				"name":             item.Product.Name,
				"sku":              item.Product.SKU,
				"price":            item.Product.Price,
				"discounted_price": item.Product.DiscountedPrice(),
				"status":           item.Product.Status,
				"stock_quantity":   item.Product.StockQuantity,
				"available":        item.Product.Purchasable(item.Quantity),
			}
		}
		items = append(items, view)
	}

	return fiber.Map{
		"id":           cart.ID,
		"items":        items,
		"total_items":  cart.TotalItems(),
		"total_amount": cart.TotalAmount(),
		"checkout_ok":  cart.ValidForCheckout(),
	}
}
