package models

import (
	"errors"

	"github.com/google/uuid"
)

// MaxQuantityPerProduct caps how many units of a single product one cart
// may hold, independent of stock.
const MaxQuantityPerProduct = 5

// Cart quantity errors, surfaced verbatim by the cart service.
var (
	ErrQuantityExceeded  = errors.New("quantity exceeds the per-product limit")
	ErrInsufficientStock = errors.New("not enough stock for the requested quantity")
)

// Cart holds a user's lines until checkout. One cart per user; it is
// created lazily on the first add.
type Cart struct {
	BaseModel
	UserID uuid.UUID  `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	Items  []CartItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// CartItem is one (product, quantity) line. A deleted product cascades
// out of carts; order history keeps its own frozen copy instead.
type CartItem struct {
	BaseModel
	CartID    uuid.UUID `gorm:"type:uuid;index;index:idx_cart_product,unique" json:"cart_id"`
	ProductID uuid.UUID `gorm:"type:uuid;index:idx_cart_product,unique" json:"product_id"`
	Product   *Product  `gorm:"constraint:OnDelete:CASCADE" json:"product,omitempty"`
	Quantity  int       `json:"quantity"`
}

// CheckQuantity validates a requested line quantity against stock and the
// per-product cap. No partial adds: a request past either limit fails
// outright instead of being clamped down.
func CheckQuantity(requested, stock int) error {
	if requested > MaxQuantityPerProduct {
		return ErrQuantityExceeded
	}
	if requested > stock {
		return ErrInsufficientStock
	}
	return nil
}

// LineTotal prices the line at the product's current discounted price.
// Totals are always derived on read so a price or stock change can never
// leave a stale cached amount behind.
func (ci *CartItem) LineTotal() float64 {
	if ci.Product == nil {
		return 0
	}
	return round2(ci.Product.DiscountedPrice() * float64(ci.Quantity))
}

// TotalAmount sums the current line totals.
func (c *Cart) TotalAmount() float64 {
	var total float64
	for i := range c.Items {
		total += c.Items[i].LineTotal()
	}
	return round2(total)
}

// TotalItems counts units across all lines.
func (c *Cart) TotalItems() int {
	var n int
	for i := range c.Items {
		n += c.Items[i].Quantity
	}
	return n
}

// ValidForCheckout reports whether every line is purchasable at its
// stored quantity. A single stale line blocks checkout entirely.
func (c *Cart) ValidForCheckout() bool {
	if len(c.Items) == 0 {
		return false
	}
	for i := range c.Items {
		item := &c.Items[i]
		if item.Product == nil || !item.Product.Purchasable(item.Quantity) {
			return false
		}
	}
	return true
}
