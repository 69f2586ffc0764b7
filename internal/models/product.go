package models

import (
	"time"

	"github.com/google/uuid"
)

// Product statuses. Blocked is sticky: it always wins over the
// stock-derived statuses and only an explicit unblock clears it.
const (
	ProductStatusPublished  = "published"
	ProductStatusDraft      = "draft"
	ProductStatusOutOfStock = "out-of-stock"
	ProductStatusLowStock   = "low-stock"
	ProductStatusBlocked    = "blocked"
)

// Discount types.
const (
	DiscountNone       = "none"
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// Tax types.
const (
	TaxFree    = "free"
	TaxTaxable = "taxable"
)

// Product is a sellable catalog entry. The storefront core reads
// everything except StockQuantity and Status, which it also writes when
// orders are placed, cancelled, or returned.
type Product struct {
	BaseModel
	Name             string `json:"name"`
	SKU              string `gorm:"uniqueIndex" json:"sku"`
	Brand            string `json:"brand"`
	ShortDescription string `json:"short_description"`
	LongDescription  string `json:"long_description"`

	CategoryID *uuid.UUID `gorm:"type:uuid;index" json:"category_id"`
	Category   *Category  `json:"category,omitempty"`

	Price         float64 `json:"price"`
	DiscountType  string  `json:"discount_type"`
	DiscountValue float64 `json:"discount_value"`
	TaxType       string  `json:"tax_type"`
	VATPercentage float64 `json:"vat_percentage"`

	StockQuantity     int    `json:"stock_quantity"`
	LowStockThreshold int    `json:"low_stock_threshold"`
	Status            string `json:"status"`

	IsBlocked bool       `json:"is_blocked"`
	IsDeleted bool       `json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy string     `json:"deleted_by,omitempty"`
}

// DiscountedPrice returns the unit price after the product's own discount.
// Fixed discounts never push the price below zero.
func (p *Product) DiscountedPrice() float64 {
	switch p.DiscountType {
	case DiscountPercentage:
		if p.DiscountValue > 0 {
			return round2(p.Price - p.Price*p.DiscountValue/100)
		}
	case DiscountFixed:
		if p.DiscountValue > 0 {
			discounted := p.Price - p.DiscountValue
			if discounted < 0 {
				return 0
			}
			return round2(discounted)
		}
	}
	return p.Price
}

// DiscountAmount returns how much the product discount takes off the
// list price.
func (p *Product) DiscountAmount() float64 {
	return round2(p.Price - p.DiscountedPrice())
}

// FinalPriceWithTax returns the discounted price including VAT when the
// product is taxable.
func (p *Product) FinalPriceWithTax() float64 {
	price := p.DiscountedPrice()
	if p.TaxType == TaxTaxable && p.VATPercentage > 0 {
		return round2(price + price*p.VATPercentage/100)
	}
	return price
}

// IsLowStock reports whether the stock has fallen to the alert threshold.
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.LowStockThreshold
}

// DeriveStatus computes the status a product should carry for a given
// stock level. Blocked and draft are sticky and never overwritten by a
// stock change; everything else follows the stock quantity.
func DeriveStatus(current string, stock, threshold int) string {
	switch current {
	case ProductStatusBlocked, ProductStatusDraft:
		return current
	}
	switch {
	case stock <= 0:
		return ProductStatusOutOfStock
	case stock <= threshold:
		return ProductStatusLowStock
	default:
		return ProductStatusPublished
	}
}

// Purchasable is the availability gate shared by the cart (soft check)
// and order placement (hard check). The category must be loaded; a
// product without a category is treated as uncategorized and sellable.
func (p *Product) Purchasable(qty int) bool {
	if qty <= 0 {
		return false
	}
	if p.IsDeleted || p.IsBlocked {
		return false
	}
	if p.Status != ProductStatusPublished && p.Status != ProductStatusLowStock {
		return false
	}
	if p.Category != nil && !p.Category.Available() {
		return false
	}
	return p.StockQuantity >= qty
}
