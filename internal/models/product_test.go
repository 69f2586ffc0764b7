package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiscountedPrice(t *testing.T) {
	cases := []struct {
		name     string
		product  Product
		expected float64
	}{
		{"no discount", Product{Price: 100}, 100},
		{"percentage", Product{Price: 200, DiscountType: DiscountPercentage, DiscountValue: 25}, 150},
		{"fixed", Product{Price: 100, DiscountType: DiscountFixed, DiscountValue: 30}, 70},
		{"fixed larger than price clamps to zero", Product{Price: 20, DiscountType: DiscountFixed, DiscountValue: 50}, 0},
		{"zero-value percentage ignored", Product{Price: 80, DiscountType: DiscountPercentage, DiscountValue: 0}, 80},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.product.DiscountedPrice())
		})
	}
}

func TestFinalPriceWithTax(t *testing.T) {
	taxable := Product{Price: 100, TaxType: TaxTaxable, VATPercentage: 10}
	assert.Equal(t, 110.0, taxable.FinalPriceWithTax())

	free := Product{Price: 100, TaxType: TaxFree, VATPercentage: 10}
	assert.Equal(t, 100.0, free.FinalPriceWithTax())

	discountedTaxable := Product{
		Price:         200,
		DiscountType:  DiscountPercentage,
		DiscountValue: 50,
		TaxType:       TaxTaxable,
		VATPercentage: 18,
	}
	assert.Equal(t, 118.0, discountedTaxable.FinalPriceWithTax())
}

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, ProductStatusOutOfStock, DeriveStatus(ProductStatusPublished, 0, 5))
	assert.Equal(t, ProductStatusLowStock, DeriveStatus(ProductStatusPublished, 3, 5))
	assert.Equal(t, ProductStatusLowStock, DeriveStatus(ProductStatusPublished, 5, 5))
	assert.Equal(t, ProductStatusPublished, DeriveStatus(ProductStatusOutOfStock, 6, 5))

	// Blocked and draft are sticky regardless of stock movement.
	assert.Equal(t, ProductStatusBlocked, DeriveStatus(ProductStatusBlocked, 100, 5))
	assert.Equal(t, ProductStatusDraft, DeriveStatus(ProductStatusDraft, 0, 5))
}

func TestPurchasable(t *testing.T) {
	category := &Category{IsListed: true}
	base := Product{
		Status:        ProductStatusPublished,
		StockQuantity: 10,
		Category:      category,
	}

	t.Run("happy path", func(t *testing.T) {
		assert.True(t, base.Purchasable(3))
	})

	t.Run("zero or negative quantity", func(t *testing.T) {
		assert.False(t, base.Purchasable(0))
		assert.False(t, base.Purchasable(-1))
	})

	t.Run("insufficient stock", func(t *testing.T) {
		assert.False(t, base.Purchasable(11))
	})

	t.Run("low stock still sells", func(t *testing.T) {
		p := base
		p.Status = ProductStatusLowStock
		p.StockQuantity = 2
		assert.True(t, p.Purchasable(2))
	})

	t.Run("draft and out-of-stock do not sell", func(t *testing.T) {
		p := base
		p.Status = ProductStatusDraft
		assert.False(t, p.Purchasable(1))
		p.Status = ProductStatusOutOfStock
		assert.False(t, p.Purchasable(1))
	})

	t.Run("deleted or blocked product", func(t *testing.T) {
		p := base
		p.IsDeleted = true
		assert.False(t, p.Purchasable(1))

		p = base
		p.IsBlocked = true
		assert.False(t, p.Purchasable(1))
	})

	t.Run("category gates availability", func(t *testing.T) {
		p := base
		p.Category = &Category{IsListed: false}
		assert.False(t, p.Purchasable(1))

		p.Category = &Category{IsListed: true, IsBlocked: true}
		assert.False(t, p.Purchasable(1))

		p.Category = &Category{IsListed: true, IsDeleted: true}
		assert.False(t, p.Purchasable(1))
	})

	t.Run("uncategorized product sells", func(t *testing.T) {
		p := base
		p.Category = nil
		assert.True(t, p.Purchasable(1))
	})
}
