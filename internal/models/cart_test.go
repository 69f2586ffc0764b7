package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckQuantity(t *testing.T) {
	assert.NoError(t, CheckQuantity(1, 10))
	assert.NoError(t, CheckQuantity(MaxQuantityPerProduct, 10))

	assert.ErrorIs(t, CheckQuantity(MaxQuantityPerProduct+1, 100), ErrQuantityExceeded)
	assert.ErrorIs(t, CheckQuantity(3, 2), ErrInsufficientStock)

	// The cap is checked first even when stock is also short.
	assert.ErrorIs(t, CheckQuantity(6, 1), ErrQuantityExceeded)
}

func TestCartTotals(t *testing.T) {
	cart := Cart{
		Items: []CartItem{
			{
				Quantity: 2,
				Product:  &Product{Price: 100, DiscountType: DiscountPercentage, DiscountValue: 10},
			},
			{
				Quantity: 1,
				Product:  &Product{Price: 49.99},
			},
		},
	}

	assert.Equal(t, 180.0, cart.Items[0].LineTotal())
	assert.Equal(t, 49.99, cart.Items[1].LineTotal())
	assert.Equal(t, 229.99, cart.TotalAmount())
	assert.Equal(t, 3, cart.TotalItems())
}

func TestLineTotalWithoutProduct(t *testing.T) {
	item := CartItem{Quantity: 4}
	assert.Equal(t, 0.0, item.LineTotal())
}

func TestValidForCheckout(t *testing.T) {
	category := &Category{IsListed: true}
	good := CartItem{
		Quantity: 2,
		Product: &Product{
			Status:        ProductStatusPublished,
			StockQuantity: 5,
			Category:      category,
		},
	}

	t.Run("empty cart", func(t *testing.T) {
		cart := Cart{}
		assert.False(t, cart.ValidForCheckout())
	})

	t.Run("all lines purchasable", func(t *testing.T) {
		cart := Cart{Items: []CartItem{good}}
		assert.True(t, cart.ValidForCheckout())
	})

	t.Run("one stale line blocks checkout", func(t *testing.T) {
		stale := good
		stale.Product = &Product{
			Status:        ProductStatusOutOfStock,
			StockQuantity: 0,
			Category:      category,
		}
		cart := Cart{Items: []CartItem{good, stale}}
		assert.False(t, cart.ValidForCheckout())
	})

	t.Run("stock dropped below stored quantity", func(t *testing.T) {
		short := good
		short.Quantity = 6
		cart := Cart{Items: []CartItem{short}}
		assert.False(t, cart.ValidForCheckout())
	})
}
