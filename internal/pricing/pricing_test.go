package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteBasicBreakdown(t *testing.T) {
	lines := []Line{
		{UnitPrice: 50, Quantity: 2},
		{UnitPrice: 100, Quantity: 1},
	}

	b := Quote(lines, "")

	assert.Equal(t, 200.0, b.Subtotal)
	assert.Equal(t, 0.0, b.Discount)
	assert.Equal(t, 36.0, b.Tax)
	assert.Equal(t, 50.0, b.Shipping)
	assert.Equal(t, 286.0, b.Total)
}

func TestQuoteFreeShippingAtThreshold(t *testing.T) {
	b := Quote([]Line{{UnitPrice: 500, Quantity: 1}}, "")
	assert.Equal(t, 0.0, b.Shipping)

	b = Quote([]Line{{UnitPrice: 499.99, Quantity: 1}}, "")
	assert.Equal(t, 50.0, b.Shipping)
}

func TestQuotePercentageCoupon(t *testing.T) {
	b := Quote([]Line{{UnitPrice: 100, Quantity: 2}}, "WELCOME10")

	assert.Equal(t, 200.0, b.Subtotal)
	assert.Equal(t, 20.0, b.Discount)
	assert.Equal(t, 36.0, b.Tax)
	assert.Equal(t, 50.0, b.Shipping)
	assert.Equal(t, 266.0, b.Total)
}

func TestQuoteFlatCoupon(t *testing.T) {
	b := Quote([]Line{{UnitPrice: 600, Quantity: 1}}, "FLAT50")

	assert.Equal(t, 50.0, b.Discount)
	assert.Equal(t, 0.0, b.Shipping)
	assert.Equal(t, 658.0, b.Total)
}

func TestQuoteCouponBelowMinimumIsIgnored(t *testing.T) {
	b := Quote([]Line{{UnitPrice: 50, Quantity: 1}}, "WELCOME10")
	assert.Equal(t, 0.0, b.Discount)
}

func TestQuoteUnknownCouponIsSilentNoOp(t *testing.T) {
	with := Quote([]Line{{UnitPrice: 100, Quantity: 1}}, "BOGUS")
	without := Quote([]Line{{UnitPrice: 100, Quantity: 1}}, "")
	assert.Equal(t, without, with)
}

func TestQuoteTotalNeverNegative(t *testing.T) {
	b := Quote(nil, "")
	assert.Equal(t, 0.0, b.Subtotal)
	assert.Equal(t, 50.0, b.Total)

	b = Quote([]Line{{UnitPrice: 0.01, Quantity: 1}}, "")
	assert.GreaterOrEqual(t, b.Total, 0.0)
}

func TestQuoteInvariantHolds(t *testing.T) {
	cases := []struct {
		lines  []Line
		coupon string
	}{
		{[]Line{{UnitPrice: 19.99, Quantity: 3}}, ""},
		{[]Line{{UnitPrice: 250, Quantity: 2}}, "WELCOME10"},
		{[]Line{{UnitPrice: 1200, Quantity: 1}}, "SAVE20"},
		{[]Line{{UnitPrice: 333.33, Quantity: 7}}, "FLAT100"},
	}

	for _, tc := range cases {
		b := Quote(tc.lines, tc.coupon)
		assert.InDelta(t, b.Subtotal+b.Tax+b.Shipping-b.Discount, b.Total, 0.001)
	}
}

func TestQuoteIsDeterministic(t *testing.T) {
	lines := []Line{{UnitPrice: 149.5, Quantity: 3}, {UnitPrice: 20, Quantity: 5}}
	first := Quote(lines, "SAVE20")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Quote(lines, "SAVE20"))
	}
}

func TestLookupCoupon(t *testing.T) {
	c, ok := LookupCoupon("FLAT100")
	require.True(t, ok)
	assert.Equal(t, CouponFlat, c.Kind)
	assert.Equal(t, 100.0, c.Value)
	assert.Equal(t, 2000.0, c.MinOrder)

	_, ok = LookupCoupon("NOPE")
	assert.False(t, ok)
}
