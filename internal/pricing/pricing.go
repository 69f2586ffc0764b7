// Package pricing computes the checkout breakdown. Quote is a pure
// function over the lines it is given: the order service feeds it live
// product prices at placement time, and client-submitted totals are
// never consulted.
package pricing

import "math"

// Tax and shipping policy.
const (
	TaxRate               = 0.18
	ShippingFlatFee       = 50.0
	FreeShippingThreshold = 500.0
)

// Coupon kinds.
const (
	CouponPercentage = "percentage"
	CouponFlat       = "flat"
)

// Coupon is a discount code entry.
type Coupon struct {
	Kind     string
	Value    float64
	MinOrder float64
}

// coupons is the fixed table of accepted codes.
var coupons = map[string]Coupon{
	"WELCOME10": {Kind: CouponPercentage, Value: 10, MinOrder: 100},
	"SAVE20":    {Kind: CouponPercentage, Value: 20, MinOrder: 1000},
	"FLAT50":    {Kind: CouponFlat, Value: 50, MinOrder: 500},
	"FLAT100":   {Kind: CouponFlat, Value: 100, MinOrder: 2000},
}

// LookupCoupon returns the coupon for a code, if it exists.
func LookupCoupon(code string) (Coupon, bool) {
	c, ok := coupons[code]
	return c, ok
}

// Line is one priced cart or order line. UnitPrice is the product's
// discounted price at the time of the quote.
type Line struct {
	UnitPrice float64
	Quantity  int
}

// Breakdown is the frozen result of a quote. Total always equals
// Subtotal+Tax+Shipping-Discount, clamped at zero and rounded to 2dp.
type Breakdown struct {
	Subtotal float64
	Discount float64
	Tax      float64
	Shipping float64
	Total    float64
}

// Quote prices a set of lines with an optional coupon code. Unknown or
// ineligible codes apply zero discount without error; the storefront
// treats a bad code as a silent no-op rather than a rejection.
func Quote(lines []Line, couponCode string) Breakdown {
	var subtotal float64
	for _, l := range lines {
		subtotal += l.UnitPrice * float64(l.Quantity)
	}
	subtotal = round2(subtotal)

	var discount float64
	if coupon, ok := coupons[couponCode]; ok && subtotal >= coupon.MinOrder {
		switch coupon.Kind {
		case CouponPercentage:
			discount = round2(subtotal * coupon.Value / 100)
		case CouponFlat:
			discount = coupon.Value
		}
	}

	tax := round2(subtotal * TaxRate)

	shipping := ShippingFlatFee
	if subtotal >= FreeShippingThreshold {
		shipping = 0
	}

	total := round2(subtotal + tax + shipping - discount)
	if total < 0 {
		total = 0
	}

	return Breakdown{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Shipping: shipping,
		Total:    total,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
