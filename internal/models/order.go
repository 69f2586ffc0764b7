package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// OrderItemStatus tracks per-line state so single items can be cancelled
// without touching the rest of the order.
type OrderItemStatus string

const (
	ItemStatusPending   OrderItemStatus = "pending"
	ItemStatusCancelled OrderItemStatus = "cancelled"
	ItemStatusReturned  OrderItemStatus = "returned"
)

// Payment statuses. Cash on delivery is the only method, so payment
// moves to paid when the order is delivered.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

// PaymentMethodCOD is the only supported payment method.
const PaymentMethodCOD = "cod"

// orderTransitions is the complete transition table. Anything absent is
// illegal and must be rejected, never silently absorbed.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {OrderStatusRefunded},
}

// CanTransition reports whether an order may move from one status to
// another.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Cancellable reports whether a whole-order cancellation is allowed from
// the given state.
func Cancellable(status OrderStatus, canCancel bool) bool {
	return canCancel && (status == OrderStatusPending || status == OrderStatusConfirmed)
}

// Order is the immutable header frozen at placement. The pricing
// breakdown is written once, together, and never recomputed afterwards;
// TotalAmount always equals Subtotal+TaxAmount+ShippingCharge-DiscountAmount.
type Order struct {
	BaseModel
	UserID      uuid.UUID   `gorm:"type:uuid;index" json:"user_id"`
	User        *User       `json:"user,omitempty"`
	OrderNumber string      `gorm:"uniqueIndex" json:"order_number"`
	Status      OrderStatus `json:"status"`
	PlacedAt    time.Time   `json:"placed_at"`

	PaymentMethod string `json:"payment_method"`
	PaymentStatus string `json:"payment_status"`

	CouponCode     string  `json:"coupon_code,omitempty"`
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discount_amount"`
	TaxAmount      float64 `json:"tax_amount"`
	ShippingCharge float64 `json:"shipping_charge"`
	TotalAmount    float64 `json:"total_amount"`

	// Shipping address snapshot kept on the order so later address edits
	// cannot rewrite where an order went.
	AddressID    *uuid.UUID `gorm:"type:uuid" json:"address_id,omitempty"`
	ShipToName   string     `json:"ship_to_name"`
	AddressLine  string     `json:"address_line"`
	City         string     `json:"city"`
	District     string     `json:"district"`
	PostalCode   string     `json:"postal_code"`

	CanCancel    bool       `json:"can_cancel"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty"`
	ReturnedAt   *time.Time `json:"returned_at,omitempty"`
	ReturnReason string     `json:"return_reason,omitempty"`
	Notes        string     `json:"notes,omitempty"`

	Items   []OrderItem          `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
	History []OrderStatusHistory `gorm:"constraint:OnDelete:CASCADE" json:"history,omitempty"`
}

// OrderItem is one frozen line. Name and unit price are copied from the
// product at placement so history survives catalog edits; the product
// reference is nullable and survives product deletion.
type OrderItem struct {
	BaseModel
	OrderID     uuid.UUID       `gorm:"type:uuid;index" json:"order_id"`
	ProductID   *uuid.UUID      `gorm:"type:uuid;constraint:OnDelete:SET NULL" json:"product_id,omitempty"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku"`
	UnitPrice   float64         `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	TotalPrice  float64         `json:"total_price"`
	Status      OrderItemStatus `json:"status"`
}

// OrderStatusHistory is the append-only audit trail: one row per
// transition, never updated or deleted.
type OrderStatusHistory struct {
	BaseModel
	OrderID   uuid.UUID   `gorm:"type:uuid;index" json:"order_id"`
	OldStatus OrderStatus `json:"old_status"`
	NewStatus OrderStatus `json:"new_status"`
	ChangedBy string      `json:"changed_by"`
	Notes     string      `json:"notes,omitempty"`
}
