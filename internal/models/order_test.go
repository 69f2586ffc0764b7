package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to OrderStatus }{
		{OrderStatusPending, OrderStatusConfirmed},
		{OrderStatusPending, OrderStatusCancelled},
		{OrderStatusConfirmed, OrderStatusProcessing},
		{OrderStatusConfirmed, OrderStatusCancelled},
		{OrderStatusProcessing, OrderStatusShipped},
		{OrderStatusShipped, OrderStatusDelivered},
		{OrderStatusDelivered, OrderStatusRefunded},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	forbidden := []struct{ from, to OrderStatus }{
		{OrderStatusPending, OrderStatusShipped},
		{OrderStatusPending, OrderStatusDelivered},
		{OrderStatusConfirmed, OrderStatusDelivered},
		{OrderStatusProcessing, OrderStatusCancelled},
		{OrderStatusShipped, OrderStatusCancelled},
		{OrderStatusDelivered, OrderStatusPending},
		{OrderStatusCancelled, OrderStatusConfirmed},
		{OrderStatusRefunded, OrderStatusDelivered},
		{OrderStatusShipped, OrderStatusShipped},
	}
	for _, tc := range forbidden {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s should be rejected", tc.from, tc.to)
	}
}

func TestCancellable(t *testing.T) {
	assert.True(t, Cancellable(OrderStatusPending, true))
	assert.True(t, Cancellable(OrderStatusConfirmed, true))

	assert.False(t, Cancellable(OrderStatusProcessing, true))
	assert.False(t, Cancellable(OrderStatusShipped, true))
	assert.False(t, Cancellable(OrderStatusDelivered, true))

	// Once the flag is cleared, even early stages stay locked.
	assert.False(t, Cancellable(OrderStatusPending, false))
	assert.False(t, Cancellable(OrderStatusConfirmed, false))
}
