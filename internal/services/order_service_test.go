package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/sitwell/internal/models"
)

func TestPlaceCancelRestoresStock(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	user := seedUser(t, db, "cancel@example.com")
	product := seedProduct(t, db, 10)

	carts := NewCartService(db)
	require.NoError(t, carts.Add(ctx, user.ID, product.ID, 3))

	orders := NewOrderService(db, nopSender{})
	order, err := orders.Place(ctx, user.ID, PlaceOrderInput{})
	require.NoError(t, err)

	assert.Equal(t, 7, loadProduct(t, db, product.ID).StockQuantity)

	require.NoError(t, orders.Cancel(ctx, user.ID, order.ID, "changed my mind"))

	got := loadProduct(t, db, product.ID)
	assert.Equal(t, 10, got.StockQuantity)
	assert.Equal(t, models.ProductStatusPublished, got.Status)

	var items []models.OrderItem
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&items).Error)
	require.NotEmpty(t, items)
	for _, item := range items {
		assert.Equal(t, models.ItemStatusCancelled, item.Status)
	}
}

func TestCancelTwiceCreditsStockOnce(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	user := seedUser(t, db, "double-cancel@example.com")
	product := seedProduct(t, db, 10)

	carts := NewCartService(db)
	require.NoError(t, carts.Add(ctx, user.ID, product.ID, 4))

	orders := NewOrderService(db, nopSender{})
	order, err := orders.Place(ctx, user.ID, PlaceOrderInput{})
	require.NoError(t, err)

	require.NoError(t, orders.Cancel(ctx, user.ID, order.ID, "first"))
	assert.Equal(t, 10, loadProduct(t, db, product.ID).StockQuantity)

	err = orders.Cancel(ctx, user.ID, order.ID, "second")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 10, loadProduct(t, db, product.ID).StockQuantity)
}

func TestPlaceReturnRestoresStock(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	user := seedUser(t, db, "return@example.com")
	product := seedProduct(t, db, 10)

	carts := NewCartService(db)
	require.NoError(t, carts.Add(ctx, user.ID, product.ID, 2))

	orders := NewOrderService(db, nopSender{})
	order, err := orders.Place(ctx, user.ID, PlaceOrderInput{})
	require.NoError(t, err)
	assert.Equal(t, 8, loadProduct(t, db, product.ID).StockQuantity)

	for _, status := range []models.OrderStatus{
		models.OrderStatusConfirmed,
		models.OrderStatusProcessing,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
	} {
		require.NoError(t, orders.AdvanceStatus(ctx, "staff@example.com", order.ID, status))
	}

	require.NoError(t, orders.Return(ctx, user.ID, order.ID, "wobbly leg"))

	assert.Equal(t, 10, loadProduct(t, db, product.ID).StockQuantity)

	var got models.Order
	require.NoError(t, db.First(&got, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusRefunded, got.Status)
	assert.Equal(t, models.PaymentStatusRefunded, got.PaymentStatus)

	var items []models.OrderItem
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&items).Error)
	for _, item := range items {
		assert.Equal(t, models.ItemStatusReturned, item.Status)
	}
}

func TestConcurrentPlacementsDoNotOversell(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	const buyers = 8
	const stock = 5

	product := seedProduct(t, db, stock)
	carts := NewCartService(db)
	users := make([]*models.User, buyers)
	for i := range users {
		users[i] = seedUser(t, db, fmt.Sprintf("buyer%d@example.com", i))
		require.NoError(t, carts.Add(ctx, users[i].ID, product.ID, 1))
	}

	orders := NewOrderService(db, nopSender{})

	errs := make(chan error, buyers)
	var wg sync.WaitGroup
	for _, user := range users {
		wg.Add(1)
		go func(u *models.User) {
			defer wg.Done()
			_, err := orders.Place(context.Background(), u.ID, PlaceOrderInput{})
			errs <- err
		}(user)
	}
	wg.Wait()
	close(errs)

	var placed, rejected int
	for err := range errs {
		if err == nil {
			placed++
			continue
		}
		rejected++
		assert.ErrorIs(t, err, ErrUnavailable)
	}

	assert.Equal(t, stock, placed)
	assert.Equal(t, buyers-stock, rejected)

	got := loadProduct(t, db, product.ID)
	assert.Equal(t, 0, got.StockQuantity)
	assert.Equal(t, models.ProductStatusOutOfStock, got.Status)
}
