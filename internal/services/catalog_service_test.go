package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/clause"

	"github.com/example/sitwell/internal/models"
)

func TestSetStock(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	product := seedProduct(t, db, 10)
	catalog := NewCatalogService(db)

	updated, err := catalog.SetStock(ctx, product.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.StockQuantity)
	assert.Equal(t, models.ProductStatusLowStock, updated.Status)

	updated, err = catalog.SetStock(ctx, product.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, models.ProductStatusOutOfStock, updated.Status)

	_, err = catalog.SetStock(ctx, product.ID, -1)
	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)
}

// A stock write that started while another transaction held the product
// row must wait for the commit and derive its status from the committed
// state, not from what it could have read before the lock.
func TestSetStockWaitsForRowLock(t *testing.T) {
	db := testDB(t)

	product := seedProduct(t, db, 5)
	catalog := NewCatalogService(db)

	tx := db.Begin()
	require.NoError(t, tx.Error)

	var locked models.Product
	require.NoError(t, tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&locked, "id = ?", product.ID).Error)

	done := make(chan error, 1)
	go func() {
		_, err := catalog.SetStock(context.Background(), product.ID, 50)
		done <- err
	}()

	// Block the product while the stock write is queued behind the lock.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, tx.Model(&models.Product{}).Where("id = ?", product.ID).
		Updates(map[string]interface{}{
			"is_blocked": true,
			"status":     models.ProductStatusBlocked,
		}).Error)
	require.NoError(t, tx.Commit().Error)

	require.NoError(t, <-done)

	got := loadProduct(t, db, product.ID)
	assert.Equal(t, 50, got.StockQuantity)
	assert.Equal(t, models.ProductStatusBlocked, got.Status)
	assert.True(t, got.IsBlocked)
}
