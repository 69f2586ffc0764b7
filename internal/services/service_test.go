package services

import (
	"fmt"
	"os"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/sitwell/internal/models"
)

// nopSender drops outbound mail; delivery is not under test here.
type nopSender struct{}

func (nopSender) Send(to, subject, body string) error { return nil }

// testDB connects to the database named by TEST_DATABASE_URL, migrates
// the schema, and empties every table. Tests needing Postgres are
// skipped when the variable is unset.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.PendingVerification{},
		&models.Category{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.UserAddress{},
		&models.WishlistItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
	))

	tables := []string{
		"order_status_histories", "order_items", "orders",
		"cart_items", "carts", "wishlist_items", "user_addresses",
		"pending_verifications", "products", "categories", "users",
	}
	for _, table := range tables {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}

	return db
}

var phoneSeq int64

// seedUser creates an active user with a default shipping address.
func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	phone := fmt.Sprintf("98%09d", atomic.AddInt64(&phoneSeq, 1))
	user := &models.User{
		FirstName:    "Test",
		LastName:     "Customer",
		Email:        email,
		Phone:        phone,
		PasswordHash: "x",
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)

	address := &models.UserAddress{
		UserID:      user.ID,
		FullName:    user.FullName(),
		AddressLine: "1 Main St",
		City:        "Townsville",
		Phone:       phone,
		IsDefault:   true,
	}
	require.NoError(t, db.Create(address).Error)

	return user
}

// seedProduct creates a published product in a listed category.
func seedProduct(t *testing.T, db *gorm.DB, stock int) *models.Product {
	t.Helper()

	category := &models.Category{Name: "Chairs " + uuid.NewString(), IsListed: true}
	require.NoError(t, db.Create(category).Error)

	product := &models.Product{
		Name:              "Oak Chair",
		SKU:               uuid.NewString(),
		CategoryID:        &category.ID,
		Price:             100,
		StockQuantity:     stock,
		LowStockThreshold: 2,
		Status:            models.DeriveStatus(models.ProductStatusPublished, stock, 2),
	}
	require.NoError(t, db.Create(product).Error)

	return product
}

func loadProduct(t *testing.T, db *gorm.DB, id uuid.UUID) *models.Product {
	t.Helper()
	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", id).Error)
	return &product
}
