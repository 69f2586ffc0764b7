package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/sitwell/internal/models"
	"github.com/example/sitwell/internal/utils"
)

// CartService owns the cart aggregate: one mutable cart per user, with
// availability re-validated against the live catalog on every operation.
type CartService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCartService constructs a CartService.
func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db, logger: utils.GetLogger()}
}

// Get returns the user's cart with products and categories loaded so
// line totals and availability can be derived. Users without a cart get
// an empty one without a row being created.
func (s *CartService) Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Preload("Items.Product").
		Preload("Items.Product.Category").
		Where("user_id = ?", userID).
		First(&cart).Error
	if err == gorm.ErrRecordNotFound {
		return &models.Cart{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Add creates or increments the (cart, product) line. Unavailable
// products are rejected outright; a resulting quantity past the stock or
// the per-product cap fails without a partial add. Adding to the cart
// also drops the product from the user's wishlist.
func (s *CartService) Add(ctx context.Context, userID, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return NewValidationError("quantity", "Quantity must be at least 1.")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Preload("Category").First(&product, "id = ?", productID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrNotFound
			}
			return err
		}
		if !product.Purchasable(1) {
			return ErrUnavailable
		}

		var cart models.Cart
		if err := tx.Where(models.Cart{UserID: userID}).FirstOrCreate(&cart).Error; err != nil {
			return err
		}

		newQty := qty
		var item models.CartItem
		err := tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).First(&item).Error
		switch err {
		case nil:
			newQty = item.Quantity + qty
		case gorm.ErrRecordNotFound:
			item = models.CartItem{CartID: cart.ID, ProductID: productID}
		default:
			return err
		}

		if err := models.CheckQuantity(newQty, product.StockQuantity); err != nil {
			return err
		}

		item.Quantity = newQty
		if err := tx.Save(&item).Error; err != nil {
			return err
		}

		// Cart intent supersedes the wishlist bookmark.
		return tx.Where("user_id = ? AND product_id = ?", userID, productID).
			Delete(&models.WishlistItem{}).Error
	})
}

// UpdateQuantity nudges a line by one unit. The floor is 1 (removal is a
// separate, explicit operation); the ceiling is the same stock/cap pair
// enforced on add.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, delta int) error {
	if delta != 1 && delta != -1 {
		return NewValidationError("delta", "Quantity can only change by one at a time.")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.ownedItem(tx, userID, itemID)
		if err != nil {
			return err
		}

		var product models.Product
		if err := tx.Preload("Category").First(&product, "id = ?", item.ProductID).Error; err != nil {
			return err
		}

		newQty := item.Quantity + delta
		if newQty < 1 {
			return NewValidationError("quantity", "Quantity cannot go below 1; remove the item instead.")
		}
		if err := models.CheckQuantity(newQty, product.StockQuantity); err != nil {
			return err
		}

		item.Quantity = newQty
		return tx.Save(item).Error
	})
}

// Remove deletes one line from the user's cart.
func (s *CartService) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.ownedItem(tx, userID, itemID)
		if err != nil {
			return err
		}
		return tx.Delete(item).Error
	})
}

// Clear empties the user's cart.
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	var cart models.Cart
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).
		Where("cart_id = ?", cart.ID).
		Delete(&models.CartItem{}).Error
}

// ownedItem loads a cart item and verifies it belongs to the user.
func (s *CartService) ownedItem(tx *gorm.DB, userID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := tx.First(&item, "id = ?", itemID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var cart models.Cart
	if err := tx.First(&cart, "id = ?", item.CartID).Error; err != nil {
		return nil, err
	}
	if cart.UserID != userID {
		return nil, ErrPermission
	}

	return &item, nil
}
