package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/sitwell/internal/models"
	"github.com/example/sitwell/internal/utils"
)

// CatalogService owns admin-side catalog writes that race the order
// engine. A stock write takes the same product row lock as order
// placement, so it can never resurrect units a concurrent order just
// sold, and the status derivation always runs against committed state.
type CatalogService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db, logger: utils.GetLogger()}
}

// SetStock sets the absolute stock level and recomputes the derived
// status under a row lock. Blocked and draft statuses survive the
// recomputation.
func (s *CatalogService) SetStock(ctx context.Context, productID uuid.UUID, qty int) (*models.Product, error) {
	if qty < 0 {
		return nil, NewValidationError("stock_quantity", "Stock cannot be negative.")
	}

	var product models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND is_deleted = ?", productID, false).
			First(&product).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrNotFound
			}
			return err
		}

		product.StockQuantity = qty
		product.Status = models.DeriveStatus(product.Status, qty, product.LowStockThreshold)
		return tx.Save(&product).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock set",
		zap.String("product_id", productID.String()),
		zap.Int("stock", qty),
		zap.String("status", product.Status))
	return &product, nil
}
