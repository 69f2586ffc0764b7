package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/sitwell/internal/models"
	"github.com/example/sitwell/internal/pricing"
	"github.com/example/sitwell/internal/utils"
)

// OrderService is the order lifecycle engine. Every mutating operation
// runs as one transaction: stock moves, the status change, and the
// history row either all land or none do. Product rows are locked FOR
// UPDATE, always in ascending id order, so two orders touching
// overlapping product sets cannot deadlock and can never both pass the
// same stock check.
type OrderService struct {
	db     *gorm.DB
	sender Sender
	logger *zap.Logger
}

// NewOrderService constructs an OrderService.
func NewOrderService(db *gorm.DB, sender Sender) *OrderService {
	return &OrderService{db: db, sender: sender, logger: utils.GetLogger()}
}

// PlaceOrderInput carries checkout parameters. Totals are not among
// them: pricing is always recomputed here from live product prices.
type PlaceOrderInput struct {
	AddressID  *uuid.UUID
	CouponCode string
	Notes      string
}

// Place turns the user's cart into an immutable order. Every line is
// re-validated against the availability gate under row locks; any
// failure aborts the whole placement with no stock mutation and no
// partial order. On success the cart is emptied.
func (s *OrderService) Place(ctx context.Context, userID uuid.UUID, in PlaceOrderInput) (*models.Order, error) {
	var order models.Order
	var user models.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return err
		}

		var cart models.Cart
		if err := tx.Preload("Items").Where("user_id = ?", userID).First(&cart).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NewValidationError("cart", "Your cart is empty.")
			}
			return err
		}
		if len(cart.Items) == 0 {
			return NewValidationError("cart", "Your cart is empty.")
		}

		products, err := lockProducts(tx, productIDs(cart.Items))
		if err != nil {
			return err
		}

		lines := make([]pricing.Line, 0, len(cart.Items))
		for _, item := range cart.Items {
			product, ok := products[item.ProductID]
			if !ok {
				utils.OrdersFailedTotal.WithLabelValues("unavailable").Inc()
				return fmt.Errorf("a cart item: %w", ErrUnavailable)
			}
			if !product.Purchasable(item.Quantity) {
				utils.OrdersFailedTotal.WithLabelValues("unavailable").Inc()
				return fmt.Errorf("%s: %w", product.Name, ErrUnavailable)
			}
			lines = append(lines, pricing.Line{
				UnitPrice: product.DiscountedPrice(),
				Quantity:  item.Quantity,
			})
		}

		quote := pricing.Quote(lines, in.CouponCode)

		address, err := resolveAddress(tx, userID, in.AddressID)
		if err != nil {
			return err
		}

		orderNumber, err := s.uniqueOrderNumber(tx)
		if err != nil {
			return err
		}

		now := time.Now()
		order = models.Order{
			UserID:      userID,
			OrderNumber: orderNumber,
			Status:      models.OrderStatusPending,
			PlacedAt:    now,

			PaymentMethod: models.PaymentMethodCOD,
			PaymentStatus: models.PaymentStatusPending,

			CouponCode:     in.CouponCode,
			Subtotal:       quote.Subtotal,
			DiscountAmount: quote.Discount,
			TaxAmount:      quote.Tax,
			ShippingCharge: quote.Shipping,
			TotalAmount:    quote.Total,

			AddressID:   &address.ID,
			ShipToName:  address.FullName,
			AddressLine: address.AddressLine,
			City:        address.City,
			District:    address.District,
			PostalCode:  address.PostalCode,

			CanCancel: true,
			Notes:     in.Notes,
		}

		for _, item := range cart.Items {
			product := products[item.ProductID]
			productID := item.ProductID
			unitPrice := product.DiscountedPrice()
			order.Items = append(order.Items, models.OrderItem{
				ProductID:   &productID,
				ProductName: product.Name,
				SKU:         product.SKU,
				UnitPrice:   unitPrice,
				Quantity:    item.Quantity,
				TotalPrice:  unitPrice * float64(item.Quantity),
				Status:      models.ItemStatusPending,
			})
		}

		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		if err := appendHistory(tx, order.ID, "", models.OrderStatusPending, user.Email, "order placed"); err != nil {
			return err
		}

		for _, item := range cart.Items {
			if err := adjustStock(tx, products[item.ProductID], -item.Quantity); err != nil {
				return err
			}
		}

		return tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}

	utils.OrdersPlacedTotal.Inc()
	s.logger.Info("order placed",
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", userID.String()),
		zap.Float64("total", order.TotalAmount))

	dispatchEmail(s.sender, user.Email, "Sit Well – Order "+order.OrderNumber,
		fmt.Sprintf("Hi %s,\nYour order %s for %.2f has been placed. Payment is due on delivery.\n\nRegards,\nSit Well",
			user.FullName(), order.OrderNumber, order.TotalAmount))

	return &order, nil
}

// Cancel cancels a whole order. Allowed only from pending or confirmed
// while the order is still cancellable; every pending line moves to
// cancelled and its stock is credited back atomically with the status
// change. A second cancel is
// rejected as an invalid transition, never a silent success, so stock is
// credited exactly once.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID uuid.UUID, reason string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, userID, orderID)
		if err != nil {
			return err
		}
		if !models.Cancellable(order.Status, order.CanCancel) {
			return ErrInvalidTransition
		}

		if err := restockItems(tx, order.Items); err != nil {
			return err
		}

		if err := tx.Model(&models.OrderItem{}).
			Where("order_id = ? AND status = ?", order.ID, models.ItemStatusPending).
			Update("status", models.ItemStatusCancelled).Error; err != nil {
			return err
		}

		now := time.Now()
		oldStatus := order.Status
		order.Status = models.OrderStatusCancelled
		order.CanCancel = false
		order.CancelledAt = &now
		order.CancelReason = reason
		if err := tx.Save(order).Error; err != nil {
			return err
		}

		return appendHistory(tx, order.ID, oldStatus, models.OrderStatusCancelled, actorFor(tx, userID), reason)
	})
	if err != nil {
		return err
	}

	utils.OrdersCancelledTotal.Inc()
	s.logger.Info("order cancelled",
		zap.String("order_id", orderID.String()),
		zap.String("reason", reason))
	return nil
}

// CancelItem cancels a single line while the rest of the order stands.
// Allowed from pending or confirmed when the line has not already been
// cancelled. The frozen pricing breakdown stays untouched; the credited
// amount is recorded in the history note.
func (s *OrderService) CancelItem(ctx context.Context, userID, orderID, itemID uuid.UUID, reason string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, userID, orderID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusPending && order.Status != models.OrderStatusConfirmed {
			return ErrInvalidTransition
		}

		var item *models.OrderItem
		for i := range order.Items {
			if order.Items[i].ID == itemID {
				item = &order.Items[i]
				break
			}
		}
		if item == nil {
			return ErrNotFound
		}
		if item.Status != models.ItemStatusPending {
			return ErrInvalidTransition
		}

		if err := restockItems(tx, []models.OrderItem{*item}); err != nil {
			return err
		}

		item.Status = models.ItemStatusCancelled
		if err := tx.Model(&models.OrderItem{}).Where("id = ?", item.ID).
			Update("status", models.ItemStatusCancelled).Error; err != nil {
			return err
		}

		// A partially-cancelled order can no longer be cancelled wholesale.
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("can_cancel", false).Error; err != nil {
			return err
		}

		note := fmt.Sprintf("item %s x%d cancelled (%.2f credited): %s",
			item.ProductName, item.Quantity, item.TotalPrice, reason)
		return appendHistory(tx, order.ID, order.Status, order.Status, actorFor(tx, userID), note)
	})
	if err != nil {
		return err
	}

	s.logger.Info("order item cancelled",
		zap.String("order_id", orderID.String()),
		zap.String("item_id", itemID.String()))
	return nil
}

// Return files a return for a delivered order: the order moves to
// refunded, every still-pending line is marked returned, and its stock
// is credited back. Lines cancelled before delivery were credited at
// cancellation time and are not credited twice.
func (s *OrderService) Return(ctx context.Context, userID, orderID uuid.UUID, reason string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, userID, orderID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusDelivered {
			return ErrInvalidTransition
		}

		if err := restockItems(tx, order.Items); err != nil {
			return err
		}

		if err := tx.Model(&models.OrderItem{}).
			Where("order_id = ? AND status = ?", order.ID, models.ItemStatusPending).
			Update("status", models.ItemStatusReturned).Error; err != nil {
			return err
		}

		now := time.Now()
		order.Status = models.OrderStatusRefunded
		order.PaymentStatus = models.PaymentStatusRefunded
		order.ReturnedAt = &now
		order.ReturnReason = reason
		if err := tx.Save(order).Error; err != nil {
			return err
		}

		return appendHistory(tx, order.ID, models.OrderStatusDelivered, models.OrderStatusRefunded, actorFor(tx, userID), reason)
	})
	if err != nil {
		return err
	}

	utils.OrdersReturnedTotal.Inc()
	s.logger.Info("order returned",
		zap.String("order_id", orderID.String()),
		zap.String("reason", reason))
	return nil
}

// AdvanceStatus moves an order forward along
// confirmed -> processing -> shipped -> delivered. Cancellation and
// returns have their own entry points because they move stock; this one
// never does. Delivery marks the cash-on-delivery payment collected.
func (s *OrderService) AdvanceStatus(ctx context.Context, actor string, orderID uuid.UUID, to models.OrderStatus) error {
	switch to {
	case models.OrderStatusConfirmed, models.OrderStatusProcessing,
		models.OrderStatusShipped, models.OrderStatusDelivered:
	default:
		return ErrInvalidTransition
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, "id = ?", orderID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrNotFound
			}
			return err
		}

		if !models.CanTransition(order.Status, to) {
			return ErrInvalidTransition
		}

		oldStatus := order.Status
		order.Status = to
		if to == models.OrderStatusDelivered {
			order.PaymentStatus = models.PaymentStatusPaid
			order.CanCancel = false
		}
		if err := tx.Save(&order).Error; err != nil {
			return err
		}

		return appendHistory(tx, order.ID, oldStatus, to, actor, "")
	})
}

// uniqueOrderNumber generates an order number and retries on collision.
// Collisions are vanishingly rare; the unique index is the backstop if
// two transactions race past the existence check.
func (s *OrderService) uniqueOrderNumber(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		number, err := generateOrderNumber()
		if err != nil {
			return "", err
		}

		var count int64
		if err := tx.Model(&models.Order{}).
			Where("order_number = ?", number).
			Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return number, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique order number")
}

// generateOrderNumber returns a number like SW-48219305.
func generateOrderNumber() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SW-%08d", n.Int64()), nil
}

// lockOrder loads an order with its items under a row lock and checks
// ownership.
func lockOrder(tx *gorm.DB, userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrPermission
	}

	if err := tx.Where("order_id = ?", orderID).Find(&order.Items).Error; err != nil {
		return nil, err
	}

	return &order, nil
}

// restockItems credits stock back for every item still in pending state.
// Items whose product was hard-deleted are skipped; their history rows
// stand but there is no stock row to credit.
func restockItems(tx *gorm.DB, items []models.OrderItem) error {
	ids := make([]uuid.UUID, 0, len(items))
	qtyByProduct := make(map[uuid.UUID]int)
	for _, item := range items {
		if item.Status != models.ItemStatusPending || item.ProductID == nil {
			continue
		}
		if _, seen := qtyByProduct[*item.ProductID]; !seen {
			ids = append(ids, *item.ProductID)
		}
		qtyByProduct[*item.ProductID] += item.Quantity
	}
	if len(ids) == 0 {
		return nil
	}

	products, err := lockProducts(tx, ids)
	if err != nil {
		return err
	}

	for _, id := range ids {
		product, ok := products[id]
		if !ok {
			continue
		}
		if err := adjustStock(tx, product, qtyByProduct[id]); err != nil {
			return err
		}
	}

	return nil
}

// productIDs collects the product ids referenced by a set of cart items.
func productIDs(items []models.CartItem) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

// lockProducts loads product rows FOR UPDATE in ascending id order. The
// stable lock order prevents deadlock between overlapping orders.
func lockProducts(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	var products []models.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&products).Error; err != nil {
		return nil, err
	}

	// Categories are read without locks; only stock rows serialize.
	byID := make(map[uuid.UUID]*models.Product, len(products))
	categoryIDs := make([]uuid.UUID, 0, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
		if products[i].CategoryID != nil {
			categoryIDs = append(categoryIDs, *products[i].CategoryID)
		}
	}

	if len(categoryIDs) > 0 {
		var categories []models.Category
		if err := tx.Where("id IN ?", categoryIDs).Find(&categories).Error; err != nil {
			return nil, err
		}
		byCategory := make(map[uuid.UUID]*models.Category, len(categories))
		for i := range categories {
			byCategory[categories[i].ID] = &categories[i]
		}
		for _, p := range byID {
			if p.CategoryID != nil {
				p.Category = byCategory[*p.CategoryID]
			}
		}
	}

	return byID, nil
}

// adjustStock applies a stock delta to a locked product row and stores
// the status derived from the new level. Blocked and draft statuses are
// sticky and survive the recomputation.
func adjustStock(tx *gorm.DB, product *models.Product, delta int) error {
	newStock := product.StockQuantity + delta
	if newStock < 0 {
		return fmt.Errorf("%s: %w", product.Name, ErrUnavailable)
	}

	newStatus := models.DeriveStatus(product.Status, newStock, product.LowStockThreshold)
	product.StockQuantity = newStock
	product.Status = newStatus

	return tx.Model(&models.Product{}).Where("id = ?", product.ID).
		Updates(map[string]interface{}{
			"stock_quantity": newStock,
			"status":         newStatus,
		}).Error
}

// appendHistory writes one audit row. History rows are append-only;
// nothing in the codebase updates or deletes them.
func appendHistory(tx *gorm.DB, orderID uuid.UUID, from, to models.OrderStatus, actor, notes string) error {
	return tx.Create(&models.OrderStatusHistory{
		OrderID:   orderID,
		OldStatus: from,
		NewStatus: to,
		ChangedBy: actor,
		Notes:     notes,
	}).Error
}

// actorFor resolves the audit label for a user id.
func actorFor(tx *gorm.DB, userID uuid.UUID) string {
	var user models.User
	if err := tx.Select("email").First(&user, "id = ?", userID).Error; err != nil {
		return userID.String()
	}
	return user.Email
}

// resolveAddress picks the explicit address or falls back to the
// default.
func resolveAddress(tx *gorm.DB, userID uuid.UUID, addressID *uuid.UUID) (*models.UserAddress, error) {
	var address models.UserAddress
	if addressID != nil {
		if err := tx.First(&address, "id = ? AND user_id = ?", *addressID, userID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, NewValidationError("address_id", "Shipping address not found.")
			}
			return nil, err
		}
		return &address, nil
	}

	if err := tx.Where("user_id = ? AND is_default = ?", userID, true).First(&address).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewValidationError("address_id", "Add a shipping address before checking out.")
		}
		return nil, err
	}
	return &address, nil
}
