package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/sitwell/internal/middleware"
	"github.com/example/sitwell/internal/models"
	"github.com/example/sitwell/internal/services"
	"github.com/example/sitwell/internal/utils"
)

// AdminHandler serves the staff-only management endpoints.
type AdminHandler struct {
	db      *gorm.DB
	auth    *services.AuthService
	catalog *services.CatalogService
	orders  *services.OrderService
}

func NewAdminHandler(db *gorm.DB, auth *services.AuthService, catalog *services.CatalogService, orders *services.OrderService) *AdminHandler {
	return &AdminHandler{db: db, auth: auth, catalog: catalog, orders: orders}
}

func adminActor(c *fiber.Ctx) string {
	if user, ok := middleware.GetCurrentUser(c); ok {
		return user.Email
	}
	return ""
}

// ListCustomers returns non-staff accounts with optional search.
func (h *AdminHandler) ListCustomers(c *fiber.Ctx) error {
	pagination := utils.ParsePagination(c)

	query := h.db.Model(&models.User{}).Where("is_staff = ?", false)
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR phone LIKE ?",
			pattern, pattern, pattern, pattern)
	}
	if blocked := c.Query("blocked"); blocked != "" {
		query = query.Where("is_blocked = ?", blocked == "true")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to count customers")
	}

	var customers []models.User
	if err := query.Order("created_at DESC").
		Limit(pagination.Limit).Offset(pagination.Offset).
		Find(&customers).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load customers")
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"customers": customers,
		"pagination": fiber.Map{
			"page":  pagination.Page,
			"limit": pagination.Limit,
			"total": total,
		},
	})
}

// BlockCustomer blocks an account. Any token the user still holds stops
// working on the next request.
func (h *AdminHandler) BlockCustomer(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}

	if err := h.auth.BlockUser(c.Context(), adminActor(c), userID); err != nil {
		return translateError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Customer blocked.",
	})
}

// UnblockCustomer lifts a block.
func (h *AdminHandler) UnblockCustomer(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}

	if err := h.auth.UnblockUser(c.Context(), adminActor(c), userID); err != nil {
		return translateError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Customer unblocked.",
	})
}

type productRequest struct {
	Name              string     `json:"name"`
	SKU               string     `json:"sku"`
	Brand             string     `json:"brand"`
	ShortDescription  string     `json:"short_description"`
	LongDescription   string     `json:"long_description"`
	CategoryID        *uuid.UUID `json:"category_id"`
	Price             float64    `json:"price"`
	DiscountType      string     `json:"discount_type"`
	DiscountValue     float64    `json:"discount_value"`
	TaxType           string     `json:"tax_type"`
	VATPercentage     float64    `json:"vat_percentage"`
	StockQuantity     int        `json:"stock_quantity"`
	LowStockThreshold int        `json:"low_stock_threshold"`
	Draft             bool       `json:"draft"`
}

func (r *productRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return services.NewValidationError("name", "Product name is required.")
	}
	if strings.TrimSpace(r.SKU) == "" {
		return services.NewValidationError("sku", "SKU is required.")
	}
	if r.Price <= 0 {
		return services.NewValidationError("price", "Price must be greater than zero.")
	}
	if r.StockQuantity < 0 {
		return services.NewValidationError("stock_quantity", "Stock cannot be negative.")
	}
	switch r.DiscountType {
	case "", models.DiscountNone:
		r.DiscountType = models.DiscountNone
	case models.DiscountPercentage:
		if r.DiscountValue < 0 || r.DiscountValue > 100 {
			return services.NewValidationError("discount_value", "Percentage discount must be between 0 and 100.")
		}
	case models.DiscountFixed:
		if r.DiscountValue < 0 || r.DiscountValue >= r.Price {
			return services.NewValidationError("discount_value", "Fixed discount must be below the price.")
		}
	default:
		return services.NewValidationError("discount_type", "Unknown discount type.")
	}
	switch r.TaxType {
	case "":
		r.TaxType = models.TaxFree
	case models.TaxFree, models.TaxTaxable:
	default:
		return services.NewValidationError("tax_type", "Unknown tax type.")
	}
	return nil
}

// CreateProduct adds a catalog entry. Unless saved as a draft, the status
// is derived from the initial stock level.
func (h *AdminHandler) CreateProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := req.validate(); err != nil {
		return translateError(c, err)
	}

	var count int64
	h.db.Model(&models.Product{}).Where("sku = ?", req.SKU).Count(&count)
	if count > 0 {
		return translateError(c, services.NewValidationError("sku", "A product with this SKU already exists."))
	}

	status := models.ProductStatusDraft
	if !req.Draft {
		status = models.DeriveStatus(models.ProductStatusPublished, req.StockQuantity, req.LowStockThreshold)
	}

	product := models.Product{
		Name:              req.Name,
		SKU:               req.SKU,
		Brand:             req.Brand,
		ShortDescription:  req.ShortDescription,
		LongDescription:   req.LongDescription,
		CategoryID:        req.CategoryID,
		Price:             req.Price,
		DiscountType:      req.DiscountType,
		DiscountValue:     req.DiscountValue,
		TaxType:           req.TaxType,
		VATPercentage:     req.VATPercentage,
		StockQuantity:     req.StockQuantity,
		LowStockThreshold: req.LowStockThreshold,
		Status:            status,
	}
	if err := h.db.Create(&product).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to create product")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"product": product,
	})
}

// ListProducts returns the full catalog for management, including drafts,
// blocked and soft-deleted entries.
func (h *AdminHandler) ListProducts(c *fiber.Ctx) error {
	pagination := utils.ParsePagination(c)

	query := h.db.Model(&models.Product{})
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", pattern, pattern)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if c.Query("deleted") != "true" {
		query = query.Where("is_deleted = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to count products")
	}

	var products []models.Product
	if err := query.Preload("Category").Order("created_at DESC").
		Limit(pagination.Limit).Offset(pagination.Offset).
		Find(&products).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load products")
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"products": products,
		"pagination": fiber.Map{
			"page":  pagination.Page,
			"limit": pagination.Limit,
			"total": total,
		},
	})
}

// UpdateProduct edits a product. Stock changes recompute the derived
// status; blocked and draft stay put.
func (h *AdminHandler) UpdateProduct(c *fiber.Ctx) error {
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := req.validate(); err != nil {
		return translateError(c, err)
	}

	var product models.Product
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND is_deleted = ?", productID, false).
			First(&product).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return services.ErrNotFound
			}
			return err
		}

		var count int64
		if err := tx.Model(&models.Product{}).
			Where("sku = ? AND id <> ?", req.SKU, productID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return services.NewValidationError("sku", "A product with this SKU already exists.")
		}

		product.Name = req.Name
		product.SKU = req.SKU
		product.Brand = req.Brand
		product.ShortDescription = req.ShortDescription
		product.LongDescription = req.LongDescription
		product.CategoryID = req.CategoryID
		product.Price = req.Price
		product.DiscountType = req.DiscountType
		product.DiscountValue = req.DiscountValue
		product.TaxType = req.TaxType
		product.VATPercentage = req.VATPercentage
		product.StockQuantity = req.StockQuantity
		product.LowStockThreshold = req.LowStockThreshold
		product.Status = models.DeriveStatus(product.Status, product.StockQuantity, product.LowStockThreshold)
		return tx.Save(&product).Error
	})
	if err != nil {
		return translateError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"product": product,
	})
}

type stockRequest struct {
	StockQuantity int `json:"stock_quantity"`
}

// UpdateStock sets the stock level and recomputes the derived status.
// The write serializes on the product row with concurrent placements.
func (h *AdminHandler) UpdateStock(c *fiber.Ctx) error {
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	var req stockRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	product, err := h.catalog.SetStock(c.Context(), productID, req.StockQuantity)
	if err != nil {
		return translateError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"product": product,
	})
}

// PublishProduct takes a draft live with a stock-derived status.
func (h *AdminHandler) PublishProduct(c *fiber.Ctx) error {
	return h.setProductStatus(c, func(p *models.Product) error {
		if p.Status != models.ProductStatusDraft {
			return services.NewValidationError("status", "Only draft products can be published.")
		}
		p.Status = models.DeriveStatus(models.ProductStatusPublished, p.StockQuantity, p.LowStockThreshold)
		return nil
	}, "Product published.")
}

// BlockProduct forces a product off the storefront regardless of stock.
func (h *AdminHandler) BlockProduct(c *fiber.Ctx) error {
	return h.setProductStatus(c, func(p *models.Product) error {
		p.IsBlocked = true
		p.Status = models.ProductStatusBlocked
		return nil
	}, "Product blocked.")
}

// UnblockProduct lifts a block and restores the stock-derived status.
func (h *AdminHandler) UnblockProduct(c *fiber.Ctx) error {
	return h.setProductStatus(c, func(p *models.Product) error {
		p.IsBlocked = false
		p.Status = models.DeriveStatus(models.ProductStatusPublished, p.StockQuantity, p.LowStockThreshold)
		return nil
	}, "Product unblocked.")
}

func (h *AdminHandler) setProductStatus(c *fiber.Ctx, mutate func(*models.Product) error, message string) error {
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	var product models.Product
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND is_deleted = ?", productID, false).
			First(&product).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return services.ErrNotFound
			}
			return err
		}
		if err := mutate(&product); err != nil {
			return err
		}
		return tx.Save(&product).Error
	})
	if err != nil {
		return translateError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": message,
		"product": product,
	})
}

// DeleteProduct soft-deletes a product. Existing order lines keep their
// frozen copies; carts drop the line.
func (h *AdminHandler) DeleteProduct(c *fiber.Ctx) error {
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	now := time.Now()
	actor := adminActor(c)
	err = h.db.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND is_deleted = ?", productID, false).
			First(&product).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return services.ErrNotFound
			}
			return err
		}

		product.IsDeleted = true
		product.DeletedAt = &now
		product.DeletedBy = actor
		if err := tx.Save(&product).Error; err != nil {
			return err
		}

		return tx.Where("product_id = ?", productID).
			Delete(&models.CartItem{}).Error
	})
	if err != nil {
		return translateError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Product deleted.",
	})
}

// RestoreProduct brings back a soft-deleted product.
func (h *AdminHandler) RestoreProduct(c *fiber.Ctx) error {
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	var product models.Product
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND is_deleted = ?", productID, true).
			First(&product).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return services.ErrNotFound
			}
			return err
		}

		product.IsDeleted = false
		product.DeletedAt = nil
		product.DeletedBy = ""
		return tx.Save(&product).Error
	})
	if err != nil {
		return translateError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"product": product,
	})
}

type categoryRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	IsListed    *bool   `json:"is_listed"`
}

// ListCategoriesAdmin returns every category, including unlisted and
// soft-deleted ones.
func (h *AdminHandler) ListCategoriesAdmin(c *fiber.Ctx) error {
	var categories []models.Category
	if err := h.db.Order("name ASC").Find(&categories).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load categories")
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"categories": categories,
	})
}

// CreateCategory adds a category, listed by default.
func (h *AdminHandler) CreateCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Name) == "" {
		return translateError(c, services.NewValidationError("name", "Category name is required."))
	}

	var count int64
	h.db.Model(&models.Category{}).Where("LOWER(name) = ?", strings.ToLower(req.Name)).Count(&count)
	if count > 0 {
		return translateError(c, services.NewValidationError("name", "A category with this name already exists."))
	}

	category := models.Category{Name: req.Name, IsListed: true}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.IsListed != nil {
		category.IsListed = *req.IsListed
	}
	if err := h.db.Create(&category).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to create category")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"category": category,
	})
}

// UpdateCategory renames or relists a category.
func (h *AdminHandler) UpdateCategory(c *fiber.Ctx) error {
	categoryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid category id")
	}

	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var category models.Category
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND is_deleted = ?", categoryID, false).
			First(&category).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return services.ErrNotFound
			}
			return err
		}

		if name := strings.TrimSpace(req.Name); name != "" {
			var count int64
			if err := tx.Model(&models.Category{}).
				Where("LOWER(name) = ? AND id <> ?", strings.ToLower(name), categoryID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return services.NewValidationError("name", "A category with this name already exists.")
			}
			category.Name = name
		}
		if req.Description != nil {
			category.Description = *req.Description
		}
		if req.IsListed != nil {
			category.IsListed = *req.IsListed
		}
		return tx.Save(&category).Error
	})
	if err != nil {
		return translateError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"category": category,
	})
}

// DeleteCategory soft-deletes a category, taking its products off the
// storefront without touching their rows.
func (h *AdminHandler) DeleteCategory(c *fiber.Ctx) error {
	categoryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid category id")
	}

	now := time.Now()
	actor := adminActor(c)
	var category models.Category
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND is_deleted = ?", categoryID, false).
			First(&category).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return services.ErrNotFound
			}
			return err
		}

		category.IsDeleted = true
		category.DeletedAt = &now
		category.DeletedBy = actor
		return tx.Save(&category).Error
	})
	if err != nil {
		return translateError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Category deleted.",
	})
}

// BlockCategory makes every product in the category unpurchasable.
func (h *AdminHandler) BlockCategory(c *fiber.Ctx) error {
	return h.setCategoryBlocked(c, true, "Category blocked.")
}

// UnblockCategory lifts a category block.
func (h *AdminHandler) UnblockCategory(c *fiber.Ctx) error {
	return h.setCategoryBlocked(c, false, "Category unblocked.")
}

func (h *AdminHandler) setCategoryBlocked(c *fiber.Ctx, blocked bool, message string) error {
	categoryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid category id")
	}

	result := h.db.Model(&models.Category{}).
		Where("id = ? AND is_deleted = ?", categoryID, false).
		Update("is_blocked", blocked)
	if result.Error != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to update category")
	}
	if result.RowsAffected == 0 {
		return translateError(c, services.ErrNotFound)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": message,
	})
}

// RestoreCategory brings back a soft-deleted category.
func (h *AdminHandler) RestoreCategory(c *fiber.Ctx) error {
	categoryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid category id")
	}

	var category models.Category
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND is_deleted = ?", categoryID, true).
			First(&category).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return services.ErrNotFound
			}
			return err
		}

		category.IsDeleted = false
		category.DeletedAt = nil
		category.DeletedBy = ""
		return tx.Save(&category).Error
	})
	if err != nil {
		return translateError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"category": category,
	})
}

// ListOrders returns all orders for fulfilment, newest first.
func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	pagination := utils.ParsePagination(c)

	query := h.db.Model(&models.Order{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		query = query.Where("order_number LIKE ?", "%"+strings.ToUpper(search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to count orders")
	}

	var orders []models.Order
	if err := query.Preload("Items").Preload("User").
		Order("created_at DESC").
		Limit(pagination.Limit).Offset(pagination.Offset).
		Find(&orders).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load orders")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"orders":  orders,
		"pagination": fiber.Map{
			"page":  pagination.Page,
			"limit": pagination.Limit,
			"total": total,
		},
	})
}

type advanceStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

// AdvanceOrderStatus moves an order forward through fulfilment. Illegal
// jumps are rejected.
func (h *AdminHandler) AdvanceOrderStatus(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	var req advanceStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Status == "" {
		return fiber.NewError(fiber.StatusBadRequest, "status is required")
	}

	if err := h.orders.AdvanceStatus(c.Context(), adminActor(c), orderID, req.Status); err != nil {
		return translateError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Order status updated.",
	})
}
