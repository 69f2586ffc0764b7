package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/sitwell/internal/models"
	"github.com/example/sitwell/internal/utils"
)

// CatalogHandler serves the public product and category browse endpoints.
type CatalogHandler struct {
	db *gorm.DB
}

func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{db: db}
}

// storefrontProducts scopes a query to products a customer may see:
// live products in listed, unblocked categories.
func storefrontProducts(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Product{}).
		Joins("JOIN categories ON categories.id = products.category_id").
		Where("products.is_deleted = ? AND products.is_blocked = ?", false, false).
		Where("products.status IN ?", []string{
			models.ProductStatusPublished,
			models.ProductStatusLowStock,
			models.ProductStatusOutOfStock,
		}).
		Where("categories.is_deleted = ? AND categories.is_blocked = ? AND categories.is_listed = ?",
			false, false, true)
}

// ListProducts returns the paginated storefront catalog with optional
// search, category and price filters.
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	pagination := utils.ParsePagination(c)

	query := storefrontProducts(h.db).Preload("Category")

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(products.name) LIKE ? OR LOWER(products.brand) LIKE ? OR LOWER(products.short_description) LIKE ?",
			pattern, pattern, pattern)
	}
	if categoryID := c.Query("category"); categoryID != "" {
		id, err := uuid.Parse(categoryID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid category id")
		}
		query = query.Where("products.category_id = ?", id)
	}
	if minPrice := c.QueryFloat("min_price", -1); minPrice >= 0 {
		query = query.Where("products.price >= ?", minPrice)
	}
	if maxPrice := c.QueryFloat("max_price", -1); maxPrice >= 0 {
		query = query.Where("products.price <= ?", maxPrice)
	}

	switch c.Query("sort") {
	case "price_asc":
		query = query.Order("products.price ASC")
	case "price_desc":
		query = query.Order("products.price DESC")
	case "name":
		query = query.Order("products.name ASC")
	default:
		query = query.Order("products.created_at DESC")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to count products")
	}

	var products []models.Product
	if err := query.Limit(pagination.Limit).Offset(pagination.Offset).
		Find(&products).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load products")
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"products": productViews(products),
		"pagination": fiber.Map{
			"page":  pagination.Page,
			"limit": pagination.Limit,
			"total": total,
		},
	})
}

// GetProduct returns one storefront product with its derived pricing.
func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	var product models.Product
	if err := storefrontProducts(h.db).Preload("Category").
		Where("products.id = ?", id).
		First(&product).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load product")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"product": productView(product),
	})
}

// ListCategories returns the listed categories for storefront navigation.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	var categories []models.Category
	if err := h.db.
		Where("is_deleted = ? AND is_blocked = ? AND is_listed = ?", false, false, true).
		Order("name ASC").
		Find(&categories).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load categories")
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"categories": categories,
	})
}

// productView adds the derived price fields the storefront renders.
func productView(p models.Product) fiber.Map {
	return fiber.Map{
		"id":                p.ID,
		"name":              p.Name,
		"brand":             p.Brand,
		"short_description": p.ShortDescription,
		"long_description":  p.LongDescription,
		"sku":               p.SKU,
		"category":          p.Category,
		"price":             p.Price,
		"discounted_price":  p.DiscountedPrice(),
		"discount_amount":   p.DiscountAmount(),
		"final_price":       p.FinalPriceWithTax(),
		"status":            p.Status,
		"in_stock":          p.StockQuantity > 0,
		"low_stock":         p.IsLowStock(),
		"max_per_order":     models.MaxQuantityPerProduct,
		"created_at":        p.CreatedAt,
	}
}

func productViews(products []models.Product) []fiber.Map {
	views := make([]fiber.Map, 0, len(products))
	for _, p := range products {
		views = append(views, productView(p))
	}
	return views
}
