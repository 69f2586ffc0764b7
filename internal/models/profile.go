package models

import "github.com/google/uuid"

// UserAddress is a shipping address. At most one address per user carries
// IsDefault; deleting the default promotes the most recent remaining one.
type UserAddress struct {
	BaseModel
	UserID      uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Label       string    `json:"label"`
	FullName    string    `json:"full_name"`
	AddressLine string    `json:"address_line"`
	City        string    `json:"city"`
	District    string    `json:"district"`
	PostalCode  string    `json:"postal_code"`
	Phone       string    `json:"phone"`
	IsDefault   bool      `json:"is_default"`
}

// WishlistItem bookmarks a product for later. Adding the product to the
// cart removes the bookmark.
type WishlistItem struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;index;index:idx_user_product,unique" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;index:idx_user_product,unique" json:"product_id"`
	Product   *Product  `gorm:"constraint:OnDelete:CASCADE" json:"product,omitempty"`
}
