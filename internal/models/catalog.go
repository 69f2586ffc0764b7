package models

import "time"

// Category groups products. Blocked or soft-deleted categories make their
// products unavailable for purchase without touching the product rows.
type Category struct {
	BaseModel
	Name        string `gorm:"uniqueIndex" json:"name"`
	Description string `json:"description"`
	IsListed    bool   `json:"is_listed"`
	IsBlocked   bool   `json:"is_blocked"`

	IsDeleted bool       `json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy string     `json:"deleted_by,omitempty"`

	Products []Product `json:"products,omitempty"`
}

// Available reports whether products in this category may be sold.
func (c *Category) Available() bool {
	return !c.IsDeleted && !c.IsBlocked && c.IsListed
}
