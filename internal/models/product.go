package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Categories lists the fixed set of product categories, in display order.
var Categories = []string{
	"Electronics",
	"Clothing",
	"Home & Garden",
	"Books",
	"Sports",
	"Health & Beauty",
	"Toys",
	"Automotive",
	"Food & Beverages",
	"Other",
}

// DefaultCategory is preselected on new listings.
const DefaultCategory = "Other"

// IsCategory reports whether name is one of the fixed categories.
func IsCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// Product represents a listing in the marketplace.
type Product struct {
	ID          string    `json:"id,omitempty" gorm:"primaryKey;type:varchar(36)"`
	Title       string    `json:"title" gorm:"type:varchar(100);not null"`
	Description string    `json:"description" gorm:"type:text"`
	Price       float64   `json:"price" gorm:"not null"`
	Category    string    `json:"category" gorm:"type:varchar(50);index;not null"`
	ImageURL    string    `json:"image_url,omitempty" gorm:"type:text"`
	UserID      string    `json:"user_id" gorm:"type:varchar(36);index;not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`

	// Profile is the owning seller, present when the read embedded it.
	Profile *Profile `json:"profiles,omitempty" gorm:"foreignKey:UserID;references:ID"`
}

// TableName pins the table name used by the data store.
func (Product) TableName() string { return "products" }

// OwnerID returns the id of the user that owns the row.
func (p Product) OwnerID() string { return p.UserID }

// SellerName is the owner's username, or "" when the profile was not embedded.
func (p Product) SellerName() string {
	if p.Profile == nil {
		return ""
	}
	return p.Profile.Username
}

// BeforeCreate assigns an id and creation time when the caller left them empty.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	return nil
}
