package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartEntry is one product placed in a user's cart.
// At most one entry exists per (user, product) pair.
type CartEntry struct {
	ID        string    `json:"id,omitempty" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"user_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_user_product"`
	ProductID string    `json:"product_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_user_product"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	// Product is the referenced listing, present when the read embedded it.
	// It is nil when the listing was deleted after it was added.
	Product *Product `json:"products,omitempty" gorm:"foreignKey:ProductID;references:ID"`
}

// TableName pins the table name used by the data store.
func (CartEntry) TableName() string { return "cart" }

// OwnerID returns the id of the user that owns the row.
func (e CartEntry) OwnerID() string { return e.UserID }

// BeforeCreate assigns an id and creation time when the caller left them empty.
func (e *CartEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return nil
}
