package repositories

import (
	"context"

	"ecofinds/internal/models"
)

// CartRepository defines the interface for cart data access.
type CartRepository interface {
	// GetByUser returns the user's entries, newest first, each with its
	// product and the product's seller.
	GetByUser(ctx context.Context, userID string) ([]models.CartEntry, error)
	Add(ctx context.Context, userID, productID string) (*models.CartEntry, error)
	Remove(ctx context.Context, id string) error
}
