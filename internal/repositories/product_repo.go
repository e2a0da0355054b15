package repositories

import (
	"context"
	"errors"

	"ecofinds/internal/models"
)

var (
	// ErrNotFound is returned when a single-row read matched nothing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyInCart is returned when the (user, product) pair is already in the cart.
	ErrAlreadyInCart = errors.New("product already in cart")
)

// ProductFilter narrows a product search. Empty fields match everything.
type ProductFilter struct {
	Query    string
	Category string
	Limit    int
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetRecent(ctx context.Context, limit int) ([]models.Product, error)
	Search(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetByOwner(ctx context.Context, userID string) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}
