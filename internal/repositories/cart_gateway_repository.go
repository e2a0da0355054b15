package repositories

import (
	"context"
	"fmt"

	"ecofinds/internal/gateway"
	"ecofinds/internal/models"
)

const cartTable = "cart"

// GatewayCartRepository is a gateway implementation of CartRepository.
type GatewayCartRepository struct {
	tables gateway.Tables
}

// NewGatewayCartRepository creates a new instance of GatewayCartRepository.
func NewGatewayCartRepository(tables gateway.Tables) *GatewayCartRepository {
	return &GatewayCartRepository{tables: tables}
}

func (r *GatewayCartRepository) GetByUser(ctx context.Context, userID string) ([]models.CartEntry, error) {
	q := gateway.From(cartTable).
		Embed(productsTable, "*", gateway.Embed{Table: "profiles", Columns: "username"}).
		Eq("user_id", userID).
		Order("created_at", false)
	var entries []models.CartEntry
	if err := r.tables.Select(ctx, q, &entries); err != nil {
		return nil, fmt.Errorf("failed to get cart for user %s: %w", userID, err)
	}
	return entries, nil
}

// Add inserts one entry. A second add of the same product is ErrAlreadyInCart.
func (r *GatewayCartRepository) Add(ctx context.Context, userID, productID string) (*models.CartEntry, error) {
	var created []models.CartEntry
	rows := []models.CartEntry{{UserID: userID, ProductID: productID}}
	if err := r.tables.Insert(ctx, cartTable, rows, &created); err != nil {
		if gateway.IsUniqueViolation(err) {
			return nil, ErrAlreadyInCart
		}
		return nil, fmt.Errorf("failed to add product %s to cart: %w", productID, err)
	}
	if len(created) == 0 {
		return &rows[0], nil
	}
	return &created[0], nil
}

func (r *GatewayCartRepository) Remove(ctx context.Context, id string) error {
	if err := r.tables.Delete(ctx, cartTable, gateway.Eq("id", id)); err != nil {
		return fmt.Errorf("failed to remove cart entry %s: %w", id, err)
	}
	return nil
}
