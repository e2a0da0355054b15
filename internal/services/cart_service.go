package services

import (
	"context"

	"ecofinds/internal/models"
	"ecofinds/internal/repositories"
)

// CartService handles the shopping cart.
type CartService struct {
	repo   repositories.CartRepository
	events EventPublisher
}

// NewCartService creates a new CartService.
func NewCartService(repo repositories.CartRepository, events EventPublisher) *CartService {
	return &CartService{repo: repo, events: events}
}

// List returns the user's cart, newest first.
func (s *CartService) List(ctx context.Context, userID string) ([]models.CartEntry, error) {
	return s.repo.GetByUser(ctx, userID)
}

// Add puts product in the user's cart. Adding it twice is
// repositories.ErrAlreadyInCart.
func (s *CartService) Add(ctx context.Context, userID string, product *models.Product) (*models.CartEntry, error) {
	if product.UserID == userID {
		return nil, ErrOwnProduct
	}
	entry, err := s.repo.Add(ctx, userID, product.ID)
	if err != nil {
		return nil, err
	}
	entry.Product = product
	publish(ctx, s.events, EventCartItemAdded, map[string]interface{}{
		"user_id":    userID,
		"product_id": product.ID,
	})
	return entry, nil
}

// Remove deletes one entry from the user's cart.
func (s *CartService) Remove(ctx context.Context, userID, entryID string) error {
	if err := s.repo.Remove(ctx, entryID); err != nil {
		return err
	}
	publish(ctx, s.events, EventCartItemRemoved, map[string]interface{}{
		"user_id":  userID,
		"entry_id": entryID,
	})
	return nil
}
