package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"ecofinds/internal/models"

	"github.com/google/uuid"
)

// MockCartRepository is an in-memory implementation of CartRepository that
// keeps the one-entry-per-product rule.
type MockCartRepository struct {
	entries  map[string]models.CartEntry
	products ProductRepository
	mu       sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
// Entries are joined with products on read.
func NewMockCartRepository(products ProductRepository) *MockCartRepository {
	return &MockCartRepository{
		entries:  make(map[string]models.CartEntry),
		products: products,
	}
}

func (r *MockCartRepository) GetByUser(ctx context.Context, userID string) ([]models.CartEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entryList := make([]models.CartEntry, 0)
	for _, e := range r.entries {
		if e.UserID != userID {
			continue
		}
		if p, err := r.products.GetByID(ctx, e.ProductID); err == nil {
			e.Product = p
		}
		entryList = append(entryList, e)
	}
	sort.Slice(entryList, func(i, j int) bool {
		return entryList[i].CreatedAt.After(entryList[j].CreatedAt)
	})
	return entryList, nil
}

func (r *MockCartRepository) Add(ctx context.Context, userID, productID string) (*models.CartEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.UserID == userID && e.ProductID == productID {
			return nil, ErrAlreadyInCart
		}
	}
	entry := models.CartEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now(),
	}
	r.entries[entry.ID] = entry
	return &entry, nil
}

func (r *MockCartRepository) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, id)
	return nil
}
