package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"ecofinds/internal/models"

	"github.com/google/uuid"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
// It applies no row policies.
type MockProductRepository struct {
	products map[string]models.Product
	profiles *MockProfileRepository
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
// Sellers are looked up in profiles when it is not nil.
func NewMockProductRepository(profiles *MockProfileRepository) *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]models.Product),
		profiles: profiles,
	}
}

func (r *MockProductRepository) withSeller(p models.Product) models.Product {
	if r.profiles != nil {
		if profile, err := r.profiles.GetByID(context.Background(), p.UserID); err == nil {
			p.Profile = profile
		}
	}
	return p
}

// list returns the matching products, newest first.
func (r *MockProductRepository) list(match func(models.Product) bool, limit int) []models.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if match(p) {
			productList = append(productList, r.withSeller(p))
		}
	}
	sort.Slice(productList, func(i, j int) bool {
		return productList[i].CreatedAt.After(productList[j].CreatedAt)
	})
	if limit > 0 && len(productList) > limit {
		productList = productList[:limit]
	}
	return productList
}

func (r *MockProductRepository) GetRecent(ctx context.Context, limit int) ([]models.Product, error) {
	return r.list(func(models.Product) bool { return true }, limit), nil
}

func (r *MockProductRepository) Search(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	term := strings.ToLower(likeTerm(filter.Query))
	return r.list(func(p models.Product) bool {
		if filter.Category != "" && p.Category != filter.Category {
			return false
		}
		return strings.Contains(strings.ToLower(p.Title), term)
	}, filter.Limit), nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	product = r.withSeller(product)
	return &product, nil
}

func (r *MockProductRepository) GetByOwner(ctx context.Context, userID string) ([]models.Product, error) {
	return r.list(func(p models.Product) bool { return p.UserID == userID }, 0), nil
}

// Create adds a new product.
func (r *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now()
	}
	r.products[product.ID] = *product
	return nil
}

// Update modifies an existing product. Unknown ids are ignored.
func (r *MockProductRepository) Update(ctx context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[product.ID]
	if !ok {
		return nil
	}
	existing.Title = product.Title
	existing.Description = product.Description
	existing.Price = product.Price
	existing.Category = product.Category
	existing.ImageURL = product.ImageURL
	r.products[product.ID] = existing
	return nil
}

// Delete removes a product by its ID.
func (r *MockProductRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.products, id)
	return nil
}
