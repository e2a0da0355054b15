package repositories

import (
	"context"
	"fmt"
	"strings"

	"ecofinds/internal/gateway"
	"ecofinds/internal/models"
)

const productsTable = "products"

// GatewayProductRepository is a gateway implementation of ProductRepository.
type GatewayProductRepository struct {
	tables gateway.Tables
}

// NewGatewayProductRepository creates a new instance of GatewayProductRepository.
func NewGatewayProductRepository(tables gateway.Tables) *GatewayProductRepository {
	return &GatewayProductRepository{
		tables: tables,
	}
}

func productsWithSeller() *gateway.Query {
	return gateway.From(productsTable).Embed("profiles", "username")
}

// GetRecent returns the newest products with their sellers.
func (r *GatewayProductRepository) GetRecent(ctx context.Context, limit int) ([]models.Product, error) {
	q := productsWithSeller().Order("created_at", false)
	if limit > 0 {
		q.Limit(limit)
	}
	var products []models.Product
	if err := r.tables.Select(ctx, q, &products); err != nil {
		return nil, fmt.Errorf("failed to get recent products: %w", err)
	}
	return products, nil
}

// Search matches titles case-insensitively and filters by category.
func (r *GatewayProductRepository) Search(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	q := productsWithSeller().Order("created_at", false)
	if term := likeTerm(filter.Query); term != "" {
		q.ILike("title", "%"+term+"%")
	}
	if filter.Category != "" {
		q.Eq("category", filter.Category)
	}
	if filter.Limit > 0 {
		q.Limit(filter.Limit)
	}
	var products []models.Product
	if err := r.tables.Select(ctx, q, &products); err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

// likeTerm drops wildcard characters from user input.
func likeTerm(s string) string {
	return strings.TrimSpace(strings.NewReplacer("%", "", "*", "", "_", "", "\\", "").Replace(s))
}

// GetByID retrieves a single product with its seller.
func (r *GatewayProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.tables.Select(ctx, productsWithSeller().Eq("id", id).Single(), &product); err != nil {
		if gateway.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// GetByOwner returns a user's own listings, newest first.
func (r *GatewayProductRepository) GetByOwner(ctx context.Context, userID string) ([]models.Product, error) {
	q := gateway.From(productsTable).Eq("user_id", userID).Order("created_at", false)
	var products []models.Product
	if err := r.tables.Select(ctx, q, &products); err != nil {
		return nil, fmt.Errorf("failed to get products for user %s: %w", userID, err)
	}
	return products, nil
}

// Create inserts the product and copies the stored row back into it.
func (r *GatewayProductRepository) Create(ctx context.Context, product *models.Product) error {
	var created []models.Product
	if err := r.tables.Insert(ctx, productsTable, []models.Product{*product}, &created); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	if len(created) == 1 {
		*product = created[0]
	}
	return nil
}

// Update writes the editable fields of the product.
func (r *GatewayProductRepository) Update(ctx context.Context, product *models.Product) error {
	values := map[string]any{
		"title":       product.Title,
		"description": product.Description,
		"price":       product.Price,
		"category":    product.Category,
		"image_url":   product.ImageURL,
	}
	if err := r.tables.Update(ctx, productsTable, values, gateway.Eq("id", product.ID)); err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// Delete deletes a product by its ID.
func (r *GatewayProductRepository) Delete(ctx context.Context, id string) error {
	if err := r.tables.Delete(ctx, productsTable, gateway.Eq("id", id)); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}
