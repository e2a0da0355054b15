package views

import (
	"context"
	"log"

	"ecofinds/internal/models"
	"ecofinds/internal/services"
)

// HomeView shows the most recent listings.
type HomeView struct {
	Products []models.Product
	Loading  bool
	Error    string

	products *services.ProductService
	tracker  Tracker
}

// NewHomeView creates a new HomeView.
func NewHomeView(products *services.ProductService) *HomeView {
	return &HomeView{Loading: true, products: products}
}

// Load fetches the featured products.
func (v *HomeView) Load(ctx context.Context) {
	epoch := v.tracker.Begin()
	products, err := v.products.Featured(ctx)
	if !v.tracker.Current(ctx, epoch) {
		return
	}
	defer func() { v.Loading = false }()
	if err != nil {
		log.Printf("Error fetching featured products: %v", err)
		v.Error = "Failed to load products"
		return
	}
	v.Products = products
}

// Empty reports a successful load with nothing to show.
func (v *HomeView) Empty() bool {
	return !v.Loading && v.Error == "" && len(v.Products) == 0
}

// Close marks any load still in flight as stale.
func (v *HomeView) Close() { v.tracker.Close() }
