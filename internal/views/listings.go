package views

import (
	"context"
	"log"

	"ecofinds/internal/models"
	"ecofinds/internal/services"
)

// MyListingsView shows the viewer's own listings.
type MyListingsView struct {
	Products []models.Product
	ViewerID string
	Loading  bool
	Error    string

	products *services.ProductService
	tracker  Tracker
}

// NewMyListingsView creates a new MyListingsView.
func NewMyListingsView(products *services.ProductService, viewerID string) *MyListingsView {
	return &MyListingsView{ViewerID: viewerID, Loading: true, products: products}
}

// Load fetches the viewer's listings, newest first.
func (v *MyListingsView) Load(ctx context.Context) {
	epoch := v.tracker.Begin()
	products, err := v.products.Mine(ctx, v.ViewerID)
	if !v.tracker.Current(ctx, epoch) {
		return
	}
	defer func() { v.Loading = false }()
	if err != nil {
		log.Printf("Error fetching user products: %v", err)
		v.Error = "Failed to load your listings"
		return
	}
	v.Products = products
}

// Delete removes a listing and drops it from the list without re-fetching.
func (v *MyListingsView) Delete(ctx context.Context, id string) bool {
	idx := -1
	for i := range v.Products {
		if v.Products[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	if err := v.products.Delete(ctx, v.ViewerID, &v.Products[idx]); err != nil {
		log.Printf("Error deleting product: %v", err)
		v.Error = "Failed to delete product"
		return false
	}
	v.Products = append(v.Products[:idx:idx], v.Products[idx+1:]...)
	return true
}

// Empty reports a successful load with no listings.
func (v *MyListingsView) Empty() bool {
	return !v.Loading && v.Error == "" && len(v.Products) == 0
}

// Close marks any load still in flight as stale.
func (v *MyListingsView) Close() { v.tracker.Close() }
