package views

import (
	"context"
	"log"

	"ecofinds/internal/models"
	"ecofinds/internal/services"
)

// BrowseView searches listings by title and category.
type BrowseView struct {
	Query      string
	Category   string
	Categories []string
	Products   []models.Product
	Loading    bool
	Error      string

	products *services.ProductService
	tracker  Tracker
}

// NewBrowseView creates a new BrowseView for the given search text and category.
func NewBrowseView(products *services.ProductService, query, category string) *BrowseView {
	if !models.IsCategory(category) {
		category = ""
	}
	return &BrowseView{
		Query:      query,
		Category:   category,
		Categories: models.Categories,
		Loading:    true,
		products:   products,
	}
}

// Load runs the search.
func (v *BrowseView) Load(ctx context.Context) {
	epoch := v.tracker.Begin()
	products, err := v.products.Browse(ctx, v.Query, v.Category)
	if !v.tracker.Current(ctx, epoch) {
		return
	}
	defer func() { v.Loading = false }()
	if err != nil {
		log.Printf("Error browsing products: %v", err)
		v.Error = "Failed to load products"
		return
	}
	v.Products = products
}

// Empty reports a successful search that matched nothing.
func (v *BrowseView) Empty() bool {
	return !v.Loading && v.Error == "" && len(v.Products) == 0
}

// Filtered reports whether a search term or category is applied.
func (v *BrowseView) Filtered() bool {
	return v.Query != "" || v.Category != ""
}

// Close marks any load still in flight as stale.
func (v *BrowseView) Close() { v.tracker.Close() }
