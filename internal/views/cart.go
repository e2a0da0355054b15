package views

import (
	"context"
	"fmt"
	"log"

	"ecofinds/internal/models"
	"ecofinds/internal/services"
)

// CartView shows the viewer's cart and its total.
type CartView struct {
	Entries  []models.CartEntry
	ViewerID string
	Loading  bool
	Error    string
	// Failed is set when the cart itself could not be read.
	Failed bool

	cart    *services.CartService
	tracker Tracker
}

// NewCartView creates a new CartView.
func NewCartView(cart *services.CartService, viewerID string) *CartView {
	return &CartView{ViewerID: viewerID, Loading: true, cart: cart}
}

// Load fetches the viewer's cart entries with their products.
func (v *CartView) Load(ctx context.Context) {
	epoch := v.tracker.Begin()
	entries, err := v.cart.List(ctx, v.ViewerID)
	if !v.tracker.Current(ctx, epoch) {
		return
	}
	defer func() { v.Loading = false }()
	if err != nil {
		log.Printf("Error fetching cart items: %v", err)
		v.Error = "Failed to load cart items"
		v.Failed = true
		return
	}
	v.Entries = entries
}

// Remove deletes one entry and drops it from the list without re-fetching.
// On failure the list is left as it was.
func (v *CartView) Remove(ctx context.Context, entryID string) bool {
	if err := v.cart.Remove(ctx, v.ViewerID, entryID); err != nil {
		log.Printf("Error removing from cart: %v", err)
		v.Error = "Failed to remove item from cart"
		return false
	}
	kept := v.Entries[:0:0]
	for _, e := range v.Entries {
		if e.ID != entryID {
			kept = append(kept, e)
		}
	}
	v.Entries = kept
	return true
}

// Total is the exact sum of the entries' prices. Entries whose product is
// gone count as zero.
func (v *CartView) Total() float64 {
	var cents int64
	for _, e := range v.Entries {
		if e.Product != nil {
			cents += toCents(e.Product.Price)
		}
	}
	return float64(cents) / 100
}

// Count is the number of entries.
func (v *CartView) Count() int { return len(v.Entries) }

// CountLabel reads "1 item" or "n items".
func (v *CartView) CountLabel() string {
	if len(v.Entries) == 1 {
		return "1 item"
	}
	return fmt.Sprintf("%d items", len(v.Entries))
}

// Empty reports a successful load of an empty cart.
func (v *CartView) Empty() bool {
	return !v.Loading && !v.Failed && len(v.Entries) == 0
}

// Close marks any load still in flight as stale.
func (v *CartView) Close() { v.tracker.Close() }
