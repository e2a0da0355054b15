package views

import (
	"context"
	"errors"
	"log"

	"ecofinds/internal/models"
	"ecofinds/internal/repositories"
	"ecofinds/internal/services"
)

// ProductDetailView shows one listing with owner or buyer actions.
//
// The ownership checks only decide which controls are rendered. Writes are
// authorized by the backend's row policies.
type ProductDetailView struct {
	Product  *models.Product
	ViewerID string
	Loading  bool
	NotFound bool
	Error    string

	products *services.ProductService
	cart     *services.CartService
	tracker  Tracker
}

// NewProductDetailView creates a new ProductDetailView.
func NewProductDetailView(products *services.ProductService, cart *services.CartService, viewerID string) *ProductDetailView {
	return &ProductDetailView{
		ViewerID: viewerID,
		Loading:  true,
		products: products,
		cart:     cart,
	}
}

// Load fetches the product with its seller. A missing product sets NotFound.
func (v *ProductDetailView) Load(ctx context.Context, id string) {
	epoch := v.tracker.Begin()
	product, err := v.products.Get(ctx, id)
	if !v.tracker.Current(ctx, epoch) {
		return
	}
	defer func() { v.Loading = false }()
	if errors.Is(err, repositories.ErrNotFound) {
		v.NotFound = true
		return
	}
	if err != nil {
		log.Printf("Error fetching product %s: %v", id, err)
		v.Error = "Failed to load product"
		return
	}
	v.Product = product
}

// SignedIn reports whether someone is viewing while signed in.
func (v *ProductDetailView) SignedIn() bool { return v.ViewerID != "" }

// IsOwner reports whether the viewer listed the product.
func (v *ProductDetailView) IsOwner() bool {
	return v.Product != nil && v.ViewerID != "" && v.Product.UserID == v.ViewerID
}

// CanEdit reports whether the viewer may edit the listing.
func (v *ProductDetailView) CanEdit() bool { return v.IsOwner() }

// CanDelete reports whether the viewer may delete the listing.
func (v *ProductDetailView) CanDelete() bool { return v.IsOwner() }

// CanAddToCart is true for signed-in viewers who do not own the product.
func (v *ProductDetailView) CanAddToCart() bool {
	return v.Product != nil && v.SignedIn() && !v.IsOwner()
}

// AddToCart reports whether the product was added. A duplicate gets its own
// message.
func (v *ProductDetailView) AddToCart(ctx context.Context) bool {
	if !v.CanAddToCart() {
		return false
	}
	_, err := v.cart.Add(ctx, v.ViewerID, v.Product)
	switch {
	case err == nil:
		v.Error = ""
		return true
	case errors.Is(err, repositories.ErrAlreadyInCart):
		v.Error = "This item is already in your cart"
	default:
		log.Printf("Error adding to cart: %v", err)
		v.Error = "Failed to add to cart"
	}
	return false
}

// Delete reports whether the owner's listing was removed.
func (v *ProductDetailView) Delete(ctx context.Context) bool {
	if !v.CanDelete() {
		return false
	}
	if err := v.products.Delete(ctx, v.ViewerID, v.Product); err != nil {
		log.Printf("Error deleting product: %v", err)
		v.Error = "Failed to delete product"
		return false
	}
	return true
}

// Close marks any load still in flight as stale.
func (v *ProductDetailView) Close() { v.tracker.Close() }

// ProductFormView adds a new listing or edits one of the viewer's own.
type ProductFormView struct {
	Form        services.ProductForm
	Categories  []string
	ProductID   string
	Editing     bool
	ViewerID    string
	Loading     bool
	NotFound    bool
	Error       string
	FieldErrors map[string]string
	Saved       *models.Product

	products *services.ProductService
	tracker  Tracker
}

// NewProductFormView starts an empty form for a new listing.
func NewProductFormView(products *services.ProductService, viewerID string) *ProductFormView {
	return &ProductFormView{
		Form:       services.ProductForm{Category: models.DefaultCategory},
		Categories: models.Categories,
		ViewerID:   viewerID,
		products:   products,
	}
}

// LoadForEdit prefills the form from the viewer's listing.
func (v *ProductFormView) LoadForEdit(ctx context.Context, id string) {
	v.Editing = true
	v.ProductID = id
	v.Loading = true

	epoch := v.tracker.Begin()
	product, err := v.products.Get(ctx, id)
	if !v.tracker.Current(ctx, epoch) {
		return
	}
	defer func() { v.Loading = false }()
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		v.NotFound = true
	case err != nil:
		log.Printf("Error fetching product %s: %v", id, err)
		v.Error = "Failed to load product"
	case product.UserID != v.ViewerID:
		// Someone else's listing is treated as missing.
		v.NotFound = true
	default:
		v.Form = services.FormFromProduct(product)
	}
}

// Submit saves the form. On failure the submitted values stay in the form.
func (v *ProductFormView) Submit(ctx context.Context, form services.ProductForm) bool {
	v.Form = form
	v.Error = ""
	v.FieldErrors = nil

	var (
		saved *models.Product
		err   error
	)
	if v.Editing {
		saved, err = v.products.Update(ctx, v.ViewerID, v.ProductID, form)
	} else {
		saved, err = v.products.Create(ctx, v.ViewerID, form)
	}
	if err == nil {
		v.Saved = saved
		return true
	}

	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		v.FieldErrors = vErr.Fields
		v.Error = "Please fix the highlighted fields"
	case errors.Is(err, repositories.ErrNotFound), errors.Is(err, services.ErrNotOwner):
		v.NotFound = true
	default:
		log.Printf("Error saving product: %v", err)
		v.Error = services.Message(err)
	}
	return false
}

// FieldError returns the message for one form field, or "".
func (v *ProductFormView) FieldError(field string) string {
	return v.FieldErrors[field]
}

// Close marks any load still in flight as stale.
func (v *ProductFormView) Close() { v.tracker.Close() }
