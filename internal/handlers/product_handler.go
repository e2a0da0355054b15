package handlers

import (
	"ecofinds/internal/middleware"
	"ecofinds/internal/services"
	"ecofinds/internal/views"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles the catalogue and listing pages.
type ProductHandler struct {
	products *services.ProductService
	cart     *services.CartService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(products *services.ProductService, cart *services.CartService) *ProductHandler {
	return &ProductHandler{products: products, cart: cart}
}

// RegisterRoutes registers the product routes. Listing management requires
// a signed-in user.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	guard := middleware.RequireUser(LoadingView)

	router.Get("/", h.HandleHome)
	router.Get("/browse", h.HandleBrowse)
	router.Get("/product/:id", h.HandleProduct)
	router.Post("/product/:id/delete", guard, h.HandleDeleteProduct)

	router.Get("/my-listings", guard, h.HandleMyListings)
	router.Post("/my-listings/:id/delete", guard, h.HandleDeleteListing)

	router.Get("/add-product", guard, h.HandleAddProductPage)
	router.Post("/add-product", guard, h.HandleAddProduct)
	router.Get("/edit-product/:id", guard, h.HandleEditProductPage)
	router.Post("/edit-product/:id", guard, h.HandleEditProduct)
}

// HandleHome shows the most recent listings.
func (h *ProductHandler) HandleHome(c *fiber.Ctx) error {
	ctx, _ := viewer(c)
	view := views.NewHomeView(h.products)
	defer view.Close()
	view.Load(ctx)
	if view.Loading {
		return renderLoading(c)
	}
	return render(c, fiber.StatusOK, "home", "", fiber.Map{"View": view})
}

// HandleBrowse searches the catalogue.
func (h *ProductHandler) HandleBrowse(c *fiber.Ctx) error {
	ctx, _ := viewer(c)
	view := views.NewBrowseView(h.products, c.Query("q"), c.Query("category"))
	defer view.Close()
	view.Load(ctx)
	if view.Loading {
		return renderLoading(c)
	}
	return render(c, fiber.StatusOK, "browse", "Browse", fiber.Map{"View": view})
}

func (h *ProductHandler) loadDetail(c *fiber.Ctx) (*views.ProductDetailView, bool) {
	ctx, viewerID := viewer(c)
	view := views.NewProductDetailView(h.products, h.cart, viewerID)
	view.Load(ctx, c.Params("id"))
	return view, !view.Loading
}

func renderDetail(c *fiber.Ctx, view *views.ProductDetailView) error {
	status := fiber.StatusOK
	title := "Product"
	switch {
	case view.NotFound:
		status = fiber.StatusNotFound
		title = "Not found"
	case view.Product != nil:
		title = view.Product.Title
	}
	return render(c, status, "product", title, fiber.Map{"View": view})
}

// HandleProduct shows one listing.
func (h *ProductHandler) HandleProduct(c *fiber.Ctx) error {
	view, ok := h.loadDetail(c)
	defer view.Close()
	if !ok {
		return renderLoading(c)
	}
	return renderDetail(c, view)
}

// HandleDeleteProduct deletes a listing from its detail page.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	view, ok := h.loadDetail(c)
	defer view.Close()
	if !ok {
		return renderLoading(c)
	}
	ctx, _ := viewer(c)
	if view.Delete(ctx) {
		return seeOther(c, "/my-listings")
	}
	if view.Product != nil && !view.IsOwner() {
		return c.Redirect("/product/"+view.Product.ID, fiber.StatusSeeOther)
	}
	return renderDetail(c, view)
}

// HandleMyListings shows the viewer's listings.
func (h *ProductHandler) HandleMyListings(c *fiber.Ctx) error {
	ctx, viewerID := viewer(c)
	view := views.NewMyListingsView(h.products, viewerID)
	defer view.Close()
	view.Load(ctx)
	if view.Loading {
		return renderLoading(c)
	}
	return render(c, fiber.StatusOK, "my_listings", "My Listings", fiber.Map{"View": view})
}

// HandleDeleteListing deletes one of the viewer's listings.
func (h *ProductHandler) HandleDeleteListing(c *fiber.Ctx) error {
	ctx, viewerID := viewer(c)
	view := views.NewMyListingsView(h.products, viewerID)
	defer view.Close()
	view.Load(ctx)
	if view.Loading {
		return renderLoading(c)
	}
	if view.Error == "" && view.Delete(ctx, c.Params("id")) {
		return seeOther(c, "/my-listings")
	}
	return render(c, fiber.StatusOK, "my_listings", "My Listings", fiber.Map{"View": view})
}

func renderForm(c *fiber.Ctx, status int, view *views.ProductFormView) error {
	title := "Add Product"
	if view.Editing {
		title = "Edit Product"
	}
	if view.NotFound {
		status = fiber.StatusNotFound
	}
	return render(c, status, "product_form", title, fiber.Map{"View": view})
}

// HandleAddProductPage shows an empty listing form.
func (h *ProductHandler) HandleAddProductPage(c *fiber.Ctx) error {
	_, viewerID := viewer(c)
	view := views.NewProductFormView(h.products, viewerID)
	defer view.Close()
	return renderForm(c, fiber.StatusOK, view)
}

// HandleAddProduct creates a listing.
func (h *ProductHandler) HandleAddProduct(c *fiber.Ctx) error {
	ctx, viewerID := viewer(c)
	view := views.NewProductFormView(h.products, viewerID)
	defer view.Close()

	var form services.ProductForm
	if err := c.BodyParser(&form); err != nil {
		view.Error = "Invalid form submission"
		return renderForm(c, fiber.StatusBadRequest, view)
	}
	if view.Submit(ctx, form) {
		return seeOther(c, "/product/"+view.Saved.ID)
	}
	return renderForm(c, fiber.StatusBadRequest, view)
}

// HandleEditProductPage shows the form prefilled with the viewer's listing.
func (h *ProductHandler) HandleEditProductPage(c *fiber.Ctx) error {
	ctx, viewerID := viewer(c)
	view := views.NewProductFormView(h.products, viewerID)
	defer view.Close()
	view.LoadForEdit(ctx, c.Params("id"))
	if view.Loading {
		return renderLoading(c)
	}
	return renderForm(c, fiber.StatusOK, view)
}

// HandleEditProduct saves changes to the viewer's listing.
func (h *ProductHandler) HandleEditProduct(c *fiber.Ctx) error {
	ctx, viewerID := viewer(c)
	view := views.NewProductFormView(h.products, viewerID)
	defer view.Close()
	view.LoadForEdit(ctx, c.Params("id"))
	if view.Loading {
		return renderLoading(c)
	}
	if view.NotFound || view.Error != "" {
		return renderForm(c, fiber.StatusOK, view)
	}

	var form services.ProductForm
	if err := c.BodyParser(&form); err != nil {
		view.Error = "Invalid form submission"
		return renderForm(c, fiber.StatusBadRequest, view)
	}
	if view.Submit(ctx, form) {
		return seeOther(c, "/product/"+view.Saved.ID)
	}
	return renderForm(c, fiber.StatusBadRequest, view)
}
