package handlers

import (
	"ecofinds/internal/middleware"
	"ecofinds/internal/services"
	"ecofinds/internal/views"

	"github.com/gofiber/fiber/v2"
)

// CartHandler handles the shopping cart pages.
type CartHandler struct {
	products *services.ProductService
	cart     *services.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(products *services.ProductService, cart *services.CartService) *CartHandler {
	return &CartHandler{products: products, cart: cart}
}

// RegisterRoutes registers the cart routes, all of which require a
// signed-in user.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	guard := middleware.RequireUser(LoadingView)

	router.Get("/cart", guard, h.HandleCart)
	router.Post("/cart/:id/remove", guard, h.HandleRemove)
	router.Post("/product/:id/cart", guard, h.HandleAdd)
}

// HandleCart lists the viewer's cart.
func (h *CartHandler) HandleCart(c *fiber.Ctx) error {
	ctx, viewerID := viewer(c)
	view := views.NewCartView(h.cart, viewerID)
	defer view.Close()
	view.Load(ctx)
	if view.Loading {
		return renderLoading(c)
	}
	return render(c, fiber.StatusOK, "cart", "Cart", fiber.Map{"View": view})
}

// HandleRemove removes one entry from the viewer's cart.
func (h *CartHandler) HandleRemove(c *fiber.Ctx) error {
	ctx, viewerID := viewer(c)
	view := views.NewCartView(h.cart, viewerID)
	defer view.Close()
	view.Load(ctx)
	if view.Loading {
		return renderLoading(c)
	}
	if view.Error == "" && view.Remove(ctx, c.Params("id")) {
		return seeOther(c, "/cart")
	}
	return render(c, fiber.StatusOK, "cart", "Cart", fiber.Map{"View": view})
}

// HandleAdd puts the product in the viewer's cart.
func (h *CartHandler) HandleAdd(c *fiber.Ctx) error {
	ctx, viewerID := viewer(c)
	view := views.NewProductDetailView(h.products, h.cart, viewerID)
	defer view.Close()
	view.Load(ctx, c.Params("id"))
	if view.Loading {
		return renderLoading(c)
	}
	if view.AddToCart(ctx) {
		return seeOther(c, "/cart")
	}
	return renderDetail(c, view)
}
