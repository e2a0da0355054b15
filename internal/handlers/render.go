package handlers

import (
	"context"

	"ecofinds/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// LoadingView is rendered while the session is still being resolved.
const LoadingView = "loading"

// render fills the layout's shared fields and renders view.
func render(c *fiber.Ctx, status int, view, title string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	data["Title"] = title
	data["Nav"] = middleware.Nav(c)
	return c.Status(status).Render(view, data)
}

// renderLoading answers a request whose data did not arrive in time.
func renderLoading(c *fiber.Ctx) error {
	c.Set(fiber.HeaderRetryAfter, "1")
	c.Set("Refresh", "1")
	return render(c, fiber.StatusServiceUnavailable, LoadingView, "Loading", nil)
}

// viewer returns the context carrying the visitor's token and their user id,
// "" when signed out.
func viewer(c *fiber.Ctx) (context.Context, string) {
	ctx := c.UserContext()
	store := middleware.StoreFrom(c)
	if store == nil {
		return ctx, ""
	}
	var id string
	if user := store.User(); user != nil {
		id = user.ID
	}
	return store.Context(ctx), id
}

// seeOther redirects after a successful form post.
func seeOther(c *fiber.Ctx, path string) error {
	return c.Redirect(path, fiber.StatusSeeOther)
}
