package middleware

import (
	"ecofinds/internal/session"

	"github.com/gofiber/fiber/v2"
)

// LoginPath is where signed-out visitors are sent.
const LoginPath = "/login"

// Decision is the outcome of Guard.
type Decision int

const (
	// Wait means the session is still being resolved.
	Wait Decision = iota
	// Allow means a user is signed in.
	Allow
	// Redirect means nobody is signed in.
	Redirect
)

func (d Decision) String() string {
	switch d {
	case Wait:
		return "wait"
	case Allow:
		return "allow"
	default:
		return "redirect"
	}
}

// Guard decides whether a protected page may be shown.
func Guard(state session.State) Decision {
	switch {
	case state.Loading:
		return Wait
	case state.User != nil:
		return Allow
	default:
		return Redirect
	}
}

// RequireUser guards the routes after it. While the session is unresolved it
// renders waitView with 503 and asks the browser to retry.
func RequireUser(waitView string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		store := StoreFrom(c)
		if store == nil {
			return c.Redirect(LoginPath)
		}
		switch Guard(store.State()) {
		case Wait:
			c.Set(fiber.HeaderRetryAfter, "1")
			c.Set("Refresh", "1")
			return c.Status(fiber.StatusServiceUnavailable).Render(waitView, fiber.Map{
				"Title": "Loading",
				"Nav":   Nav(c),
			})
		case Redirect:
			return c.Redirect(LoginPath)
		}
		return c.Next()
	}
}

// NavData is what the navbar renders.
type NavData struct {
	SignedIn    bool
	DisplayName string
}

// Nav describes the visitor for the navbar.
func Nav(c *fiber.Ctx) NavData {
	store := StoreFrom(c)
	if store == nil || store.User() == nil {
		return NavData{}
	}
	return NavData{SignedIn: true, DisplayName: store.DisplayName()}
}
