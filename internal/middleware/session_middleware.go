package middleware

import (
	"context"
	"log"
	"time"

	"ecofinds/internal/gateway"
	"ecofinds/internal/repositories"
	"ecofinds/internal/session"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
)

const (
	storeKey = "session_store"
	tokenKey = "access_token"
)

// SessionConfig wires LoadSession.
type SessionConfig struct {
	Auth     gateway.Auth
	Profiles repositories.ProfileRepository
	Sessions *fibersession.Store
	// ResolveTimeout bounds the session restore. Zero means 3s.
	ResolveTimeout time.Duration
	Completion     session.ProfileCompletion
}

// LoadSession restores the visitor's session from the server-side session
// cookie and makes it available through StoreFrom. Token changes made by the
// handler (sign in, sign out, a rejected token) are persisted afterwards.
func LoadSession(cfg SessionConfig) fiber.Handler {
	timeout := cfg.ResolveTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	var opts []session.Option
	if cfg.Completion != nil {
		opts = append(opts, session.WithProfileCompletion(cfg.Completion))
	}

	return func(c *fiber.Ctx) error {
		sess, err := cfg.Sessions.Get(c)
		if err != nil {
			log.Printf("Failed to read session: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "session unavailable")
		}
		token, _ := sess.Get(tokenKey).(string)

		client := gateway.NewAuthClient(cfg.Auth, token)
		store := session.NewStore(client, cfg.Profiles, opts...)
		defer store.Close()

		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		if err := store.Init(ctx); err != nil {
			log.Printf("Session not resolved in %s: %v", timeout, err)
		}
		cancel()

		c.Locals(storeKey, store)
		handlerErr := c.Next()

		if current := client.AccessToken(); current != token {
			if err := persistToken(sess, token, current); err != nil {
				log.Printf("Failed to save session: %v", err)
			}
		}
		return handlerErr
	}
}

func persistToken(sess *fibersession.Session, previous, current string) error {
	if current == "" {
		return sess.Destroy()
	}
	if previous == "" {
		// New identity, new session id.
		if err := sess.Regenerate(); err != nil {
			return err
		}
	}
	sess.Set(tokenKey, current)
	return sess.Save()
}

// StoreFrom returns the store LoadSession attached to c, or nil.
func StoreFrom(c *fiber.Ctx) *session.Store {
	store, _ := c.Locals(storeKey).(*session.Store)
	return store
}
