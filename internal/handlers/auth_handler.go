package handlers

import (
	"errors"
	"log"

	"ecofinds/internal/middleware"
	"ecofinds/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles the sign-in, sign-up and sign-out pages.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRoutes registers the authentication routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/login", h.HandleLoginPage)
	router.Post("/login", h.HandleLogin)
	router.Get("/signup", h.HandleSignUpPage)
	router.Post("/signup", h.HandleSignUp)
	router.Post("/logout", h.HandleLogout)
}

func loginData(email, errMsg string) fiber.Map {
	return fiber.Map{"Email": email, "Error": errMsg}
}

func signUpData(in services.SignUpInput, errMsg, notice string) fiber.Map {
	return fiber.Map{"Username": in.Username, "Email": in.Email, "Error": errMsg, "Notice": notice}
}

func signedIn(c *fiber.Ctx) bool {
	return middleware.Nav(c).SignedIn
}

// HandleLoginPage shows the sign-in form.
func (h *AuthHandler) HandleLoginPage(c *fiber.Ctx) error {
	if signedIn(c) {
		return c.Redirect("/")
	}
	return render(c, fiber.StatusOK, "login", "Sign in", loginData("", ""))
}

// HandleLogin signs the visitor in.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var in services.SignInInput
	if err := c.BodyParser(&in); err != nil {
		log.Printf("Error parsing login form: %v", err)
		return render(c, fiber.StatusBadRequest, "login", "Sign in", loginData("", "Invalid form submission"))
	}

	store := middleware.StoreFrom(c)
	if err := h.authService.SignIn(c.UserContext(), store, in); err != nil {
		status := fiber.StatusUnauthorized
		if errors.Is(err, services.ErrValidation) {
			status = fiber.StatusBadRequest
		}
		return render(c, status, "login", "Sign in", loginData(in.Email, services.Message(err)))
	}
	return seeOther(c, "/")
}

// HandleSignUpPage shows the sign-up form.
func (h *AuthHandler) HandleSignUpPage(c *fiber.Ctx) error {
	if signedIn(c) {
		return c.Redirect("/")
	}
	return render(c, fiber.StatusOK, "signup", "Sign up", signUpData(services.SignUpInput{}, "", ""))
}

// HandleSignUp creates the account and its profile.
func (h *AuthHandler) HandleSignUp(c *fiber.Ctx) error {
	var in services.SignUpInput
	if err := c.BodyParser(&in); err != nil {
		log.Printf("Error parsing sign-up form: %v", err)
		return render(c, fiber.StatusBadRequest, "signup", "Sign up", signUpData(in, "Invalid form submission", ""))
	}

	store := middleware.StoreFrom(c)
	result, err := h.authService.SignUp(c.UserContext(), store, in)
	if err != nil {
		status := fiber.StatusBadRequest
		if !errors.Is(err, services.ErrValidation) {
			log.Printf("Error signing up %s: %v", in.Email, err)
		}
		return render(c, status, "signup", "Sign up", signUpData(in, services.Message(err), ""))
	}
	if result.ConfirmationRequired {
		return render(c, fiber.StatusOK, "signup", "Sign up", signUpData(services.SignUpInput{},
			"", "Check your email to confirm your account, then sign in."))
	}
	return seeOther(c, "/")
}

// HandleLogout signs the visitor out.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.authService.SignOut(c.UserContext(), middleware.StoreFrom(c)); err != nil {
		log.Printf("Error signing out: %v", err)
	}
	return seeOther(c, "/")
}
