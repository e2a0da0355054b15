package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"

	"ecofinds/internal/config"
	"ecofinds/internal/gateway"
	"ecofinds/internal/gateway/embedded"
	"ecofinds/internal/gateway/rest"
	"ecofinds/internal/handlers"
	"ecofinds/internal/middleware"
	"ecofinds/internal/repositories"
	"ecofinds/internal/services"
	"ecofinds/internal/web"
	"ecofinds/pkg/rabbitmq"
)

// eventsQueue receives every marketplace event for the audit log.
const eventsQueue = "ecofinds.audit"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	gw, closeGateway, err := openGateway(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize gateway: %v", err)
	}
	defer closeGateway()

	// Events are optional; without a broker the marketplace runs silently.
	var events services.EventPublisher
	if mqClient := connectEvents(cfg); mqClient != nil {
		defer mqClient.Close()
		events = mqClient
		if err := mqClient.ConsumeEvents(eventsQueue, []string{"#"}, rabbitmq.LogEvent); err != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", err)
		}
	}

	app := NewApp(cfg, gw, events)

	log.Printf("Starting server on port %s (gateway: %s)", cfg.AppPort, cfg.GatewayMode)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// openGateway returns the backend selected by GATEWAY_MODE.
func openGateway(cfg *config.Config) (gateway.Gateway, func() error, error) {
	if cfg.GatewayMode == config.ModeRest {
		client := rest.New(rest.Config{
			URL:     cfg.SupabaseURL,
			AnonKey: cfg.SupabaseAnonKey,
			Timeout: cfg.GatewayTimeout,
		})
		return client, func() error { return nil }, nil
	}

	backend, err := embedded.Open(embedded.Config{
		Driver:    cfg.DatabaseDriver,
		DSN:       cfg.DatabaseDSN,
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.TokenTTL,
	})
	if err != nil {
		return nil, nil, err
	}
	return backend, backend.Close, nil
}

// connectEvents dials RabbitMQ when RABBITMQ_URL is set. It returns nil when
// events are disabled or the broker is unreachable.
func connectEvents(cfg *config.Config) *rabbitmq.Client {
	if cfg.RabbitMQURL == "" {
		log.Println("RABBITMQ_URL not set, marketplace events disabled")
		return nil
	}
	client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Exchange: cfg.EventsExchange})
	if err != nil {
		log.Printf("Failed to initialize RabbitMQ client, events disabled: %v", err)
		return nil
	}
	return client
}

// NewApp assembles the web application on top of gw. events may be nil.
func NewApp(cfg *config.Config, gw gateway.Gateway, events services.EventPublisher) *fiber.App {
	// --- Repositories ---
	profileRepo := repositories.NewGatewayProfileRepository(gw)
	productRepo := repositories.NewGatewayProductRepository(gw)
	cartRepo := repositories.NewGatewayCartRepository(gw)

	// --- Services ---
	authService := services.NewAuthService(profileRepo, events)
	productService := services.NewProductService(productRepo, events, cfg.FeaturedLimit, cfg.BrowseLimit)
	cartService := services.NewCartService(cartRepo, events)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService, cartService)
	cartHandler := handlers.NewCartHandler(productService, cartService)

	app := fiber.New(fiber.Config{
		AppName:     "EcoFinds",
		Views:       web.NewEngine(),
		ViewsLayout: web.Layout,
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		eventsStatus := "disabled"
		if events != nil {
			eventsStatus = "connected"
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "healthy",
			"time":    time.Now().Format(time.RFC3339),
			"gateway": cfg.GatewayMode,
			"events":  eventsStatus,
		})
	})

	app.Use(middleware.LoadSession(middleware.SessionConfig{
		Auth:     gw,
		Profiles: profileRepo,
		Sessions: fibersession.New(fibersession.Config{
			Expiration:     cfg.SessionExpiration,
			KeyLookup:      "cookie:ecofinds_session",
			CookieHTTPOnly: true,
			CookieSameSite: fiber.CookieSameSiteLaxMode,
		}),
		ResolveTimeout: cfg.SessionResolveTimeout,
		Completion:     authService.CompleteProfile,
	}))

	// --- Routes ---
	authHandler.RegisterRoutes(app)
	productHandler.RegisterRoutes(app)
	cartHandler.RegisterRoutes(app)

	// Unknown paths go home.
	app.Use(func(c *fiber.Ctx) error {
		return c.Redirect("/")
	})

	return app
}
