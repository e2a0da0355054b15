// Package config loads application settings from the environment.
package config

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Gateway modes.
const (
	ModeRest     = "rest"
	ModeEmbedded = "embedded"
)

// Config holds every setting the server needs.
type Config struct {
	AppPort     string
	GatewayMode string

	SupabaseURL     string
	SupabaseAnonKey string
	GatewayTimeout  time.Duration

	DatabaseDriver string
	DatabaseDSN    string
	JWTSecret      string
	TokenTTL       time.Duration

	RabbitMQURL    string
	EventsExchange string

	SessionExpiration     time.Duration
	SessionResolveTimeout time.Duration

	FeaturedLimit int
	BrowseLimit   int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("GATEWAY_MODE", ModeEmbedded)
	v.SetDefault("GATEWAY_TIMEOUT", "10s")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "ecofinds.db")
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("EVENTS_EXCHANGE", "ecofinds.events")
	v.SetDefault("SESSION_EXPIRATION", "168h")
	v.SetDefault("SESSION_RESOLVE_TIMEOUT", "3s")
	v.SetDefault("FEATURED_LIMIT", 6)
	v.SetDefault("BROWSE_LIMIT", 48)
}

// Load reads an optional .env file, then the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:               v.GetString("APP_PORT"),
		GatewayMode:           strings.ToLower(strings.TrimSpace(v.GetString("GATEWAY_MODE"))),
		SupabaseURL:           strings.TrimRight(v.GetString("SUPABASE_URL"), "/"),
		SupabaseAnonKey:       v.GetString("SUPABASE_ANON_KEY"),
		GatewayTimeout:        v.GetDuration("GATEWAY_TIMEOUT"),
		DatabaseDriver:        v.GetString("DATABASE_DRIVER"),
		DatabaseDSN:           v.GetString("DATABASE_DSN"),
		JWTSecret:             v.GetString("JWT_SECRET"),
		TokenTTL:              v.GetDuration("TOKEN_TTL"),
		RabbitMQURL:           v.GetString("RABBITMQ_URL"),
		EventsExchange:        v.GetString("EVENTS_EXCHANGE"),
		SessionExpiration:     v.GetDuration("SESSION_EXPIRATION"),
		SessionResolveTimeout: v.GetDuration("SESSION_RESOLVE_TIMEOUT"),
		FeaturedLimit:         v.GetInt("FEATURED_LIMIT"),
		BrowseLimit:           v.GetInt("BROWSE_LIMIT"),
	}
	if cfg.AppPort != "" && !strings.Contains(cfg.AppPort, ":") {
		cfg.AppPort = ":" + cfg.AppPort
	}

	switch cfg.GatewayMode {
	case ModeRest:
		// The server still starts; every gateway call fails until this is fixed.
		if cfg.SupabaseURL == "" || cfg.SupabaseAnonKey == "" {
			log.Println("Configuration error: SUPABASE_URL and SUPABASE_ANON_KEY must be set in rest mode")
		}
	case ModeEmbedded:
		if cfg.JWTSecret == "change-me" {
			log.Println("Warning: JWT_SECRET is the default value, set it before deploying")
		}
	default:
		return nil, errors.New("GATEWAY_MODE must be \"rest\" or \"embedded\", got " + cfg.GatewayMode)
	}
	return cfg, nil
}
