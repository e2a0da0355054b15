// Package embedded is a self-hosted implementation of the gateway contract on
// GORM. It runs on PostgreSQL in production and SQLite for development and
// tests, and enforces the same row policies the hosted backend does.
package embedded

import (
	"errors"
	"fmt"
	"log"
	"time"

	"ecofinds/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds the embedded backend settings.
type Config struct {
	Driver    string // "postgres" or "sqlite"
	DSN       string
	JWTSecret string
	TokenTTL  time.Duration
}

// Backend implements gateway.Gateway.
type Backend struct {
	db     *gorm.DB
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Open connects to the configured database and migrates it.
func Open(cfg Config) (*Backend, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite", "":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "ecofinds.db"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return New(db, cfg.JWTSecret, cfg.TokenTTL)
}

// New wraps an open database, migrating the auth and public tables.
func New(db *gorm.DB, jwtSecret string, tokenTTL time.Duration) (*Backend, error) {
	if jwtSecret == "" {
		return nil, errors.New("embedded backend requires a JWT secret")
	}
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	err := db.AutoMigrate(&authUser{}, &revocation{}, &models.Profile{}, &models.Product{}, &models.CartEntry{})
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Println("Embedded backend ready, tables migrated.")

	return &Backend{
		db:     db,
		secret: []byte(jwtSecret),
		ttl:    tokenTTL,
		now:    time.Now,
	}, nil
}

// Close releases the database connection pool.
func (b *Backend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
