package repositories

import (
	"context"
	"fmt"

	"ecofinds/internal/gateway"
	"ecofinds/internal/models"
)

// GatewayProfileRepository is a gateway implementation of ProfileRepository.
type GatewayProfileRepository struct {
	tables gateway.Tables
}

// NewGatewayProfileRepository creates a new instance of GatewayProfileRepository.
func NewGatewayProfileRepository(tables gateway.Tables) *GatewayProfileRepository {
	return &GatewayProfileRepository{tables: tables}
}

// GetByID retrieves a profile by its user id.
func (r *GatewayProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.tables.Select(ctx, gateway.From("profiles").Eq("id", id).Single(), &profile); err != nil {
		if gateway.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile %s: %w", id, err)
	}
	return &profile, nil
}

// Create inserts the profile row for an identity.
func (r *GatewayProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	if err := r.tables.Insert(ctx, "profiles", []models.Profile{*profile}, nil); err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}
