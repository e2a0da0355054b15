package repositories

import (
	"context"

	"ecofinds/internal/models"
)

// ProfileRepository defines the interface for profile data access.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
}
