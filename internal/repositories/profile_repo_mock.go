package repositories

import (
	"context"
	"sync"

	"ecofinds/internal/models"
)

// MockProfileRepository is an in-memory implementation of ProfileRepository.
type MockProfileRepository struct {
	profiles map[string]models.Profile
	mu       sync.RWMutex
}

// NewMockProfileRepository creates a new instance of MockProfileRepository.
func NewMockProfileRepository() *MockProfileRepository {
	return &MockProfileRepository{profiles: make(map[string]models.Profile)}
}

func (r *MockProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, ok := r.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &profile, nil
}

func (r *MockProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.profiles[profile.ID] = *profile
	return nil
}
