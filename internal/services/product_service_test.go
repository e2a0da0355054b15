package services_test

import (
	"context"
	"errors"
	"testing"

	"ecofinds/internal/models"
	"ecofinds/internal/repositories"
	"ecofinds/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetRecent(ctx context.Context, limit int) ([]models.Product, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) Search(ctx context.Context, filter repositories.ProductFilter) ([]models.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByOwner(ctx context.Context, userID string) ([]models.Product, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var validForm = services.ProductForm{
	Title:       "  Road bike ",
	Description: "Barely used",
	Price:       "149.99",
	Category:    "Sports",
	ImageURL:    "https://example.com/bike.jpg",
}

func TestProductService_Featured(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, 0, 0)

	expected := []models.Product{{ID: "1", Title: "Lamp"}, {ID: "2", Title: "Chair"}}
	mockRepo.On("GetRecent", mock.Anything, services.DefaultFeaturedLimit).Return(expected, nil).Once()

	products, err := service.Featured(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, expected, products)
	mockRepo.AssertExpectations(t)
}

func TestProductService_BrowseIgnoresUnknownCategory(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, 6, 20)

	mockRepo.On("Search", mock.Anything, repositories.ProductFilter{Query: "bike", Limit: 20}).
		Return([]models.Product{}, nil).Once()
	mockRepo.On("Search", mock.Anything, repositories.ProductFilter{Query: "", Category: "Books", Limit: 20}).
		Return([]models.Product{{ID: "1"}}, nil).Once()

	products, err := service.Browse(context.Background(), " bike ", "Spaceships")
	assert.NoError(t, err)
	assert.Empty(t, products)

	products, err = service.Browse(context.Background(), "", "Books")
	assert.NoError(t, err)
	assert.Len(t, products, 1)
	mockRepo.AssertExpectations(t)
}

func TestProductService_Create(t *testing.T) {
	mockRepo := new(MockProductRepository)
	events := new(MockPublisher)
	service := services.NewProductService(mockRepo, events, 0, 0)

	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *models.Product) bool {
		return p.Title == "Road bike" && p.Price == 149.99 && p.UserID == "u1" && p.Category == "Sports"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Product).ID = "p1"
	}).Return(nil).Once()
	events.On("Publish", mock.Anything, services.EventProductCreated, mock.MatchedBy(func(payload map[string]interface{}) bool {
		return payload["product_id"] == "p1"
	})).Return(nil).Once()

	product, err := service.Create(context.Background(), "u1", validForm)
	require.NoError(t, err)
	assert.Equal(t, "p1", product.ID)
	mockRepo.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestProductService_CreateValidation(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, 0, 0)

	tests := []struct {
		name  string
		form  services.ProductForm
		field string
		msg   string
	}{
		{"missing title", services.ProductForm{Title: "  ", Price: "1", Category: "Other"}, "Title", "Title is required"},
		{"price not a number", services.ProductForm{Title: "x", Price: "ten", Category: "Other"}, "Price", "Price must be a number"},
		{"negative price", services.ProductForm{Title: "x", Price: "-1", Category: "Other"}, "Price", "Price must be zero or more"},
		{"unknown category", services.ProductForm{Title: "x", Price: "1", Category: "Spaceships"}, "Category", "Category must be one of the listed categories"},
		{"bad image url", services.ProductForm{Title: "x", Price: "1", Category: "Other", ImageURL: "not a url"}, "ImageURL", "Image URL must be a valid URL"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Create(context.Background(), "u1", tc.form)
			require.ErrorIs(t, err, services.ErrValidation)
			var vErr *services.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tc.msg, vErr.Fields[tc.field])
		})
	}
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProductService_UpdateOwnListing(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, 0, 0)

	existing := &models.Product{ID: "p1", Title: "Bike", Price: 100, Category: "Sports", UserID: "u1"}
	mockRepo.On("GetByID", mock.Anything, "p1").Return(existing, nil)
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(p *models.Product) bool {
		return p.ID == "p1" && p.Title == "Road bike" && p.UserID == "u1"
	})).Return(nil).Once()

	updated, err := service.Update(context.Background(), "u1", "p1", validForm)
	require.NoError(t, err)
	assert.Equal(t, 149.99, updated.Price)

	_, err = service.Update(context.Background(), "u2", "p1", validForm)
	assert.ErrorIs(t, err, services.ErrNotOwner)
	mockRepo.AssertNumberOfCalls(t, "Update", 1)
}

func TestProductService_UpdateMissingListing(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, 0, 0)
	mockRepo.On("GetByID", mock.Anything, "gone").Return(nil, repositories.ErrNotFound).Once()

	_, err := service.Update(context.Background(), "u1", "gone", validForm)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestProductService_Delete(t *testing.T) {
	mockRepo := new(MockProductRepository)
	events := new(MockPublisher)
	service := services.NewProductService(mockRepo, events, 0, 0)
	product := &models.Product{ID: "p1", UserID: "u1"}

	assert.ErrorIs(t, service.Delete(context.Background(), "u2", product), services.ErrNotOwner)

	mockRepo.On("Delete", mock.Anything, "p1").Return(nil).Once()
	events.On("Publish", mock.Anything, services.EventProductDeleted, mock.Anything).Return(errors.New("broker down")).Once()
	// A failed publish does not fail the delete.
	assert.NoError(t, service.Delete(context.Background(), "u1", product))
	mockRepo.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestFormFromProduct(t *testing.T) {
	form := services.FormFromProduct(&models.Product{Title: "Lamp", Price: 12.5, Category: "Other"})
	assert.Equal(t, "12.5", form.Price)
	assert.Equal(t, "Lamp", form.Title)
}
