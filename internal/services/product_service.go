package services

import (
	"context"
	"strconv"
	"strings"

	"ecofinds/internal/models"
	"ecofinds/internal/repositories"

	"github.com/go-playground/validator/v10"
)

// Default page sizes.
const (
	DefaultFeaturedLimit = 6
	DefaultBrowseLimit   = 48
)

// ProductForm is the add/edit listing form as submitted.
type ProductForm struct {
	Title       string `form:"title" validate:"required,max=100"`
	Description string `form:"description" validate:"max=2000"`
	Price       string `form:"price" validate:"required,numeric"`
	Category    string `form:"category" validate:"required,category"`
	ImageURL    string `form:"image_url" validate:"omitempty,url"`
}

var productLabels = map[string]string{
	"Title":       "Title",
	"Description": "Description",
	"Price":       "Price",
	"Category":    "Category",
	"ImageURL":    "Image URL",
}

// FormFromProduct prefills the form for editing.
func FormFromProduct(p *models.Product) ProductForm {
	return ProductForm{
		Title:       p.Title,
		Description: p.Description,
		Price:       strconv.FormatFloat(p.Price, 'f', -1, 64),
		Category:    p.Category,
		ImageURL:    p.ImageURL,
	}
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo          repositories.ProductRepository
	events        EventPublisher
	validate      *validator.Validate
	featuredLimit int
	browseLimit   int
}

// NewProductService creates a new ProductService. Non-positive limits fall
// back to the defaults.
func NewProductService(repo repositories.ProductRepository, events EventPublisher, featuredLimit, browseLimit int) *ProductService {
	if featuredLimit <= 0 {
		featuredLimit = DefaultFeaturedLimit
	}
	if browseLimit <= 0 {
		browseLimit = DefaultBrowseLimit
	}
	return &ProductService{
		repo:          repo,
		events:        events,
		validate:      newValidator(),
		featuredLimit: featuredLimit,
		browseLimit:   browseLimit,
	}
}

// Featured returns the most recent listings for the home page.
func (s *ProductService) Featured(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetRecent(ctx, s.featuredLimit)
}

// Browse searches titles and filters by category. An unknown category is ignored.
func (s *ProductService) Browse(ctx context.Context, query, category string) ([]models.Product, error) {
	if !models.IsCategory(category) {
		category = ""
	}
	return s.repo.Search(ctx, repositories.ProductFilter{
		Query:    strings.TrimSpace(query),
		Category: category,
		Limit:    s.browseLimit,
	})
}

// Get retrieves a single product by its ID.
func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Mine returns the user's own listings.
func (s *ProductService) Mine(ctx context.Context, userID string) ([]models.Product, error) {
	return s.repo.GetByOwner(ctx, userID)
}

// parse validates the form and returns the listing fields.
func (s *ProductService) parse(form ProductForm) (*models.Product, error) {
	form.Title = strings.TrimSpace(form.Title)
	form.Description = strings.TrimSpace(form.Description)
	form.Price = strings.TrimSpace(form.Price)
	form.ImageURL = strings.TrimSpace(form.ImageURL)
	if err := validateStruct(s.validate, form, productLabels); err != nil {
		return nil, err
	}
	price, err := strconv.ParseFloat(form.Price, 64)
	if err != nil || price < 0 {
		return nil, &ValidationError{Fields: map[string]string{"Price": "Price must be zero or more"}}
	}
	return &models.Product{
		Title:       form.Title,
		Description: form.Description,
		Price:       price,
		Category:    form.Category,
		ImageURL:    form.ImageURL,
	}, nil
}

// Create validates the form and lists a new product owned by ownerID.
func (s *ProductService) Create(ctx context.Context, ownerID string, form ProductForm) (*models.Product, error) {
	product, err := s.parse(form)
	if err != nil {
		return nil, err
	}
	product.UserID = ownerID
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	publish(ctx, s.events, EventProductCreated, map[string]interface{}{
		"product_id": product.ID,
		"user_id":    ownerID,
		"title":      product.Title,
		"price":      product.Price,
		"category":   product.Category,
	})
	return product, nil
}

// Update validates the form and rewrites the owner's listing.
func (s *ProductService) Update(ctx context.Context, ownerID, id string, form ProductForm) (*models.Product, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.UserID != ownerID {
		return nil, ErrNotOwner
	}
	product, err := s.parse(form)
	if err != nil {
		return nil, err
	}
	product.ID = existing.ID
	product.UserID = existing.UserID
	product.CreatedAt = existing.CreatedAt
	product.Profile = existing.Profile
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	publish(ctx, s.events, EventProductUpdated, map[string]interface{}{
		"product_id": product.ID,
		"user_id":    ownerID,
		"price":      product.Price,
	})
	return product, nil
}

// Delete removes the owner's listing.
func (s *ProductService) Delete(ctx context.Context, ownerID string, product *models.Product) error {
	if product.UserID != ownerID {
		return ErrNotOwner
	}
	if err := s.repo.Delete(ctx, product.ID); err != nil {
		return err
	}
	publish(ctx, s.events, EventProductDeleted, map[string]interface{}{
		"product_id": product.ID,
		"user_id":    ownerID,
	})
	return nil
}
