package category

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/clarifyx/clarifyx/internal/platform/apperr"
	"github.com/clarifyx/clarifyx/internal/platform/validate"
	"github.com/clarifyx/clarifyx/pkg/query"
	"github.com/clarifyx/clarifyx/pkg/slug"
	"github.com/clarifyx/clarifyx/pkg/uuidv7"
)

// Service implements category management use cases.
type Service struct {
	repository Repository
	logger     *slog.Logger
}

// NewService constructs a new category [Service].
func NewService(repository Repository, logger *slog.Logger) *Service {
	return &Service{repository: repository, logger: logger}
}

// CreateInput holds the data required to create a category.
type CreateInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IconURL     string `json:"iconUrl"`
}

// UpdateInput holds the mutable category fields. Nil fields are untouched.
type UpdateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IconURL     *string `json:"iconUrl"`
	IsActive    *bool   `json:"isActive"`
}

// Create validates and persists a new active category with a generated slug.
func (service *Service) Create(context context.Context, input CreateInput) (*Category, error) {
	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).
		MinLen(FieldName, input.Name, 2).
		MaxLen(FieldName, input.Name, 100).
		MaxLen(FieldDescription, input.Description, 500)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	categorySlug := slug.From(input.Name)
	if _, err := service.repository.FindBySlug(context, categorySlug); err == nil {
		return nil, apperr.Conflict("A category with this name already exists")
	}

	category := &Category{
		ID:          uuidv7.New(),
		Name:        input.Name,
		Slug:        categorySlug,
		Description: input.Description,
		IconURL:     input.IconURL,
		IsActive:    true,
	}

	if err := service.repository.Create(context, category); err != nil {
		return nil, fmt.Errorf("category_service_create_failed: %w", err)
	}

	service.logger.Info("category_created",
		slog.String("category_id", category.ID),
		slog.String("slug", category.Slug),
	)
	return category, nil
}

// Get returns a category by ID or slug. UUIDs are looked up by primary
// key first; anything else is treated as a slug.
func (service *Service) Get(context context.Context, idOrSlug string) (*Category, error) {
	if validate.IsUUID(idOrSlug) {
		return service.repository.FindByID(context, idOrSlug)
	}
	return service.repository.FindBySlug(context, idOrSlug)
}

// List returns a filtered page of categories for the admin console.
func (service *Service) List(context context.Context, q query.Query) ([]*Category, int, error) {
	return service.repository.List(context, q)
}

// ListActive returns the public storefront category listing.
func (service *Service) ListActive(context context.Context) ([]*Category, error) {
	return service.repository.ListActive(context)
}

// Update applies a partial update. Renaming regenerates the slug.
func (service *Service) Update(context context.Context, id string, input UpdateInput) (*Category, error) {
	category, err := service.repository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil && *input.Name != category.Name {
		newSlug := slug.From(*input.Name)
		if existing, err := service.repository.FindBySlug(context, newSlug); err == nil && existing.ID != category.ID {
			return nil, apperr.Conflict("A category with this name already exists")
		}
		category.Name = *input.Name
		category.Slug = newSlug
	}
	if input.Description != nil {
		category.Description = *input.Description
	}
	if input.IconURL != nil {
		category.IconURL = *input.IconURL
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, category.Name).
		MinLen(FieldName, category.Name, 2).
		MaxLen(FieldName, category.Name, 100).
		MaxLen(FieldDescription, category.Description, 500)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if err := service.repository.Update(context, category); err != nil {
		return nil, fmt.Errorf("category_service_update_failed: %w", err)
	}
	return category, nil
}

// Delete removes a category permanently. Assets keep their remaining
// category references; the dangling ID is simply ignored by listings.
func (service *Service) Delete(context context.Context, id string) error {
	if _, err := service.repository.FindByID(context, id); err != nil {
		return err
	}

	if err := service.repository.Delete(context, id); err != nil {
		return fmt.Errorf("category_service_delete_failed: %w", err)
	}

	service.logger.Warn("category_deleted", slog.String("category_id", id))
	return nil
}
