package plan

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/clarifyx/clarifyx/internal/platform/apperr"
	"github.com/clarifyx/clarifyx/internal/platform/validate"
	"github.com/clarifyx/clarifyx/pkg/query"
	"github.com/clarifyx/clarifyx/pkg/slug"
	"github.com/clarifyx/clarifyx/pkg/uuidv7"
)

// Service implements subscription plan management use cases.
type Service struct {
	repository Repository
	logger     *slog.Logger
}

// NewService constructs a new plan [Service].
func NewService(repository Repository, logger *slog.Logger) *Service {
	return &Service{repository: repository, logger: logger}
}

// CreateInput holds the data required to create a plan.
type CreateInput struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	Interval      string   `json:"interval"`
	StripePriceID string   `json:"stripePriceId"`
	Features      []string `json:"features"`
}

// UpdateInput holds the mutable plan fields. Nil fields are untouched.
type UpdateInput struct {
	Name          *string   `json:"name"`
	Description   *string   `json:"description"`
	Price         *float64  `json:"price"`
	StripePriceID *string   `json:"stripePriceId"`
	Features      *[]string `json:"features"`
	IsActive      *bool     `json:"isActive"`
}

// Create validates and persists a new purchasable plan.
func (service *Service) Create(context context.Context, input CreateInput) (*Plan, error) {
	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).
		MinLen(FieldName, input.Name, 2).
		MaxLen(FieldName, input.Name, 100).
		MaxLen(FieldDescription, input.Description, 500).
		OneOf(FieldInterval, input.Interval, IntervalMonthly, IntervalYearly).
		Custom(FieldPrice, input.Price <= 0, "Must be greater than zero")
	if err := validator.Err(); err != nil {
		return nil, err
	}

	planSlug := slug.From(input.Name + "-" + input.Interval)
	if _, err := service.repository.FindBySlug(context, planSlug); err == nil {
		return nil, apperr.Conflict("A plan with this name and interval already exists")
	}

	plan := &Plan{
		ID:            uuidv7.New(),
		Name:          input.Name,
		Slug:          planSlug,
		Description:   input.Description,
		Price:         input.Price,
		Interval:      input.Interval,
		StripePriceID: input.StripePriceID,
		Features:      input.Features,
		IsActive:      true,
	}
	if plan.Features == nil {
		plan.Features = []string{}
	}

	if err := service.repository.Create(context, plan); err != nil {
		return nil, fmt.Errorf("plan_service_create_failed: %w", err)
	}

	service.logger.Info("plan_created",
		slog.String("plan_id", plan.ID),
		slog.String("price", strconv.FormatFloat(plan.Price, 'f', 2, 64)),
	)
	return plan, nil
}

// Get returns a plan by ID or slug.
func (service *Service) Get(context context.Context, idOrSlug string) (*Plan, error) {
	if validate.IsUUID(idOrSlug) {
		return service.repository.FindByID(context, idOrSlug)
	}
	return service.repository.FindBySlug(context, idOrSlug)
}

// List returns a filtered page of plans for the admin console.
func (service *Service) List(context context.Context, q query.Query) ([]*Plan, int, error) {
	return service.repository.List(context, q)
}

// ListActive returns the public pricing page listing.
func (service *Service) ListActive(context context.Context) ([]*Plan, error) {
	return service.repository.ListActive(context)
}

// Update applies a partial update to a plan. The slug never changes once
// created so existing checkout links stay valid.
func (service *Service) Update(context context.Context, id string, input UpdateInput) (*Plan, error) {
	plan, err := service.repository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		plan.Name = *input.Name
	}
	if input.Description != nil {
		plan.Description = *input.Description
	}
	if input.Price != nil {
		plan.Price = *input.Price
	}
	if input.StripePriceID != nil {
		plan.StripePriceID = *input.StripePriceID
	}
	if input.Features != nil {
		plan.Features = *input.Features
	}
	if input.IsActive != nil {
		plan.IsActive = *input.IsActive
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, plan.Name).
		MinLen(FieldName, plan.Name, 2).
		MaxLen(FieldName, plan.Name, 100).
		MaxLen(FieldDescription, plan.Description, 500).
		Custom(FieldPrice, plan.Price <= 0, "Must be greater than zero")
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if err := service.repository.Update(context, plan); err != nil {
		return nil, fmt.Errorf("plan_service_update_failed: %w", err)
	}
	return plan, nil
}

// Retire disables purchasing without touching historic subscriptions.
func (service *Service) Retire(context context.Context, id string) error {
	if _, err := service.repository.FindByID(context, id); err != nil {
		return err
	}

	if err := service.repository.SetActive(context, id, false); err != nil {
		return fmt.Errorf("plan_service_retire_failed: %w", err)
	}

	service.logger.Warn("plan_retired", slog.String("plan_id", id))
	return nil
}
