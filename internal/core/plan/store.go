package plan

import (
	"context"

	"github.com/clarifyx/clarifyx/pkg/query"
)

// Repository defines the data access contract for subscription plans.
type Repository interface {
	// FindByID returns the plan with the given ID.
	FindByID(context context.Context, id string) (*Plan, error)

	// FindBySlug returns the plan with the given slug.
	FindBySlug(context context.Context, slug string) (*Plan, error)

	// List returns a filtered page of plans plus the matching total.
	List(context context.Context, q query.Query) ([]*Plan, int, error)

	// ListActive returns every purchasable plan ordered by price.
	ListActive(context context.Context) ([]*Plan, error)

	// Create persists a new plan.
	Create(context context.Context, plan *Plan) error

	// Update persists changes to an existing plan.
	Update(context context.Context, plan *Plan) error

	// SetActive toggles whether the plan can be purchased. Plans are
	// never hard-deleted so historic subscriptions keep a valid reference.
	SetActive(context context.Context, id string, active bool) error
}
