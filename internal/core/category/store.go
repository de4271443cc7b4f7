package category

import (
	"context"

	"github.com/clarifyx/clarifyx/pkg/query"
)

// Repository defines the data access contract for categories.
type Repository interface {
	// FindByID returns the category with the given ID.
	FindByID(context context.Context, id string) (*Category, error)

	// FindBySlug returns the category with the given slug.
	FindBySlug(context context.Context, slug string) (*Category, error)

	// List returns a filtered page of categories plus the matching total.
	List(context context.Context, q query.Query) ([]*Category, int, error)

	// ListActive returns every active category ordered by name. Used by
	// the public storefront where pagination is unnecessary.
	ListActive(context context.Context) ([]*Category, error)

	// Create persists a new category.
	Create(context context.Context, category *Category) error

	// Update persists changes to an existing category.
	Update(context context.Context, category *Category) error

	// Delete removes a category permanently.
	Delete(context context.Context, id string) error
}
