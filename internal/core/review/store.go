package review

import (
	"context"

	"github.com/clarifyx/clarifyx/pkg/query"
)

// Repository persists reviews.
type Repository interface {
	// FindByID returns the review with the given ID.
	FindByID(context context.Context, id string) (*Review, error)

	// Exists reports whether the user already reviewed the asset.
	Exists(context context.Context, assetID, userID string) (bool, error)

	// List returns a filtered page of reviews plus the matching total.
	List(context context.Context, q query.Query) ([]*Review, int, error)

	// Create persists a new review.
	Create(context context.Context, review *Review) error

	// Update rewrites the rating and comment.
	Update(context context.Context, review *Review) error

	// SetReply stores the author's reply and stamps replied_at.
	SetReply(context context.Context, id, reply string) (*Review, error)

	// Delete removes a review.
	Delete(context context.Context, id string) error
}
