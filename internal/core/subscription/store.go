package subscription

import (
	"context"

	"github.com/clarifyx/clarifyx/pkg/query"
)

// Repository persists subscriptions.
type Repository interface {
	// FindByID returns the subscription with the given ID.
	FindByID(context context.Context, id string) (*Subscription, error)

	// FindByUserID returns the user's most recent subscription.
	FindByUserID(context context.Context, userID string) (*Subscription, error)

	// FindByProviderID returns the subscription mirrored from the given
	// provider subscription. Provider webhooks key on this.
	FindByProviderID(context context.Context, providerSubscriptionID string) (*Subscription, error)

	// HasActive reports whether the user holds a subscription that
	// currently grants membership.
	HasActive(context context.Context, userID string) (bool, error)

	// List returns a filtered page of subscriptions plus the matching total.
	List(context context.Context, q query.Query) ([]*Subscription, int, error)

	// Create persists a new subscription.
	Create(context context.Context, subscription *Subscription) error

	// Update rewrites the provider-owned fields: status, period bounds,
	// and the cancellation flag.
	Update(context context.Context, subscription *Subscription) error

	// Delete removes a subscription record.
	Delete(context context.Context, id string) error
}
