package payment

import (
	"context"

	"github.com/clarifyx/clarifyx/pkg/query"
)

// Repository defines the data access contract for payments.
type Repository interface {
	// FindByID returns the payment with the given ID.
	FindByID(context context.Context, id string) (*Payment, error)

	// FindBySessionID returns the payment for a checkout session.
	FindBySessionID(context context.Context, sessionID string) (*Payment, error)

	// List returns a filtered page of payments plus the matching total.
	List(context context.Context, q query.Query) ([]*Payment, int, error)

	// Create persists a new pending payment.
	Create(context context.Context, payment *Payment) error

	// MarkCompleted transitions a payment to completed and records the
	// provider's payment intent. Completing an already-completed
	// payment is a no-op; the returned bool reports whether this call
	// performed the transition.
	MarkCompleted(context context.Context, id, paymentIntentID string) (bool, error)

	// MarkFailed transitions a payment to failed.
	MarkFailed(context context.Context, id string) error

	// HasPurchased reports whether the buyer holds a completed payment
	// for the asset. Also satisfies the catalogue's purchase check.
	HasPurchased(context context.Context, buyerID, assetID string) (bool, error)
}
