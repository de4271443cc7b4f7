package subscription

import "time"

// Subscription statuses. Active subscriptions grant premium membership;
// canceled ones stay active until the paid period ends, expired ones
// grant nothing.
const (
	StatusActive   = "active"
	StatusCanceled = "canceled"
	StatusExpired  = "expired"
)

// Subscription is a user's membership on a plan, mirrored from the
// payment provider.
type Subscription struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	PlanID string `json:"planId"`
	// Provider identifiers are internal plumbing.
	StripeSubscriptionID string    `json:"-"`
	StripeCustomerID     string    `json:"-"`
	Status               string    `json:"status"`
	CurrentPeriodStart   time.Time `json:"currentPeriodStart"`
	CurrentPeriodEnd     time.Time `json:"currentPeriodEnd"`
	CancelAtPeriodEnd    bool      `json:"cancelAtPeriodEnd"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// IsActive reports whether the subscription currently grants premium
// membership. A canceled subscription keeps its benefits until the end
// of the paid period.
func (s *Subscription) IsActive(now time.Time) bool {
	switch s.Status {
	case StatusActive:
		return true
	case StatusCanceled:
		return now.Before(s.CurrentPeriodEnd)
	default:
		return false
	}
}

// API field names accepted by the list endpoint.
const (
	FieldStatus = "status"
	FieldUserID = "userId"
	FieldPlanID = "planId"
)
