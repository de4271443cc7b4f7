package plan

import "time"

// Billing intervals supported by subscription plans.
const (
	IntervalMonthly = "monthly"
	IntervalYearly  = "yearly"
)

// Plan is a purchasable subscription tier.
type Plan struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Interval    string  `json:"interval"`
	// StripePriceID links the plan to a Stripe Price object. Hidden from
	// API consumers; checkout resolves it server-side.
	StripePriceID string    `json:"-"`
	Features      []string  `json:"features"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// # Field Identifiers

const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldPrice       = "price"
	FieldInterval    = "interval"
	FieldIsActive    = "isActive"
)
