package schema

// BillingSubscriptionTable represents the 'billing.subscription' table
type BillingSubscriptionTable struct {
	Table                string
	ID                   string
	UserID               string
	PlanID               string
	StripeSubscriptionID string
	StripeCustomerID     string
	Status               string
	CurrentPeriodStart   string
	CurrentPeriodEnd     string
	CancelAtPeriodEnd    string
	CreatedAt            string
	UpdatedAt            string
}

// BillingSubscription is the schema definition for billing.subscription
var BillingSubscription = BillingSubscriptionTable{
	Table:                "billing.subscription",
	ID:                   "id",
	UserID:               "user_id",
	PlanID:               "plan_id",
	StripeSubscriptionID: "stripe_subscription_id",
	StripeCustomerID:     "stripe_customer_id",
	Status:               "status",
	CurrentPeriodStart:   "current_period_start",
	CurrentPeriodEnd:     "current_period_end",
	CancelAtPeriodEnd:    "cancel_at_period_end",
	CreatedAt:            "created_at",
	UpdatedAt:            "updated_at",
}

func (t BillingSubscriptionTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.PlanID, t.StripeSubscriptionID, t.StripeCustomerID,
		t.Status, t.CurrentPeriodStart, t.CurrentPeriodEnd, t.CancelAtPeriodEnd,
		t.CreatedAt, t.UpdatedAt,
	}
}
