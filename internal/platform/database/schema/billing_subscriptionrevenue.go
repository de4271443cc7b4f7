package schema

// BillingSubscriptionRevenueTable represents the 'billing.subscription_revenue' table.
//
// Subscription income is retained in full by the platform, so rows carry
// a single company amount.
type BillingSubscriptionRevenueTable struct {
	Table          string
	ID             string
	SubscriptionID string
	UserID         string
	PlanID         string
	Amount         string
	CompanyEarning string
	CreatedAt      string
}

// BillingSubscriptionRevenue is the schema definition for billing.subscription_revenue
var BillingSubscriptionRevenue = BillingSubscriptionRevenueTable{
	Table:          "billing.subscription_revenue",
	ID:             "id",
	SubscriptionID: "subscription_id",
	UserID:         "user_id",
	PlanID:         "plan_id",
	Amount:         "amount",
	CompanyEarning: "company_earning",
	CreatedAt:      "created_at",
}

func (t BillingSubscriptionRevenueTable) Columns() []string {
	return []string{
		t.ID, t.SubscriptionID, t.UserID, t.PlanID,
		t.Amount, t.CompanyEarning, t.CreatedAt,
	}
}
