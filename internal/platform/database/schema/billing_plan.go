package schema

// BillingPlanTable represents the 'billing.plan' table
type BillingPlanTable struct {
	Table         string
	ID            string
	Name          string
	Slug          string
	Description   string
	Price         string
	Interval      string
	StripePriceID string
	Features      string
	IsActive      string
	CreatedAt     string
	UpdatedAt     string
}

// BillingPlan is the schema definition for billing.plan
var BillingPlan = BillingPlanTable{
	Table:         "billing.plan",
	ID:            "id",
	Name:          "name",
	Slug:          "slug",
	Description:   "description",
	Price:         "price",
	Interval:      "billing_interval",
	StripePriceID: "stripe_price_id",
	Features:      "features",
	IsActive:      "is_active",
	CreatedAt:     "created_at",
	UpdatedAt:     "updated_at",
}

func (t BillingPlanTable) Columns() []string {
	return []string{
		t.ID, t.Name, t.Slug, t.Description, t.Price, t.Interval,
		t.StripePriceID, t.Features, t.IsActive, t.CreatedAt, t.UpdatedAt,
	}
}
