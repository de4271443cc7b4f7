package schema

// BillingPaymentRevenueTable represents the 'billing.payment_revenue' table.
//
// This is the successor ledger for one-time asset sales. Historical rows
// still live in billing.earning, so platform-wide revenue reports must
// sum both tables.
type BillingPaymentRevenueTable struct {
	Table          string
	ID             string
	PaymentID      string
	AssetID        string
	AuthorID       string
	Amount         string
	AuthorEarning  string
	CompanyEarning string
	CreatedAt      string
}

// BillingPaymentRevenue is the schema definition for billing.payment_revenue
var BillingPaymentRevenue = BillingPaymentRevenueTable{
	Table:          "billing.payment_revenue",
	ID:             "id",
	PaymentID:      "payment_id",
	AssetID:        "asset_id",
	AuthorID:       "author_id",
	Amount:         "amount",
	AuthorEarning:  "author_earning",
	CompanyEarning: "company_earning",
	CreatedAt:      "created_at",
}

func (t BillingPaymentRevenueTable) Columns() []string {
	return []string{
		t.ID, t.PaymentID, t.AssetID, t.AuthorID,
		t.Amount, t.AuthorEarning, t.CompanyEarning, t.CreatedAt,
	}
}
