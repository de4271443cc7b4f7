package schema

// BillingEarningTable represents the 'billing.earning' table.
//
// One row per completed asset payment; PaymentID carries a unique
// constraint so a payment can never be credited twice.
type BillingEarningTable struct {
	Table            string
	ID               string
	PaymentID        string
	AssetID          string
	AuthorID         string
	BuyerID          string
	GrossAmount      string
	DiscountedAmount string
	AuthorEarning    string
	CompanyEarning   string
	PlatformFeePct   string
	CreatedAt        string
}

// BillingEarning is the schema definition for billing.earning
var BillingEarning = BillingEarningTable{
	Table:            "billing.earning",
	ID:               "id",
	PaymentID:        "payment_id",
	AssetID:          "asset_id",
	AuthorID:         "author_id",
	BuyerID:          "buyer_id",
	GrossAmount:      "gross_amount",
	DiscountedAmount: "discounted_amount",
	AuthorEarning:    "author_earning",
	CompanyEarning:   "company_earning",
	PlatformFeePct:   "platform_fee_percent",
	CreatedAt:        "created_at",
}

func (t BillingEarningTable) Columns() []string {
	return []string{
		t.ID, t.PaymentID, t.AssetID, t.AuthorID, t.BuyerID,
		t.GrossAmount, t.DiscountedAmount, t.AuthorEarning,
		t.CompanyEarning, t.PlatformFeePct, t.CreatedAt,
	}
}
