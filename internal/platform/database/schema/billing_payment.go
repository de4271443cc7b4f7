package schema

// BillingPaymentTable represents the 'billing.payment' table
type BillingPaymentTable struct {
	Table                 string
	ID                    string
	BuyerID               string
	AssetID               string
	Amount                string
	Currency              string
	Status                string
	StripeSessionID       string
	StripePaymentIntentID string
	CreatedAt             string
	UpdatedAt             string
}

// BillingPayment is the schema definition for billing.payment
var BillingPayment = BillingPaymentTable{
	Table:                 "billing.payment",
	ID:                    "id",
	BuyerID:               "buyer_id",
	AssetID:               "asset_id",
	Amount:                "amount",
	Currency:              "currency",
	Status:                "status",
	StripeSessionID:       "stripe_session_id",
	StripePaymentIntentID: "stripe_payment_intent_id",
	CreatedAt:             "created_at",
	UpdatedAt:             "updated_at",
}

func (t BillingPaymentTable) Columns() []string {
	return []string{
		t.ID, t.BuyerID, t.AssetID, t.Amount, t.Currency, t.Status,
		t.StripeSessionID, t.StripePaymentIntentID, t.CreatedAt, t.UpdatedAt,
	}
}
