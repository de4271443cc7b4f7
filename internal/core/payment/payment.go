package payment

import "time"

// Payment statuses. A payment is created pending and moves to completed
// or failed exactly once.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Payment is one buyer's purchase attempt for one asset.
type Payment struct {
	ID       string  `json:"id"`
	BuyerID  string  `json:"buyerId"`
	AssetID  string  `json:"assetId"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Status   string  `json:"status"`

	StripeSessionID       string `json:"-"`
	StripePaymentIntentID string `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// # Field Identifiers

const (
	FieldStatus  = "status"
	FieldAssetID = "assetId"
)
