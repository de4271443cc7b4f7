package earning

import "time"

// Earning is one immutable ledger row credited for a completed asset
// payment. At most one row exists per payment.
type Earning struct {
	ID               string    `json:"id"`
	PaymentID        string    `json:"paymentId"`
	AssetID          string    `json:"assetId"`
	AuthorID         string    `json:"authorId"`
	BuyerID          string    `json:"buyerId"`
	GrossAmount      float64   `json:"grossAmount"`
	DiscountedAmount float64   `json:"discountedAmount"`
	AuthorEarning    float64   `json:"authorEarning"`
	CompanyEarning   float64   `json:"companyEarning"`
	PlatformFeePct   int       `json:"platformFeePercent"`
	CreatedAt        time.Time `json:"createdAt"`
}

// PaymentRevenue is the successor ledger row for one-time sales.
// Written alongside Earning for every new sale; platform-wide reports
// sum both tables because historical rows were never migrated.
type PaymentRevenue struct {
	ID             string    `json:"id"`
	PaymentID      string    `json:"paymentId"`
	AssetID        string    `json:"assetId"`
	AuthorID       string    `json:"authorId"`
	Amount         float64   `json:"amount"`
	AuthorEarning  float64   `json:"authorEarning"`
	CompanyEarning float64   `json:"companyEarning"`
	CreatedAt      time.Time `json:"createdAt"`
}

// SubscriptionRevenue records subscription income, retained in full by
// the platform. One row per provider invoice settlement.
type SubscriptionRevenue struct {
	ID             string    `json:"id"`
	SubscriptionID string    `json:"subscriptionId"`
	UserID         string    `json:"userId"`
	PlanID         string    `json:"planId"`
	Amount         float64   `json:"amount"`
	CompanyEarning float64   `json:"companyEarning"`
	CreatedAt      time.Time `json:"createdAt"`
}

// PeriodSummary is the aggregation result for one reporting window.
type PeriodSummary struct {
	Period string  `json:"period"`
	Total  float64 `json:"total"`
}
