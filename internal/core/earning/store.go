package earning

import "context"

// RevenueKind selects which column a payment-revenue sum aggregates.
type RevenueKind string

const (
	RevenueTotal   RevenueKind = "total"
	RevenueAuthor  RevenueKind = "author"
	RevenueCompany RevenueKind = "company"
)

// LedgerRepository is the data access contract for the sale ledgers.
type LedgerRepository interface {
	// FindByPaymentID returns the earning credited for a payment, or a
	// NotFound error when the payment has not been credited yet.
	FindByPaymentID(context context.Context, paymentID string) (*Earning, error)

	// InsertSale persists the earning row, the parallel payment-revenue
	// row, and the author's running-total increment atomically. The
	// increment must be issued as an in-database addition, never a
	// read-then-write-back.
	InsertSale(context context.Context, earning *Earning, revenue *PaymentRevenue) error

	// SumAuthorEarnings totals author_earning for one author in a window.
	SumAuthorEarnings(context context.Context, authorID string, window DateRange) (float64, error)

	// SumCompanyEarnings totals company_earning platform-wide in a window.
	SumCompanyEarnings(context context.Context, window DateRange) (float64, error)

	// SumAllAuthorEarnings totals author_earning across every author.
	SumAllAuthorEarnings(context context.Context, window DateRange) (float64, error)

	// SumPaymentRevenue totals the successor ledger in a window.
	SumPaymentRevenue(context context.Context, kind RevenueKind, window DateRange) (float64, error)

	// BackfillTotalEarnings recomputes every author's cached running
	// total from the ledger and overwrites the stored scalar. Returns
	// the number of author rows updated.
	BackfillTotalEarnings(context context.Context) (int, error)
}

// SubscriptionRevenueRepository is the data access contract for
// subscription income records.
type SubscriptionRevenueRepository interface {
	// Record persists a revenue row. Duplicate subscription settlements
	// are silently ignored.
	Record(context context.Context, revenue *SubscriptionRevenue) error

	// Sum totals company earnings from subscriptions in a window.
	Sum(context context.Context, window DateRange) (float64, error)
}

// EntityChecker verifies that the entities referenced by a sale exist.
// Implemented against the primary database; declared here so the
// ledger never imports the user or catalogue packages.
type EntityChecker interface {
	AuthorExists(context context.Context, id string) (bool, error)
	AssetExists(context context.Context, id string) (bool, error)
	PaymentExists(context context.Context, id string) (bool, error)
	BuyerExists(context context.Context, id string) (bool, error)
}
