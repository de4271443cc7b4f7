package dashboard

import (
	"context"

	"github.com/clarifyx/clarifyx/internal/core/earning"
)

// Repository runs the aggregation SQL behind the dashboards.
type Repository interface {
	// EngagementTotals sums views, downloads, and likes over the
	// author's assets, or platform-wide when authorID is empty.
	EngagementTotals(context context.Context, authorID string) (*Engagement, error)

	// CountSales counts completed payments in the window, scoped to the
	// author's assets or platform-wide when authorID is empty.
	CountSales(context context.Context, authorID string, window earning.DateRange) (int64, error)

	// ReconcileRevenue sums asset-sale revenue across both revenue
	// ledgers for the window. Rows present in both ledgers are counted
	// once, from the successor ledger.
	ReconcileRevenue(context context.Context, window earning.DateRange) (*RevenueTotals, error)

	// TopAssets ranks assets by download count, scoped to the author or
	// platform-wide when authorID is empty, with per-asset author
	// earnings joined in.
	TopAssets(context context.Context, authorID string, limit int) ([]*AssetPerformance, error)

	// UserCounts tallies live accounts by role and membership.
	UserCounts(context context.Context) (*UserCounts, error)
}
