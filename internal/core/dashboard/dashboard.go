package dashboard

// Engagement is the lifetime view/download/like tally.
type Engagement struct {
	Views     int64 `json:"views"`
	Downloads int64 `json:"downloads"`
	Likes     int64 `json:"likes"`
}

// PeriodMetrics is one reporting window of an author dashboard.
//
// Downloads are derived from completed payment timestamps. Views are
// always zero in bucketed form: no view event history is retained, so
// only the lifetime total in [Engagement] is available.
type PeriodMetrics struct {
	Period    string  `json:"period"`
	Downloads int64   `json:"downloads"`
	Views     int64   `json:"views"`
	Earnings  float64 `json:"earnings"`
}

// AssetPerformance is one row of the top-assets ranking.
type AssetPerformance struct {
	AssetID   string  `json:"assetId"`
	Title     string  `json:"title"`
	Slug      string  `json:"slug"`
	Downloads int64   `json:"downloads"`
	Earnings  float64 `json:"earnings"`
}

// AuthorDashboard is the analytics payload for one author.
type AuthorDashboard struct {
	Totals        Engagement          `json:"totals"`
	TotalEarnings float64             `json:"totalEarnings"`
	Periods       []PeriodMetrics     `json:"periods"`
	TopAssets     []*AssetPerformance `json:"topAssets"`
}

// UserCounts tallies accounts by role and membership. Soft-deleted
// accounts are excluded throughout.
type UserCounts struct {
	Total       int64 `json:"total"`
	Subscribers int64 `json:"subscribers"`
	Authors     int64 `json:"authors"`
	Premium     int64 `json:"premium"`
}

// RevenueTotals is the reconciled asset-sale revenue for one window,
// summed across both revenue ledgers.
type RevenueTotals struct {
	Gross        float64 `json:"gross"`
	AuthorShare  float64 `json:"authorShare"`
	CompanyShare float64 `json:"companyShare"`
}

// RevenuePeriod is one reporting window of the admin dashboard.
type RevenuePeriod struct {
	Period        string        `json:"period"`
	Sales         int64         `json:"sales"`
	AssetRevenue  RevenueTotals `json:"assetRevenue"`
	Subscriptions float64       `json:"subscriptions"`
	// Total is the company's take: asset company share plus
	// subscription income.
	Total float64 `json:"total"`
}

// AdminDashboard is the platform-wide analytics payload.
type AdminDashboard struct {
	Users     UserCounts          `json:"users"`
	Assets    map[string]int      `json:"assets"`
	Revenue   []RevenuePeriod     `json:"revenue"`
	TopAssets []*AssetPerformance `json:"topAssets"`
}
