package dashboard_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarifyx/clarifyx/internal/core/dashboard"
	"github.com/clarifyx/clarifyx/internal/core/earning"
)

// Wednesday. The week bucket runs Monday June 16 through this day.
var fixedNow = time.Date(2025, time.June, 18, 14, 30, 0, 0, time.UTC)

// # In-Memory Aggregations

// ledgerRow is one revenue record in either ledger.
type ledgerRow struct {
	paymentID string
	gross     float64
	author    float64
	company   float64
	createdAt time.Time
}

type saleRow struct {
	authorID    string
	completedAt time.Time
}

type fakeDashboardRepo struct {
	engagement map[string]*dashboard.Engagement
	sales      []saleRow
	legacy     []ledgerRow
	successor  []ledgerRow
	topAssets  map[string][]*dashboard.AssetPerformance
	users      *dashboard.UserCounts
}

func inWindow(at time.Time, window earning.DateRange) bool {
	if window.All {
		return true
	}
	return !at.Before(window.Start) && !at.After(window.End)
}

func (r *fakeDashboardRepo) EngagementTotals(_ context.Context, authorID string) (*dashboard.Engagement, error) {
	if totals, ok := r.engagement[authorID]; ok {
		copied := *totals
		return &copied, nil
	}
	return &dashboard.Engagement{}, nil
}

func (r *fakeDashboardRepo) CountSales(_ context.Context, authorID string, window earning.DateRange) (int64, error) {
	var count int64
	for _, sale := range r.sales {
		if (authorID == "" || sale.authorID == authorID) && inWindow(sale.completedAt, window) {
			count++
		}
	}
	return count, nil
}

// ReconcileRevenue mirrors the SQL reconciliation: the successor
// ledger counts in full, the legacy ledger contributes only rows
// without a successor counterpart.
func (r *fakeDashboardRepo) ReconcileRevenue(_ context.Context, window earning.DateRange) (*dashboard.RevenueTotals, error) {
	migrated := map[string]bool{}
	for _, row := range r.successor {
		migrated[row.paymentID] = true
	}

	totals := &dashboard.RevenueTotals{}
	add := func(row ledgerRow) {
		if inWindow(row.createdAt, window) {
			totals.Gross += row.gross
			totals.AuthorShare += row.author
			totals.CompanyShare += row.company
		}
	}
	for _, row := range r.successor {
		add(row)
	}
	for _, row := range r.legacy {
		if !migrated[row.paymentID] {
			add(row)
		}
	}
	return totals, nil
}

func (r *fakeDashboardRepo) TopAssets(_ context.Context, authorID string, limit int) ([]*dashboard.AssetPerformance, error) {
	ranked := r.topAssets[authorID]
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (r *fakeDashboardRepo) UserCounts(_ context.Context) (*dashboard.UserCounts, error) {
	copied := *r.users
	return &copied, nil
}

type fakeReporter struct {
	// author id -> period -> total
	authorEarnings map[string]map[string]float64
	subscriptions  map[string]float64
}

func (f *fakeReporter) AuthorEarnings(_ context.Context, authorID, period string) (*earning.PeriodSummary, error) {
	return &earning.PeriodSummary{Period: period, Total: f.authorEarnings[authorID][period]}, nil
}

func (f *fakeReporter) SubscriptionRevenueForPeriod(_ context.Context, period string) (*earning.PeriodSummary, error) {
	return &earning.PeriodSummary{Period: period, Total: f.subscriptions[period]}, nil
}

type fakeAssetCounter struct {
	counts map[string]int
}

func (f *fakeAssetCounter) CountByStatus(_ context.Context) (map[string]int, error) {
	return f.counts, nil
}

// # Fixture

// Four sales relative to fixedNow (Wed June 18, 2025):
//
//	pay-legacy-1  March 10     legacy ledger only, pre-migration
//	pay-legacy-2  June 17      legacy ledger only, pre-migration
//	pay-dual-1    June 18      written to both ledgers
//	pay-dual-2    June 16      written to both ledgers
func seededRepo() *fakeDashboardRepo {
	march10 := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	june16 := time.Date(2025, time.June, 16, 11, 0, 0, 0, time.UTC)
	june17 := time.Date(2025, time.June, 17, 16, 45, 0, 0, time.UTC)
	june18 := time.Date(2025, time.June, 18, 10, 0, 0, 0, time.UTC)

	dual1 := ledgerRow{paymentID: "pay-dual-1", gross: 200, author: 140, company: 60, createdAt: june18}
	dual2 := ledgerRow{paymentID: "pay-dual-2", gross: 80, author: 48, company: 32, createdAt: june16}

	return &fakeDashboardRepo{
		engagement: map[string]*dashboard.Engagement{
			"":            {Views: 5400, Downloads: 4, Likes: 120},
			"user-author": {Views: 1200, Downloads: 4, Likes: 37},
		},
		sales: []saleRow{
			{authorID: "user-author", completedAt: march10},
			{authorID: "user-author", completedAt: june16},
			{authorID: "user-author", completedAt: june17},
			{authorID: "user-author", completedAt: june18},
		},
		legacy: []ledgerRow{
			{paymentID: "pay-legacy-1", gross: 100, author: 70, company: 30, createdAt: march10},
			{paymentID: "pay-legacy-2", gross: 50, author: 30, company: 20, createdAt: june17},
			dual1,
			dual2,
		},
		successor: []ledgerRow{dual1, dual2},
		topAssets: map[string][]*dashboard.AssetPerformance{
			"": {
				{AssetID: "asset-1", Title: "Icon Pack", Slug: "icon-pack", Downloads: 3, Earnings: 218},
				{AssetID: "asset-2", Title: "UI Kit", Slug: "ui-kit", Downloads: 1, Earnings: 70},
			},
			"user-author": {
				{AssetID: "asset-1", Title: "Icon Pack", Slug: "icon-pack", Downloads: 3, Earnings: 218},
			},
		},
		users: &dashboard.UserCounts{Total: 250, Subscribers: 180, Authors: 40, Premium: 55},
	}
}

func newService(repo *fakeDashboardRepo, reporter *fakeReporter) *dashboard.Service {
	logger := slog.New(slog.DiscardHandler)
	counter := &fakeAssetCounter{counts: map[string]int{"approved": 30, "pending": 5, "rejected": 2}}
	return dashboard.NewService(repo, reporter, counter, nil, logger).
		WithClock(func() time.Time { return fixedNow })
}

/*
TestAdminDashboard_RevenueBaseline pins the two-ledger revenue
reconciliation against hand-computed totals.

The seeded ledgers hold two pre-migration sales recorded only in
billing.earning and two later sales recorded in both billing.earning
and billing.payment_revenue. A naive sum over both tables would report
a lifetime gross of 710 (430 across billing.earning plus 280 again
from billing.payment_revenue); the correct reconciled figure counts
each sale once:

	lifetime   gross 100+50+200+80 = 430   author 288   company 142
	thisYear   same four sales     = 430           288           142
	thisMonth  June 16,17,18       = 330           218           112
	thisWeek   Mon June 16 onward  = 330           218           112
	yesterday  June 17 only        =  50            30            20
	today      June 18 only        = 200           140            60
*/
func TestAdminDashboard_RevenueBaseline(t *testing.T) {
	reporter := &fakeReporter{
		authorEarnings: map[string]map[string]float64{},
		subscriptions: map[string]float64{
			earning.PeriodToday:    9.99,
			earning.PeriodThisWeek: 9.99,
			earning.PeriodLifetime: 29.97,
		},
	}
	service := newService(seededRepo(), reporter)

	board, err := service.AdminDashboard(context.Background())
	require.NoError(t, err)
	require.Len(t, board.Revenue, 6)

	expected := map[string]struct {
		sales   int64
		gross   float64
		author  float64
		company float64
	}{
		earning.PeriodToday:     {sales: 1, gross: 200, author: 140, company: 60},
		earning.PeriodYesterday: {sales: 1, gross: 50, author: 30, company: 20},
		earning.PeriodThisWeek:  {sales: 3, gross: 330, author: 218, company: 112},
		earning.PeriodThisMonth: {sales: 3, gross: 330, author: 218, company: 112},
		earning.PeriodThisYear:  {sales: 4, gross: 430, author: 288, company: 142},
		earning.PeriodLifetime:  {sales: 4, gross: 430, author: 288, company: 142},
	}

	for _, window := range board.Revenue {
		want, ok := expected[window.Period]
		require.True(t, ok, "unexpected period %q", window.Period)

		assert.Equal(t, want.sales, window.Sales, "%s sales", window.Period)
		assert.InDelta(t, want.gross, window.AssetRevenue.Gross, 1e-9, "%s gross", window.Period)
		assert.InDelta(t, want.author, window.AssetRevenue.AuthorShare, 1e-9, "%s author share", window.Period)
		assert.InDelta(t, want.company, window.AssetRevenue.CompanyShare, 1e-9, "%s company share", window.Period)

		subs := reporter.subscriptions[window.Period]
		assert.InDelta(t, subs, window.Subscriptions, 1e-9, "%s subscriptions", window.Period)
		assert.InDelta(t, want.company+subs, window.Total, 1e-9, "%s company total", window.Period)
	}
}

func TestAdminDashboard_CountsAndRanking(t *testing.T) {
	reporter := &fakeReporter{
		authorEarnings: map[string]map[string]float64{},
		subscriptions:  map[string]float64{},
	}
	service := newService(seededRepo(), reporter)

	board, err := service.AdminDashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, dashboard.UserCounts{Total: 250, Subscribers: 180, Authors: 40, Premium: 55}, board.Users)
	assert.Equal(t, map[string]int{"approved": 30, "pending": 5, "rejected": 2}, board.Assets)

	require.Len(t, board.TopAssets, 2)
	assert.Equal(t, "asset-1", board.TopAssets[0].AssetID)
	assert.Equal(t, int64(3), board.TopAssets[0].Downloads)
}

func TestAuthorDashboard(t *testing.T) {
	reporter := &fakeReporter{
		authorEarnings: map[string]map[string]float64{
			"user-author": {
				earning.PeriodToday:     140,
				earning.PeriodYesterday: 30,
				earning.PeriodThisWeek:  218,
				earning.PeriodThisMonth: 218,
				earning.PeriodThisYear:  288,
				earning.PeriodLifetime:  288,
			},
		},
		subscriptions: map[string]float64{},
	}
	service := newService(seededRepo(), reporter)

	board, err := service.AuthorDashboard(context.Background(), "user-author")
	require.NoError(t, err)

	assert.Equal(t, dashboard.Engagement{Views: 1200, Downloads: 4, Likes: 37}, board.Totals)
	assert.InDelta(t, 288, board.TotalEarnings, 1e-9)

	require.Len(t, board.Periods, 5)
	downloads := map[string]int64{}
	for _, window := range board.Periods {
		downloads[window.Period] = window.Downloads
		assert.Zero(t, window.Views, "%s views are not bucketed", window.Period)
		assert.InDelta(t, reporter.authorEarnings["user-author"][window.Period], window.Earnings, 1e-9)
	}
	assert.Equal(t, int64(1), downloads[earning.PeriodToday])
	assert.Equal(t, int64(1), downloads[earning.PeriodYesterday])
	assert.Equal(t, int64(3), downloads[earning.PeriodThisWeek])
	assert.Equal(t, int64(3), downloads[earning.PeriodThisMonth])
	assert.Equal(t, int64(4), downloads[earning.PeriodThisYear])

	require.Len(t, board.TopAssets, 1)
	assert.Equal(t, "asset-1", board.TopAssets[0].AssetID)
}

// An author with no assets and no sales still gets a complete payload.
func TestAuthorDashboard_EmptyAuthor(t *testing.T) {
	reporter := &fakeReporter{
		authorEarnings: map[string]map[string]float64{},
		subscriptions:  map[string]float64{},
	}
	service := newService(seededRepo(), reporter)

	board, err := service.AuthorDashboard(context.Background(), "user-newcomer")
	require.NoError(t, err)

	assert.Equal(t, dashboard.Engagement{}, board.Totals)
	assert.Zero(t, board.TotalEarnings)
	assert.Len(t, board.Periods, 5)
	assert.Empty(t, board.TopAssets)
}
