/*
Package dashboard composes the author and admin analytics payloads.

Results fan out over the asset stats, the payment history, and both
revenue ledgers, so responses are cached in Redis for a few minutes
rather than recomputed per request.
*/
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clarifyx/clarifyx/internal/core/earning"
	"github.com/clarifyx/clarifyx/internal/platform/constants"
)

// topAssetLimit caps the asset performance ranking.
const topAssetLimit = 10

// bucketedPeriods are the windows reported alongside the lifetime
// totals.
var bucketedPeriods = []string{
	earning.PeriodToday,
	earning.PeriodYesterday,
	earning.PeriodThisWeek,
	earning.PeriodThisMonth,
	earning.PeriodThisYear,
}

// EarningsReporter exposes the ledger aggregations the dashboards
// reuse. Satisfied by the earning service.
type EarningsReporter interface {
	AuthorEarnings(context context.Context, authorID, period string) (*earning.PeriodSummary, error)
	SubscriptionRevenueForPeriod(context context.Context, period string) (*earning.PeriodSummary, error)
}

// AssetCounter reports catalogue composition. Satisfied by the asset
// service.
type AssetCounter interface {
	CountByStatus(context context.Context) (map[string]int, error)
}

// Service assembles dashboard payloads.
type Service struct {
	repository Repository
	earnings   EarningsReporter
	assets     AssetCounter
	// cache may be nil, which disables caching.
	cache  *redis.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a new dashboard [Service].
func NewService(
	repository Repository,
	earnings EarningsReporter,
	assets AssetCounter,
	cache *redis.Client,
	logger *slog.Logger,
) *Service {
	return &Service{
		repository: repository,
		earnings:   earnings,
		assets:     assets,
		cache:      cache,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the service clock for tests.
func (service *Service) WithClock(now func() time.Time) *Service {
	service.now = now
	return service
}

/*
AuthorDashboard assembles the analytics payload for one author.

Description: lifetime engagement comes straight from the per-asset
stats; bucketed downloads are derived from completed payment
timestamps. Bucketed views stay zero because no view event history is
retained.

Returns:
  - *AuthorDashboard: the payload
  - err: aggregation errors
*/
func (service *Service) AuthorDashboard(context context.Context, authorID string) (*AuthorDashboard, error) {
	cacheKey := constants.RedisPrefixDashboard + "author:" + authorID
	var cached AuthorDashboard
	if service.fromCache(context, cacheKey, &cached) {
		return &cached, nil
	}

	totals, err := service.repository.EngagementTotals(context, authorID)
	if err != nil {
		return nil, err
	}

	lifetime, err := service.earnings.AuthorEarnings(context, authorID, earning.PeriodLifetime)
	if err != nil {
		return nil, err
	}

	periods := make([]PeriodMetrics, 0, len(bucketedPeriods))
	for _, period := range bucketedPeriods {
		window, err := earning.ResolveDateRange(period, service.now())
		if err != nil {
			return nil, err
		}

		sales, err := service.repository.CountSales(context, authorID, window)
		if err != nil {
			return nil, err
		}
		earnings, err := service.earnings.AuthorEarnings(context, authorID, period)
		if err != nil {
			return nil, err
		}

		periods = append(periods, PeriodMetrics{
			Period:    period,
			Downloads: sales,
			Earnings:  earnings.Total,
		})
	}

	topAssets, err := service.repository.TopAssets(context, authorID, topAssetLimit)
	if err != nil {
		return nil, err
	}

	result := &AuthorDashboard{
		Totals:        *totals,
		TotalEarnings: lifetime.Total,
		Periods:       periods,
		TopAssets:     topAssets,
	}
	service.toCache(context, cacheKey, result)
	return result, nil
}

/*
AdminDashboard assembles the platform-wide analytics payload.

Description: asset-sale revenue reconciles both revenue ledgers. The
company total per window is the reconciled company share plus
subscription income.

Returns:
  - *AdminDashboard: the payload
  - err: aggregation errors
*/
func (service *Service) AdminDashboard(context context.Context) (*AdminDashboard, error) {
	cacheKey := constants.RedisPrefixDashboard + "admin"
	var cached AdminDashboard
	if service.fromCache(context, cacheKey, &cached) {
		return &cached, nil
	}

	users, err := service.repository.UserCounts(context)
	if err != nil {
		return nil, err
	}
	assetCounts, err := service.assets.CountByStatus(context)
	if err != nil {
		return nil, err
	}

	reportPeriods := append(append([]string{}, bucketedPeriods...), earning.PeriodLifetime)
	revenue := make([]RevenuePeriod, 0, len(reportPeriods))
	for _, period := range reportPeriods {
		window, err := earning.ResolveDateRange(period, service.now())
		if err != nil {
			return nil, err
		}

		sales, err := service.repository.CountSales(context, "", window)
		if err != nil {
			return nil, err
		}
		assetRevenue, err := service.repository.ReconcileRevenue(context, window)
		if err != nil {
			return nil, err
		}
		subscriptions, err := service.earnings.SubscriptionRevenueForPeriod(context, period)
		if err != nil {
			return nil, err
		}

		revenue = append(revenue, RevenuePeriod{
			Period:        period,
			Sales:         sales,
			AssetRevenue:  *assetRevenue,
			Subscriptions: subscriptions.Total,
			Total:         assetRevenue.CompanyShare + subscriptions.Total,
		})
	}

	topAssets, err := service.repository.TopAssets(context, "", topAssetLimit)
	if err != nil {
		return nil, err
	}

	result := &AdminDashboard{
		Users:     *users,
		Assets:    assetCounts,
		Revenue:   revenue,
		TopAssets: topAssets,
	}
	service.toCache(context, cacheKey, result)
	return result, nil
}

// fromCache loads a cached payload. Cache misses and errors both
// report false; errors are logged and never surface.
func (service *Service) fromCache(context context.Context, key string, target any) bool {
	if service.cache == nil {
		return false
	}

	raw, err := service.cache.Get(context, key).Result()
	if err != nil {
		if err != redis.Nil {
			service.logger.Warn("dashboard_cache_read_failed",
				slog.String("key", key), slog.String("error", err.Error()))
		}
		return false
	}

	if err := json.Unmarshal([]byte(raw), target); err != nil {
		service.logger.Warn("dashboard_cache_decode_failed",
			slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	return true
}

// toCache stores a payload. Best effort.
func (service *Service) toCache(context context.Context, key string, payload any) {
	if service.cache == nil {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		service.logger.Warn("dashboard_cache_encode_failed",
			slog.String("key", key), slog.String("error", err.Error()))
		return
	}

	if err := service.cache.Set(context, key, raw, constants.DashboardCacheTTL).Err(); err != nil {
		service.logger.Warn("dashboard_cache_write_failed",
			slog.String("key", key), slog.String("error", fmt.Sprintf("%v", err)))
	}
}
