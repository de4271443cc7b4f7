package earning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/clarifyx/clarifyx/internal/platform/apperr"
	"github.com/clarifyx/clarifyx/pkg/uuidv7"
)

// Service implements the earnings ledger use cases.
type Service struct {
	ledger              LedgerRepository
	subscriptionRevenue SubscriptionRevenueRepository
	entities            EntityChecker
	logger              *slog.Logger

	// now is swappable for deterministic period tests.
	now func() time.Time
}

// NewService constructs a new earnings [Service].
func NewService(
	ledger LedgerRepository,
	subscriptionRevenue SubscriptionRevenueRepository,
	entities EntityChecker,
	logger *slog.Logger,
) *Service {
	return &Service{
		ledger:              ledger,
		subscriptionRevenue: subscriptionRevenue,
		entities:            entities,
		logger:              logger,
		now:                 time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (service *Service) WithClock(now func() time.Time) *Service {
	service.now = now
	return service
}

// SaleInput identifies one completed payment to credit.
type SaleInput struct {
	AuthorID       string
	AssetID        string
	PaymentID      string
	BuyerID        string
	AssetPrice     float64
	IsPremiumBuyer bool
}

/*
RecordSale credits a completed payment to the ledgers exactly once.

Description: both payment-confirmation paths (webhook and client
verification) call this with the same payment id; the first call wins
and every later call is a successful no-op. Entity validation happens
before any write, so a failed lookup leaves no partial ledger entry.

Returns:
  - *Earning: the (new or pre-existing) ledger row
  - err: NotFound naming the missing entity, or storage errors
*/
func (service *Service) RecordSale(context context.Context, input SaleInput) (*Earning, error) {
	// Idempotency: a payment is credited at most once.
	if existing, err := service.ledger.FindByPaymentID(context, input.PaymentID); err == nil {
		return existing, nil
	}

	if err := service.checkEntities(context, input); err != nil {
		return nil, err
	}

	breakdown := Calculate(input.AssetPrice, input.IsPremiumBuyer)
	discounted := input.AssetPrice - breakdown.PlatformFee
	now := service.now()

	earning := &Earning{
		ID:               uuidv7.New(),
		PaymentID:        input.PaymentID,
		AssetID:          input.AssetID,
		AuthorID:         input.AuthorID,
		BuyerID:          input.BuyerID,
		GrossAmount:      input.AssetPrice,
		DiscountedAmount: discounted,
		AuthorEarning:    breakdown.AuthorEarning,
		CompanyEarning:   breakdown.CompanyEarning,
		PlatformFeePct:   breakdown.PlatformFeePercentage,
		CreatedAt:        now,
	}
	revenue := &PaymentRevenue{
		ID:             uuidv7.New(),
		PaymentID:      input.PaymentID,
		AssetID:        input.AssetID,
		AuthorID:       input.AuthorID,
		Amount:         input.AssetPrice,
		AuthorEarning:  breakdown.AuthorEarning,
		CompanyEarning: breakdown.CompanyEarning,
		CreatedAt:      now,
	}

	if err := service.ledger.InsertSale(context, earning, revenue); err != nil {
		// A concurrent confirmation may have won the insert race; the
		// unique payment constraint surfaces as Conflict. Treat it as
		// the idempotent no-op it is.
		if appError := apperr.As(err); appError != nil && appError.Code == "CONFLICT" {
			return service.ledger.FindByPaymentID(context, input.PaymentID)
		}
		return nil, fmt.Errorf("earning_service_record_sale_failed: %w", err)
	}

	service.logger.Info("earning_recorded",
		slog.String("payment_id", input.PaymentID),
		slog.String("author_id", input.AuthorID),
		slog.Float64("author_earning", breakdown.AuthorEarning),
		slog.Int("fee_percent", breakdown.PlatformFeePercentage),
	)
	return earning, nil
}

// checkEntities validates every referenced entity before any write.
// The first missing entity aborts with a NotFound naming it.
func (service *Service) checkEntities(ctx context.Context, input SaleInput) error {
	checks := []struct {
		name  string
		check func(ctx context.Context, id string) (bool, error)
		id    string
	}{
		{"Author", service.entities.AuthorExists, input.AuthorID},
		{"Asset", service.entities.AssetExists, input.AssetID},
		{"Payment", service.entities.PaymentExists, input.PaymentID},
		{"Buyer", service.entities.BuyerExists, input.BuyerID},
	}

	for _, c := range checks {
		exists, err := c.check(ctx, c.id)
		if err != nil {
			return fmt.Errorf("earning_service_entity_check_failed: %w", err)
		}
		if !exists {
			return apperr.NotFound(c.name)
		}
	}
	return nil
}

// RecordSubscriptionRevenue persists subscription income. Duplicate
// settlements for the same subscription are silently ignored.
func (service *Service) RecordSubscriptionRevenue(context context.Context, subscriptionID, userID, planID string, amount float64) error {
	revenue := &SubscriptionRevenue{
		ID:             uuidv7.New(),
		SubscriptionID: subscriptionID,
		UserID:         userID,
		PlanID:         planID,
		Amount:         amount,
		CompanyEarning: amount,
		CreatedAt:      service.now(),
	}

	if err := service.subscriptionRevenue.Record(context, revenue); err != nil {
		return fmt.Errorf("earning_service_subscription_revenue_failed: %w", err)
	}

	service.logger.Info("subscription_revenue_recorded",
		slog.String("subscription_id", subscriptionID),
		slog.Float64("amount", amount),
	)
	return nil
}

// # Period Aggregation

// AuthorEarnings totals one author's earnings for a period.
func (service *Service) AuthorEarnings(context context.Context, authorID, period string) (*PeriodSummary, error) {
	window, err := ResolveDateRange(period, service.now())
	if err != nil {
		return nil, err
	}

	total, err := service.ledger.SumAuthorEarnings(context, authorID, window)
	if err != nil {
		return nil, err
	}
	return &PeriodSummary{Period: period, Total: total}, nil
}

// CompanyEarnings totals the platform's cut of asset sales for a period.
func (service *Service) CompanyEarnings(context context.Context, period string) (*PeriodSummary, error) {
	window, err := ResolveDateRange(period, service.now())
	if err != nil {
		return nil, err
	}

	total, err := service.ledger.SumCompanyEarnings(context, window)
	if err != nil {
		return nil, err
	}
	return &PeriodSummary{Period: period, Total: total}, nil
}

// TotalAuthorEarnings totals every author's earnings for a period.
func (service *Service) TotalAuthorEarnings(context context.Context, period string) (*PeriodSummary, error) {
	window, err := ResolveDateRange(period, service.now())
	if err != nil {
		return nil, err
	}

	total, err := service.ledger.SumAllAuthorEarnings(context, window)
	if err != nil {
		return nil, err
	}
	return &PeriodSummary{Period: period, Total: total}, nil
}

// PaymentRevenueForPeriod totals the successor ledger for a period.
func (service *Service) PaymentRevenueForPeriod(context context.Context, kind RevenueKind, period string) (*PeriodSummary, error) {
	window, err := ResolveDateRange(period, service.now())
	if err != nil {
		return nil, err
	}

	total, err := service.ledger.SumPaymentRevenue(context, kind, window)
	if err != nil {
		return nil, err
	}
	return &PeriodSummary{Period: period, Total: total}, nil
}

// SubscriptionRevenueForPeriod totals subscription income for a period.
func (service *Service) SubscriptionRevenueForPeriod(context context.Context, period string) (*PeriodSummary, error) {
	window, err := ResolveDateRange(period, service.now())
	if err != nil {
		return nil, err
	}

	total, err := service.subscriptionRevenue.Sum(context, window)
	if err != nil {
		return nil, err
	}
	return &PeriodSummary{Period: period, Total: total}, nil
}

// BackfillTotalEarnings reconciles every author's cached running total
// against the ledger. Recovery mechanism for the crash window between
// historical non-transactional ledger writes.
func (service *Service) BackfillTotalEarnings(context context.Context) (int, error) {
	updated, err := service.ledger.BackfillTotalEarnings(context)
	if err != nil {
		return 0, fmt.Errorf("earning_service_backfill_failed: %w", err)
	}

	service.logger.Info("author_totals_backfilled", slog.Int("authors_updated", updated))
	return updated, nil
}
