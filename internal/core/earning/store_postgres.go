package earning

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clarifyx/clarifyx/internal/platform/apperr"
	"github.com/clarifyx/clarifyx/internal/platform/dberr"
)

// PostgresLedgerRepository implements the LedgerRepository using pgx.
type PostgresLedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new PostgreSQL LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *PostgresLedgerRepository {
	return &PostgresLedgerRepository{pool: pool}
}

// FindByPaymentID returns the earning credited for a payment.
func (repository *PostgresLedgerRepository) FindByPaymentID(context context.Context, paymentID string) (*Earning, error) {
	const query = `
		SELECT id, payment_id, asset_id, author_id, buyer_id, gross_amount,
		       discounted_amount, author_earning, company_earning,
		       platform_fee_percent, created_at
		FROM billing.earning WHERE payment_id = $1`

	earning := &Earning{}
	err := repository.pool.QueryRow(context, query, paymentID).Scan(
		&earning.ID, &earning.PaymentID, &earning.AssetID, &earning.AuthorID,
		&earning.BuyerID, &earning.GrossAmount, &earning.DiscountedAmount,
		&earning.AuthorEarning, &earning.CompanyEarning, &earning.PlatformFeePct,
		&earning.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Earning")
		}
		return nil, dberr.Wrap(err, "find_earning_by_payment")
	}
	return earning, nil
}

/*
InsertSale persists one sale atomically.

Three writes share the transaction: the legacy earning row, the
successor payment-revenue row, and the author's running-total
increment. The increment is an in-database addition so concurrent
sales for the same author never lose updates.
*/
func (repository *PostgresLedgerRepository) InsertSale(context context.Context, earning *Earning, revenue *PaymentRevenue) error {
	const insertEarning = `
		INSERT INTO billing.earning (
			id, payment_id, asset_id, author_id, buyer_id, gross_amount,
			discounted_amount, author_earning, company_earning,
			platform_fee_percent, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	const insertRevenue = `
		INSERT INTO billing.payment_revenue (
			id, payment_id, asset_id, author_id, amount,
			author_earning, company_earning, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	const incrementTotal = `
		UPDATE users.account
		SET total_earnings = total_earnings + $2, updated_at = now()
		WHERE id = $1`

	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_insert_sale")
	}
	defer transaction.Rollback(context)

	_, err = transaction.Exec(context, insertEarning,
		earning.ID, earning.PaymentID, earning.AssetID, earning.AuthorID,
		earning.BuyerID, earning.GrossAmount, earning.DiscountedAmount,
		earning.AuthorEarning, earning.CompanyEarning, earning.PlatformFeePct,
		earning.CreatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "insert_earning")
	}

	_, err = transaction.Exec(context, insertRevenue,
		revenue.ID, revenue.PaymentID, revenue.AssetID, revenue.AuthorID,
		revenue.Amount, revenue.AuthorEarning, revenue.CompanyEarning,
		revenue.CreatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "insert_payment_revenue")
	}

	if _, err := transaction.Exec(context, incrementTotal, earning.AuthorID, earning.AuthorEarning); err != nil {
		return dberr.Wrap(err, "increment_author_total")
	}

	if err := transaction.Commit(context); err != nil {
		return dberr.Wrap(err, "commit_insert_sale")
	}
	return nil
}

// sumQuery builds a COALESCE(SUM(...), 0) query with an optional date
// window on created_at. Lifetime windows add no filter.
func sumQuery(column, table, baseWhere string, window DateRange, baseArgs ...any) (string, []any) {
	q := fmt.Sprintf(`SELECT COALESCE(SUM(%s), 0) FROM %s`, column, table)
	args := baseArgs

	clauses := ""
	if baseWhere != "" {
		clauses = baseWhere
	}
	if !window.All {
		if clauses != "" {
			clauses += " AND "
		}
		clauses += fmt.Sprintf("created_at BETWEEN $%d AND $%d", len(args)+1, len(args)+2)
		args = append(args, window.Start, window.End)
	}
	if clauses != "" {
		q += " WHERE " + clauses
	}
	return q, args
}

// SumAuthorEarnings totals author_earning for one author in a window.
func (repository *PostgresLedgerRepository) SumAuthorEarnings(context context.Context, authorID string, window DateRange) (float64, error) {
	query, args := sumQuery("author_earning", "billing.earning", "author_id = $1", window, authorID)

	var total float64
	if err := repository.pool.QueryRow(context, query, args...).Scan(&total); err != nil {
		return 0, dberr.Wrap(err, "sum_author_earnings")
	}
	return total, nil
}

// SumCompanyEarnings totals company_earning platform-wide in a window.
func (repository *PostgresLedgerRepository) SumCompanyEarnings(context context.Context, window DateRange) (float64, error) {
	query, args := sumQuery("company_earning", "billing.earning", "", window)

	var total float64
	if err := repository.pool.QueryRow(context, query, args...).Scan(&total); err != nil {
		return 0, dberr.Wrap(err, "sum_company_earnings")
	}
	return total, nil
}

// SumAllAuthorEarnings totals author_earning across every author.
func (repository *PostgresLedgerRepository) SumAllAuthorEarnings(context context.Context, window DateRange) (float64, error) {
	query, args := sumQuery("author_earning", "billing.earning", "", window)

	var total float64
	if err := repository.pool.QueryRow(context, query, args...).Scan(&total); err != nil {
		return 0, dberr.Wrap(err, "sum_all_author_earnings")
	}
	return total, nil
}

// SumPaymentRevenue totals the successor ledger in a window.
func (repository *PostgresLedgerRepository) SumPaymentRevenue(context context.Context, kind RevenueKind, window DateRange) (float64, error) {
	column := "amount"
	switch kind {
	case RevenueAuthor:
		column = "author_earning"
	case RevenueCompany:
		column = "company_earning"
	}

	query, args := sumQuery(column, "billing.payment_revenue", "", window)

	var total float64
	if err := repository.pool.QueryRow(context, query, args...).Scan(&total); err != nil {
		return 0, dberr.Wrap(err, "sum_payment_revenue")
	}
	return total, nil
}

// BackfillTotalEarnings overwrites every author's cached total with the
// ledger sum. One statement, so the reconciliation itself cannot race
// against a concurrent sale's increment.
func (repository *PostgresLedgerRepository) BackfillTotalEarnings(context context.Context) (int, error) {
	const query = `
		UPDATE users.account u
		SET total_earnings = COALESCE(ledger.total, 0), updated_at = now()
		FROM (
			SELECT author_id, SUM(author_earning) AS total
			FROM billing.earning
			GROUP BY author_id
		) ledger
		WHERE u.id = ledger.author_id
		  AND u.total_earnings IS DISTINCT FROM COALESCE(ledger.total, 0)`

	tag, err := repository.pool.Exec(context, query)
	if err != nil {
		return 0, dberr.Wrap(err, "backfill_author_totals")
	}
	return int(tag.RowsAffected()), nil
}

// # Subscription Revenue

// PostgresSubscriptionRevenueRepository implements SubscriptionRevenueRepository.
type PostgresSubscriptionRevenueRepository struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRevenueRepository creates the PostgreSQL implementation.
func NewSubscriptionRevenueRepository(pool *pgxpool.Pool) *PostgresSubscriptionRevenueRepository {
	return &PostgresSubscriptionRevenueRepository{pool: pool}
}

// Record persists a revenue row. The unique subscription constraint
// absorbs duplicate settlements.
func (repository *PostgresSubscriptionRevenueRepository) Record(context context.Context, revenue *SubscriptionRevenue) error {
	const query = `
		INSERT INTO billing.subscription_revenue (
			id, subscription_id, user_id, plan_id, amount, company_earning, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (subscription_id) DO NOTHING`

	_, err := repository.pool.Exec(context, query,
		revenue.ID, revenue.SubscriptionID, revenue.UserID, revenue.PlanID,
		revenue.Amount, revenue.CompanyEarning, revenue.CreatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "record_subscription_revenue")
	}
	return nil
}

// Sum totals company earnings from subscriptions in a window.
func (repository *PostgresSubscriptionRevenueRepository) Sum(context context.Context, window DateRange) (float64, error) {
	query, args := sumQuery("company_earning", "billing.subscription_revenue", "", window)

	var total float64
	if err := repository.pool.QueryRow(context, query, args...).Scan(&total); err != nil {
		return 0, dberr.Wrap(err, "sum_subscription_revenue")
	}
	return total, nil
}

// # Entity Checker

// PostgresEntityChecker verifies sale references against the primary
// database without importing the owning packages.
type PostgresEntityChecker struct {
	pool *pgxpool.Pool
}

// NewEntityChecker creates the PostgreSQL EntityChecker.
func NewEntityChecker(pool *pgxpool.Pool) *PostgresEntityChecker {
	return &PostgresEntityChecker{pool: pool}
}

func (checker *PostgresEntityChecker) exists(context context.Context, query, id string) (bool, error) {
	var found bool
	if err := checker.pool.QueryRow(context, query, id).Scan(&found); err != nil {
		return false, dberr.Wrap(err, "check_entity_exists")
	}
	return found, nil
}

// AuthorExists reports whether an active author account exists.
func (checker *PostgresEntityChecker) AuthorExists(context context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS(
		SELECT 1 FROM users.account WHERE id = $1 AND deleted_at IS NULL)`
	return checker.exists(context, query, id)
}

// AssetExists reports whether the asset exists.
func (checker *PostgresEntityChecker) AssetExists(context context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM market.asset WHERE id = $1)`
	return checker.exists(context, query, id)
}

// PaymentExists reports whether the payment exists.
func (checker *PostgresEntityChecker) PaymentExists(context context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM billing.payment WHERE id = $1)`
	return checker.exists(context, query, id)
}

// BuyerExists reports whether the buyer account exists.
func (checker *PostgresEntityChecker) BuyerExists(context context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS(
		SELECT 1 FROM users.account WHERE id = $1 AND deleted_at IS NULL)`
	return checker.exists(context, query, id)
}
