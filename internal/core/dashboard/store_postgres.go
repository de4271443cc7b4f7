// Copyright (c) 2026 ClarifyX. All rights reserved.

package dashboard

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clarifyx/clarifyx/internal/core/earning"
	"github.com/clarifyx/clarifyx/internal/platform/dberr"
)

// PostgresRepository implements [Repository] backed by PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a new [PostgresRepository].
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EngagementTotals sums views, downloads, and likes. An empty authorID
// aggregates platform-wide.
func (repository *PostgresRepository) EngagementTotals(context context.Context, authorID string) (*Engagement, error) {
	const query = `
		SELECT COALESCE(SUM(s.views), 0), COALESCE(SUM(s.downloads), 0), COALESCE(SUM(s.likes), 0)
		FROM market.asset_stats s
		JOIN market.asset a ON a.id = s.asset_id
		WHERE ($1 = '' OR a.author_id = $1::uuid)`

	totals := &Engagement{}
	err := repository.pool.QueryRow(context, query, authorID).
		Scan(&totals.Views, &totals.Downloads, &totals.Likes)
	if err != nil {
		return nil, dberr.Wrap(err, "sum_engagement_totals")
	}
	return totals, nil
}

// CountSales counts completed payments in the window.
func (repository *PostgresRepository) CountSales(context context.Context, authorID string, window earning.DateRange) (int64, error) {
	const query = `
		SELECT count(*)
		FROM billing.payment p
		JOIN market.asset a ON a.id = p.asset_id
		WHERE p.status = 'completed'
		  AND ($1 = '' OR a.author_id = $1::uuid)
		  AND ($2::boolean OR p.updated_at BETWEEN $3 AND $4)`

	var count int64
	err := repository.pool.QueryRow(context, query, authorID, window.All, window.Start, window.End).Scan(&count)
	if err != nil {
		return 0, dberr.Wrap(err, "count_sales")
	}
	return count, nil
}

/*
ReconcileRevenue sums asset-sale revenue across both revenue ledgers.

billing.payment_revenue is the successor ledger; billing.earning holds
the full history including rows that predate the successor. A row
present in both (every sale since the cutover is dual-written) must be
counted exactly once, so the legacy side contributes only rows without
a successor counterpart.
*/
func (repository *PostgresRepository) ReconcileRevenue(context context.Context, window earning.DateRange) (*RevenueTotals, error) {
	const query = `
		SELECT
			COALESCE(SUM(amount), 0),
			COALESCE(SUM(author_earning), 0),
			COALESCE(SUM(company_earning), 0)
		FROM (
			SELECT pr.amount, pr.author_earning, pr.company_earning, pr.created_at
			FROM billing.payment_revenue pr
			UNION ALL
			SELECT e.gross_amount, e.author_earning, e.company_earning, e.created_at
			FROM billing.earning e
			WHERE NOT EXISTS (
				SELECT 1 FROM billing.payment_revenue pr WHERE pr.payment_id = e.payment_id
			)
		) ledger
		WHERE ($1::boolean OR created_at BETWEEN $2 AND $3)`

	totals := &RevenueTotals{}
	err := repository.pool.QueryRow(context, query, window.All, window.Start, window.End).
		Scan(&totals.Gross, &totals.AuthorShare, &totals.CompanyShare)
	if err != nil {
		return nil, dberr.Wrap(err, "reconcile_revenue")
	}
	return totals, nil
}

// TopAssets ranks assets by download count with per-asset author
// earnings joined in. billing.earning carries every sale, so the
// per-asset earnings join reads it alone.
func (repository *PostgresRepository) TopAssets(context context.Context, authorID string, limit int) ([]*AssetPerformance, error) {
	const query = `
		SELECT a.id, a.title, a.slug,
		       COALESCE(s.downloads, 0),
		       COALESCE(earned.total, 0)
		FROM market.asset a
		LEFT JOIN market.asset_stats s ON s.asset_id = a.id
		LEFT JOIN (
			SELECT asset_id, SUM(author_earning) AS total
			FROM billing.earning
			GROUP BY asset_id
		) earned ON earned.asset_id = a.id
		WHERE a.status = 'approved'
		  AND ($1 = '' OR a.author_id = $1::uuid)
		ORDER BY COALESCE(s.downloads, 0) DESC, a.created_at DESC
		LIMIT $2`

	rows, err := repository.pool.Query(context, query, authorID, limit)
	if err != nil {
		return nil, dberr.Wrap(err, "rank_top_assets")
	}
	defer rows.Close()

	var ranked []*AssetPerformance
	for rows.Next() {
		entry := &AssetPerformance{}
		err := rows.Scan(&entry.AssetID, &entry.Title, &entry.Slug, &entry.Downloads, &entry.Earnings)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_top_asset")
		}
		ranked = append(ranked, entry)
	}

	return ranked, nil
}

// UserCounts tallies live accounts by role and membership.
func (repository *PostgresRepository) UserCounts(context context.Context) (*UserCounts, error) {
	const query = `
		SELECT
			count(*),
			count(*) FILTER (WHERE role = 'subscriber'),
			count(*) FILTER (WHERE role = 'author'),
			count(*) FILTER (WHERE is_premium)
		FROM users.account
		WHERE deleted_at IS NULL`

	counts := &UserCounts{}
	err := repository.pool.QueryRow(context, query).
		Scan(&counts.Total, &counts.Subscribers, &counts.Authors, &counts.Premium)
	if err != nil {
		return nil, dberr.Wrap(err, "count_users")
	}
	return counts, nil
}
