// Copyright (c) 2026 ClarifyX. All rights reserved.

package payment

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clarifyx/clarifyx/internal/platform/apperr"
	"github.com/clarifyx/clarifyx/internal/platform/dberr"
	"github.com/clarifyx/clarifyx/pkg/query"
)

const paymentColumns = `id, buyer_id, asset_id, amount, currency, status,
	stripe_session_id, stripe_payment_intent_id, created_at, updated_at`

// PostgresRepository implements [Repository] backed by PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a new [PostgresRepository].
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func scanPayment(row pgx.Row) (*Payment, error) {
	payment := &Payment{}
	err := row.Scan(
		&payment.ID,
		&payment.BuyerID,
		&payment.AssetID,
		&payment.Amount,
		&payment.Currency,
		&payment.Status,
		&payment.StripeSessionID,
		&payment.StripePaymentIntentID,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// FindByID returns the payment with the given ID.
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Payment, error) {
	const query = `SELECT ` + paymentColumns + ` FROM billing.payment WHERE id = $1`

	payment, err := scanPayment(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Payment")
		}
		return nil, dberr.Wrap(err, "find_payment_by_id")
	}
	return payment, nil
}

// FindBySessionID returns the payment created for a checkout session.
func (repository *PostgresRepository) FindBySessionID(context context.Context, sessionID string) (*Payment, error) {
	const query = `SELECT ` + paymentColumns + ` FROM billing.payment WHERE stripe_session_id = $1`

	payment, err := scanPayment(repository.pool.QueryRow(context, query, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Payment")
		}
		return nil, dberr.Wrap(err, "find_payment_by_session")
	}
	return payment, nil
}

// List returns a filtered page of payments plus the matching total.
func (repository *PostgresRepository) List(context context.Context, q query.Query) ([]*Payment, int, error) {
	where := q.WhereClause()

	var total int
	countQuery := `SELECT count(*) FROM billing.payment` + where
	if err := repository.pool.QueryRow(context, countQuery, q.Args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_payments")
	}

	listQuery := `SELECT ` + paymentColumns + ` FROM billing.payment` + where + q.TailClause()
	rows, err := repository.pool.Query(context, listQuery, q.Args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_payments")
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_payment")
		}
		payments = append(payments, payment)
	}

	return payments, total, nil
}

// Create persists a new pending payment.
func (repository *PostgresRepository) Create(context context.Context, payment *Payment) error {
	const query = `
		INSERT INTO billing.payment (id, buyer_id, asset_id, amount, currency, status, stripe_session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := repository.pool.QueryRow(context, query,
		payment.ID,
		payment.BuyerID,
		payment.AssetID,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.StripeSessionID,
	).Scan(&payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "create_payment")
	}
	return nil
}

// MarkCompleted performs the pending-to-completed transition. The
// status guard in the WHERE clause makes a replay report false instead
// of rewriting the row.
func (repository *PostgresRepository) MarkCompleted(context context.Context, id, paymentIntentID string) (bool, error) {
	const query = `
		UPDATE billing.payment
		SET status = $2, stripe_payment_intent_id = $3, updated_at = now()
		WHERE id = $1 AND status <> $2`

	tag, err := repository.pool.Exec(context, query, id, StatusCompleted, paymentIntentID)
	if err != nil {
		return false, dberr.Wrap(err, "complete_payment")
	}
	return tag.RowsAffected() > 0, nil
}

// MarkFailed abandons a payment that is still pending. Completed
// payments are never failed retroactively.
func (repository *PostgresRepository) MarkFailed(context context.Context, id string) error {
	const query = `
		UPDATE billing.payment
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3`

	if _, err := repository.pool.Exec(context, query, id, StatusFailed, StatusPending); err != nil {
		return dberr.Wrap(err, "fail_payment")
	}
	return nil
}

// HasPurchased reports whether the buyer has a completed payment for
// the asset.
func (repository *PostgresRepository) HasPurchased(context context.Context, buyerID, assetID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM billing.payment
			WHERE buyer_id = $1 AND asset_id = $2 AND status = $3
		)`

	var exists bool
	if err := repository.pool.QueryRow(context, query, buyerID, assetID, StatusCompleted).Scan(&exists); err != nil {
		return false, dberr.Wrap(err, "check_purchase")
	}
	return exists, nil
}
