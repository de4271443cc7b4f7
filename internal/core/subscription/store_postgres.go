// Copyright (c) 2026 ClarifyX. All rights reserved.

package subscription

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clarifyx/clarifyx/internal/platform/apperr"
	"github.com/clarifyx/clarifyx/internal/platform/dberr"
	"github.com/clarifyx/clarifyx/pkg/query"
)

// Provider ids are NULL on manually created rows; COALESCE keeps the
// scan targets plain strings.
const subscriptionColumns = `id, user_id, plan_id, COALESCE(stripe_subscription_id, ''), COALESCE(stripe_customer_id, ''),
	status, current_period_start, current_period_end, cancel_at_period_end, created_at, updated_at`

// PostgresRepository implements [Repository] backed by PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a new [PostgresRepository].
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func scanSubscription(row pgx.Row) (*Subscription, error) {
	subscription := &Subscription{}
	err := row.Scan(
		&subscription.ID,
		&subscription.UserID,
		&subscription.PlanID,
		&subscription.StripeSubscriptionID,
		&subscription.StripeCustomerID,
		&subscription.Status,
		&subscription.CurrentPeriodStart,
		&subscription.CurrentPeriodEnd,
		&subscription.CancelAtPeriodEnd,
		&subscription.CreatedAt,
		&subscription.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return subscription, nil
}

// FindByID returns the subscription with the given ID.
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Subscription, error) {
	const query = `SELECT ` + subscriptionColumns + ` FROM billing.subscription WHERE id = $1`

	subscription, err := scanSubscription(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Subscription")
		}
		return nil, dberr.Wrap(err, "find_subscription_by_id")
	}
	return subscription, nil
}

// FindByUserID returns the user's most recent subscription.
func (repository *PostgresRepository) FindByUserID(context context.Context, userID string) (*Subscription, error) {
	const query = `SELECT ` + subscriptionColumns + `
		FROM billing.subscription
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	subscription, err := scanSubscription(repository.pool.QueryRow(context, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Subscription")
		}
		return nil, dberr.Wrap(err, "find_subscription_by_user")
	}
	return subscription, nil
}

// FindByProviderID returns the subscription mirrored from a provider
// subscription.
func (repository *PostgresRepository) FindByProviderID(context context.Context, providerSubscriptionID string) (*Subscription, error) {
	const query = `SELECT ` + subscriptionColumns + ` FROM billing.subscription WHERE stripe_subscription_id = $1`

	subscription, err := scanSubscription(repository.pool.QueryRow(context, query, providerSubscriptionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Subscription")
		}
		return nil, dberr.Wrap(err, "find_subscription_by_provider_id")
	}
	return subscription, nil
}

// HasActive reports whether the user holds a subscription that
// currently grants membership. Canceled subscriptions count until the
// paid period runs out.
func (repository *PostgresRepository) HasActive(context context.Context, userID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM billing.subscription
			WHERE user_id = $1
			  AND (status = $2 OR (status = $3 AND current_period_end > now()))
		)`

	var exists bool
	if err := repository.pool.QueryRow(context, query, userID, StatusActive, StatusCanceled).Scan(&exists); err != nil {
		return false, dberr.Wrap(err, "check_active_subscription")
	}
	return exists, nil
}

// List returns a filtered page of subscriptions plus the matching total.
func (repository *PostgresRepository) List(context context.Context, q query.Query) ([]*Subscription, int, error) {
	where := q.WhereClause()

	var total int
	countQuery := `SELECT count(*) FROM billing.subscription` + where
	if err := repository.pool.QueryRow(context, countQuery, q.Args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_subscriptions")
	}

	listQuery := `SELECT ` + subscriptionColumns + ` FROM billing.subscription` + where + q.TailClause()
	rows, err := repository.pool.Query(context, listQuery, q.Args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_subscriptions")
	}
	defer rows.Close()

	var subscriptions []*Subscription
	for rows.Next() {
		subscription, err := scanSubscription(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_subscription")
		}
		subscriptions = append(subscriptions, subscription)
	}

	return subscriptions, total, nil
}

// Create persists a new subscription.
func (repository *PostgresRepository) Create(context context.Context, subscription *Subscription) error {
	const query = `
		INSERT INTO billing.subscription
			(id, user_id, plan_id, stripe_subscription_id, stripe_customer_id,
			 status, current_period_start, current_period_end, cancel_at_period_end)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := repository.pool.QueryRow(context, query,
		subscription.ID,
		subscription.UserID,
		subscription.PlanID,
		subscription.StripeSubscriptionID,
		subscription.StripeCustomerID,
		subscription.Status,
		subscription.CurrentPeriodStart,
		subscription.CurrentPeriodEnd,
		subscription.CancelAtPeriodEnd,
	).Scan(&subscription.CreatedAt, &subscription.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "create_subscription")
	}
	return nil
}

// Update rewrites the provider-owned fields.
func (repository *PostgresRepository) Update(context context.Context, subscription *Subscription) error {
	const query = `
		UPDATE billing.subscription
		SET status = $2,
		    current_period_start = $3,
		    current_period_end = $4,
		    cancel_at_period_end = $5,
		    updated_at = now()
		WHERE id = $1`

	tag, err := repository.pool.Exec(context, query,
		subscription.ID,
		subscription.Status,
		subscription.CurrentPeriodStart,
		subscription.CurrentPeriodEnd,
		subscription.CancelAtPeriodEnd,
	)
	if err != nil {
		return dberr.Wrap(err, "update_subscription")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Subscription")
	}
	return nil
}

// Delete removes a subscription record.
func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	const query = `DELETE FROM billing.subscription WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_subscription")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Subscription")
	}
	return nil
}
