package plan

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clarifyx/clarifyx/internal/platform/apperr"
	"github.com/clarifyx/clarifyx/internal/platform/dberr"
	"github.com/clarifyx/clarifyx/pkg/query"
)

const planColumns = `
	id, name, slug, description, price, billing_interval, stripe_price_id,
	features, is_active, created_at, updated_at`

// PostgresRepository implements the Repository interface using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL implementation of the Repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func scanPlan(row pgx.Row) (*Plan, error) {
	plan := &Plan{}
	err := row.Scan(
		&plan.ID,
		&plan.Name,
		&plan.Slug,
		&plan.Description,
		&plan.Price,
		&plan.Interval,
		&plan.StripePriceID,
		&plan.Features,
		&plan.IsActive,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	return plan, err
}

// FindByID returns the plan with the given ID.
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Plan, error) {
	const query = `SELECT ` + planColumns + ` FROM billing.plan WHERE id = $1`

	plan, err := scanPlan(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Plan")
		}
		return nil, dberr.Wrap(err, "find_plan_by_id")
	}
	return plan, nil
}

// FindBySlug returns the plan with the given slug.
func (repository *PostgresRepository) FindBySlug(context context.Context, slug string) (*Plan, error) {
	const query = `SELECT ` + planColumns + ` FROM billing.plan WHERE slug = $1`

	plan, err := scanPlan(repository.pool.QueryRow(context, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Plan")
		}
		return nil, dberr.Wrap(err, "find_plan_by_slug")
	}
	return plan, nil
}

// List returns a filtered page of plans plus the matching total.
func (repository *PostgresRepository) List(context context.Context, q query.Query) ([]*Plan, int, error) {
	where := q.WhereClause()

	var total int
	countQuery := `SELECT count(*) FROM billing.plan` + where
	if err := repository.pool.QueryRow(context, countQuery, q.Args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_plans")
	}

	listQuery := `SELECT ` + planColumns + ` FROM billing.plan` + where + q.TailClause()
	rows, err := repository.pool.Query(context, listQuery, q.Args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_plans")
	}
	defer rows.Close()

	var plans []*Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_plan")
		}
		plans = append(plans, plan)
	}

	return plans, total, nil
}

// ListActive returns every purchasable plan ordered by price.
func (repository *PostgresRepository) ListActive(context context.Context) ([]*Plan, error) {
	const query = `SELECT ` + planColumns + ` FROM billing.plan WHERE is_active = TRUE ORDER BY price ASC`

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "list_active_plans")
	}
	defer rows.Close()

	var plans []*Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_active_plan")
		}
		plans = append(plans, plan)
	}

	return plans, nil
}

// Create persists a new plan.
func (repository *PostgresRepository) Create(context context.Context, plan *Plan) error {
	const query = `
		INSERT INTO billing.plan (
			id, name, slug, description, price, billing_interval,
			stripe_price_id, features, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	now := time.Now()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		plan.ID, plan.Name, plan.Slug, plan.Description, plan.Price, plan.Interval,
		plan.StripePriceID, plan.Features, plan.IsActive, plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "create_plan")
	}
	return nil
}

// Update persists changes to an existing plan.
func (repository *PostgresRepository) Update(context context.Context, plan *Plan) error {
	const query = `
		UPDATE billing.plan
		SET name = $2, description = $3, price = $4, stripe_price_id = $5,
		    features = $6, is_active = $7, updated_at = $8
		WHERE id = $1`

	plan.UpdatedAt = time.Now()

	tag, err := repository.pool.Exec(context, query,
		plan.ID, plan.Name, plan.Description, plan.Price, plan.StripePriceID,
		plan.Features, plan.IsActive, plan.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "update_plan")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Plan")
	}
	return nil
}

// SetActive toggles whether the plan can be purchased.
func (repository *PostgresRepository) SetActive(context context.Context, id string, active bool) error {
	const query = `UPDATE billing.plan SET is_active = $2, updated_at = now() WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id, active)
	if err != nil {
		return dberr.Wrap(err, "set_plan_active")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Plan")
	}
	return nil
}
