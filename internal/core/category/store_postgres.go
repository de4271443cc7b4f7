package category

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

const categoryColumns = `id, name, slug, description, icon_url, is_active, created_at, updated_at`

// PostgresRepository implements the Repository interface using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL implementation of the Repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func scanCategory(row pgx.Row) (*Category, error) {
	category := &Category{}
	err := row.Scan(
		&category.ID,
		&category.Name,
		&category.Slug,
		&category.Description,
		&category.IconURL,
		&category.IsActive,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	return category, err
}

// FindByID returns the category with the given ID.
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Category, error) {
	const query = `SELECT ` + categoryColumns + ` FROM market.category WHERE id = $1`

	category, err := scanCategory(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Category")
		}
		return nil, dberr.Wrap(err, "find_category_by_id")
	}
	return category, nil
}

// FindBySlug returns the category with the given slug.
func (repository *PostgresRepository) FindBySlug(context context.Context, slug string) (*Category, error) {
	const query = `SELECT ` + categoryColumns + ` FROM market.category WHERE slug = $1`

	category, err := scanCategory(repository.pool.QueryRow(context, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Category")
		}
		return nil, dberr.Wrap(err, "find_category_by_slug")
	}
	return category, nil
}

// List returns a filtered page of categories plus the matching total.
func (repository *PostgresRepository) List(context context.Context, q query.Query) ([]*Category, int, error) {
	where := q.WhereClause()

	var total int
	countQuery := `SELECT count(*) FROM market.category` + where
	if err := repository.pool.QueryRow(context, countQuery, q.Args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_categories")
	}

	listQuery := `SELECT ` + categoryColumns + ` FROM market.category` + where + q.TailClause()
	rows, err := repository.pool.Query(context, listQuery, q.Args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_categories")
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_category")
		}
		categories = append(categories, category)
	}

	return categories, total, nil
}

// ListActive returns every active category with its approved asset count.
func (repository *PostgresRepository) ListActive(context context.Context) ([]*Category, error) {
	const query = `
		SELECT c.id, c.name, c.slug, c.description, c.icon_url, c.is_active,
		       c.created_at, c.updated_at,
		       (SELECT count(*) FROM market.asset a
		        WHERE a.status = 'approved' AND a.category_ids @> ARRAY[c.id]) AS asset_count
		FROM market.category c
		WHERE c.is_active = TRUE
		ORDER BY c.name ASC`

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "list_active_categories")
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		category := &Category{}
		err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Slug,
			&category.Description,
			&category.IconURL,
			&category.IsActive,
			&category.CreatedAt,
			&category.UpdatedAt,
			&category.AssetCount,
		)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_active_category")
		}
		categories = append(categories, category)
	}

	return categories, nil
}

// Create persists a new category.
func (repository *PostgresRepository) Create(context context.Context, category *Category) error {
	const query = `
		INSERT INTO market.category (id, name, slug, description, icon_url, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	now := time.Now()
	category.CreatedAt = now
	category.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		category.ID, category.Name, category.Slug, category.Description,
		category.IconURL, category.IsActive, category.CreatedAt, category.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "create_category")
	}
	return nil
}

// Update persists changes to an existing category.
func (repository *PostgresRepository) Update(context context.Context, category *Category) error {
	const query = `
		UPDATE market.category
		SET name = $2, slug = $3, description = $4, icon_url = $5, is_active = $6, updated_at = $7
		WHERE id = $1`

	category.UpdatedAt = time.Now()

	tag, err := repository.pool.Exec(context, query,
		category.ID, category.Name, category.Slug, category.Description,
		category.IconURL, category.IsActive, category.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "update_category")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Category")
	}
	return nil
}

// Delete removes a category permanently.
func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	const query = `DELETE FROM market.category WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_category")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Category")
	}
	return nil
}
