package asset

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clarifyx/clarifyx/internal/platform/apperr"
	"github.com/clarifyx/clarifyx/internal/platform/database/schema"
	"github.com/clarifyx/clarifyx/internal/platform/dberr"
	"github.com/clarifyx/clarifyx/pkg/query"
)

const assetColumns = `
	id, author_id, title, slug, description, asset_type, orientation, price,
	status, is_premium, is_ai_generated, category_ids, tags, compatible_tools,
	file_url, preview_url, file_size, file_format, width, height, duration,
	rejection_reason, created_at, updated_at`

// PostgresRepository implements the Repository interface using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL implementation of the Repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func scanAsset(row pgx.Row) (*Asset, error) {
	asset := &Asset{}
	err := row.Scan(
		&asset.ID,
		&asset.AuthorID,
		&asset.Title,
		&asset.Slug,
		&asset.Description,
		&asset.Type,
		&asset.Orientation,
		&asset.Price,
		&asset.Status,
		&asset.IsPremium,
		&asset.IsAIGenerated,
		&asset.CategoryIDs,
		&asset.Tags,
		&asset.CompatibleTools,
		&asset.FileURL,
		&asset.PreviewURL,
		&asset.FileSize,
		&asset.FileFormat,
		&asset.Width,
		&asset.Height,
		&asset.Duration,
		&asset.RejectionReason,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	)
	return asset, err
}

// scanTargets maps column names to scan destinations so projected list
// queries can select any subset of columns.
func scanTargets(asset *Asset) map[string]any {
	t := schema.MarketAsset
	return map[string]any{
		t.ID:              &asset.ID,
		t.AuthorID:        &asset.AuthorID,
		t.Title:           &asset.Title,
		t.Slug:            &asset.Slug,
		t.Description:     &asset.Description,
		t.Type:            &asset.Type,
		t.Orientation:     &asset.Orientation,
		t.Price:           &asset.Price,
		t.Status:          &asset.Status,
		t.IsPremium:       &asset.IsPremium,
		t.IsAIGenerated:   &asset.IsAIGenerated,
		t.CategoryIDs:     &asset.CategoryIDs,
		t.Tags:            &asset.Tags,
		t.CompatibleTools: &asset.CompatibleTools,
		t.FileURL:         &asset.FileURL,
		t.PreviewURL:      &asset.PreviewURL,
		t.FileSize:        &asset.FileSize,
		t.FileFormat:      &asset.FileFormat,
		t.Width:           &asset.Width,
		t.Height:          &asset.Height,
		t.Duration:        &asset.Duration,
		t.RejectionReason: &asset.RejectionReason,
		t.CreatedAt:       &asset.CreatedAt,
		t.UpdatedAt:       &asset.UpdatedAt,
	}
}

// FindByID returns the asset with the given ID.
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Asset, error) {
	const query = `SELECT ` + assetColumns + ` FROM market.asset WHERE id = $1`

	asset, err := scanAsset(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Asset")
		}
		return nil, dberr.Wrap(err, "find_asset_by_id")
	}
	return asset, nil
}

// FindBySlug returns the asset with the given slug.
func (repository *PostgresRepository) FindBySlug(context context.Context, slug string) (*Asset, error) {
	const query = `SELECT ` + assetColumns + ` FROM market.asset WHERE slug = $1`

	asset, err := scanAsset(repository.pool.QueryRow(context, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Asset")
		}
		return nil, dberr.Wrap(err, "find_asset_by_slug")
	}
	return asset, nil
}

/*
List returns a filtered page of assets plus the matching total.

Description: the asset table is aliased "a" and the stats table "s";
filter and sort whitelists carry those prefixes. Engagement counters
ride along via the join so popularity sorting needs no second query.
*/
func (repository *PostgresRepository) List(context context.Context, q query.Query) ([]*Asset, int, error) {
	where := q.WhereClause()

	var total int
	countQuery := `SELECT count(*) FROM market.asset a
		LEFT JOIN market.asset_stats s ON s.asset_id = a.id` + where
	if err := repository.pool.QueryRow(context, countQuery, q.Args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_assets")
	}

	columns := q.SelectColumns(schema.MarketAsset.Columns())
	selected := make([]string, len(columns))
	for i, column := range columns {
		selected[i] = "a." + column
	}

	listQuery := fmt.Sprintf(`SELECT %s,
			COALESCE(s.views, 0), COALESCE(s.downloads, 0), COALESCE(s.likes, 0)
		FROM market.asset a
		LEFT JOIN market.asset_stats s ON s.asset_id = a.id%s%s`,
		strings.Join(selected, ", "), where, q.TailClause())

	rows, err := repository.pool.Query(context, listQuery, q.Args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_assets")
	}
	defer rows.Close()

	var assets []*Asset
	for rows.Next() {
		asset := &Asset{Stats: &Stats{}}
		destinations := scanTargets(asset)

		targets := make([]any, 0, len(columns)+3)
		for _, column := range columns {
			targets = append(targets, destinations[column])
		}
		targets = append(targets, &asset.Stats.Views, &asset.Stats.Downloads, &asset.Stats.Likes)

		if err := rows.Scan(targets...); err != nil {
			return nil, 0, dberr.Wrap(err, "scan_asset")
		}
		asset.Stats.AssetID = asset.ID
		assets = append(assets, asset)
	}

	return assets, total, nil
}

// CountCategories reports how many of the given category IDs exist.
func (repository *PostgresRepository) CountCategories(context context.Context, categoryIDs []string) (int, error) {
	const query = `SELECT count(*) FROM market.category WHERE id = ANY($1)`

	var count int
	if err := repository.pool.QueryRow(context, query, categoryIDs).Scan(&count); err != nil {
		return 0, dberr.Wrap(err, "count_asset_categories")
	}
	return count, nil
}

// Create persists a new asset and its zeroed stats row in one transaction.
func (repository *PostgresRepository) Create(context context.Context, asset *Asset) error {
	const insertAsset = `
		INSERT INTO market.asset (
			id, author_id, title, slug, description, asset_type, orientation,
			price, status, is_premium, is_ai_generated, category_ids, tags,
			compatible_tools, file_url, preview_url, file_size, file_format,
			width, height, duration, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		          $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`
	const insertStats = `
		INSERT INTO market.asset_stats (asset_id, views, downloads, likes, liked_by, updated_at)
		VALUES ($1, 0, 0, 0, '{}', $2)`

	now := time.Now()
	asset.CreatedAt = now
	asset.UpdatedAt = now

	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_create_asset")
	}
	defer transaction.Rollback(context)

	_, err = transaction.Exec(context, insertAsset,
		asset.ID, asset.AuthorID, asset.Title, asset.Slug, asset.Description,
		asset.Type, asset.Orientation, asset.Price, asset.Status, asset.IsPremium,
		asset.IsAIGenerated, asset.CategoryIDs, asset.Tags, asset.CompatibleTools,
		asset.FileURL, asset.PreviewURL, asset.FileSize, asset.FileFormat,
		asset.Width, asset.Height, asset.Duration, asset.CreatedAt, asset.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "create_asset")
	}

	if _, err := transaction.Exec(context, insertStats, asset.ID, now); err != nil {
		return dberr.Wrap(err, "create_asset_stats")
	}

	if err := transaction.Commit(context); err != nil {
		return dberr.Wrap(err, "commit_create_asset")
	}
	return nil
}

// Update persists changes to an existing asset.
func (repository *PostgresRepository) Update(context context.Context, asset *Asset) error {
	const query = `
		UPDATE market.asset
		SET title = $2, slug = $3, description = $4, orientation = $5, price = $6,
		    is_premium = $7, category_ids = $8, tags = $9, compatible_tools = $10,
		    preview_url = $11, updated_at = $12
		WHERE id = $1`

	asset.UpdatedAt = time.Now()

	tag, err := repository.pool.Exec(context, query,
		asset.ID, asset.Title, asset.Slug, asset.Description, asset.Orientation,
		asset.Price, asset.IsPremium, asset.CategoryIDs, asset.Tags,
		asset.CompatibleTools, asset.PreviewURL, asset.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "update_asset")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Asset")
	}
	return nil
}

// UpdateStatus applies a review decision.
func (repository *PostgresRepository) UpdateStatus(context context.Context, id, status, rejectionReason string) error {
	const query = `
		UPDATE market.asset
		SET status = $2, rejection_reason = $3, updated_at = now()
		WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id, status, rejectionReason)
	if err != nil {
		return dberr.Wrap(err, "update_asset_status")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Asset")
	}
	return nil
}

// CountByStatus returns asset totals grouped by review status.
func (repository *PostgresRepository) CountByStatus(context context.Context) (map[string]int, error) {
	const query = `SELECT status, count(*) FROM market.asset GROUP BY status`

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "count_assets_by_status")
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, dberr.Wrap(err, "scan_asset_status_count")
		}
		counts[status] = count
	}
	return counts, nil
}

// # Stats Repository

// PostgresStatsRepository implements the StatsRepository interface.
//
// Every mutation is a single SQL statement so concurrent engagement
// requests serialize at the row level instead of racing on
// read-modify-write sequences in application code.
type PostgresStatsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository creates a new PostgreSQL StatsRepository.
func NewStatsRepository(pool *pgxpool.Pool) *PostgresStatsRepository {
	return &PostgresStatsRepository{pool: pool}
}

// Find returns the counters for one asset.
func (repository *PostgresStatsRepository) Find(context context.Context, assetID string) (*Stats, error) {
	const query = `
		SELECT asset_id, views, downloads, likes, updated_at
		FROM market.asset_stats WHERE asset_id = $1`

	stats := &Stats{}
	err := repository.pool.QueryRow(context, query, assetID).Scan(
		&stats.AssetID, &stats.Views, &stats.Downloads, &stats.Likes, &stats.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Asset")
		}
		return nil, dberr.Wrap(err, "find_asset_stats")
	}
	return stats, nil
}

// IncrementViews bumps the view counter by one.
func (repository *PostgresStatsRepository) IncrementViews(context context.Context, assetID string) error {
	const query = `
		UPDATE market.asset_stats
		SET views = views + 1, updated_at = now()
		WHERE asset_id = $1`

	tag, err := repository.pool.Exec(context, query, assetID)
	if err != nil {
		return dberr.Wrap(err, "increment_asset_views")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Asset")
	}
	return nil
}

// ToggleLike flips the user's membership in the liked set and adjusts
// the counter in the same statement. The RETURNING clause evaluates
// against the updated row, so it reports the resulting liked state.
func (repository *PostgresStatsRepository) ToggleLike(context context.Context, assetID, userID string) (bool, error) {
	const query = `
		UPDATE market.asset_stats
		SET liked_by = CASE WHEN $2 = ANY(liked_by)
		                    THEN array_remove(liked_by, $2)
		                    ELSE array_append(liked_by, $2) END,
		    likes = CASE WHEN $2 = ANY(liked_by) THEN likes - 1 ELSE likes + 1 END,
		    updated_at = now()
		WHERE asset_id = $1
		RETURNING $2 = ANY(liked_by)`

	var liked bool
	err := repository.pool.QueryRow(context, query, assetID, userID).Scan(&liked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, apperr.NotFound("Asset")
		}
		return false, dberr.Wrap(err, "toggle_asset_like")
	}
	return liked, nil
}

// RecordDownload bumps the counter and tracks the distinct downloader.
// The per-user row is inserted at most once; repeats only bump the
// aggregate.
func (repository *PostgresStatsRepository) RecordDownload(context context.Context, assetID, userID string) error {
	const bump = `
		UPDATE market.asset_stats
		SET downloads = downloads + 1, updated_at = now()
		WHERE asset_id = $1`
	const track = `
		INSERT INTO market.download (id, asset_id, user_id, downloaded_at)
		VALUES (gen_random_uuid(), $1, $2, now())
		ON CONFLICT (asset_id, user_id) DO NOTHING`

	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_record_download")
	}
	defer transaction.Rollback(context)

	tag, err := transaction.Exec(context, bump, assetID)
	if err != nil {
		return dberr.Wrap(err, "bump_asset_downloads")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Asset")
	}

	if _, err := transaction.Exec(context, track, assetID, userID); err != nil {
		return dberr.Wrap(err, "track_asset_download")
	}

	if err := transaction.Commit(context); err != nil {
		return dberr.Wrap(err, "commit_record_download")
	}
	return nil
}

// HasDownloaded reports whether the user ever downloaded the asset.
func (repository *PostgresStatsRepository) HasDownloaded(context context.Context, assetID, userID string) (bool, error) {
	const query = `SELECT EXISTS(
		SELECT 1 FROM market.download WHERE asset_id = $1 AND user_id = $2)`

	var downloaded bool
	if err := repository.pool.QueryRow(context, query, assetID, userID).Scan(&downloaded); err != nil {
		return false, dberr.Wrap(err, "check_asset_download")
	}
	return downloaded, nil
}
