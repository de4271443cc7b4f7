// Copyright (c) 2026 ClarifyX. All rights reserved.

package review

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clarifyx/clarifyx/internal/platform/apperr"
	"github.com/clarifyx/clarifyx/internal/platform/dberr"
	"github.com/clarifyx/clarifyx/pkg/query"
)

const reviewColumns = `id, asset_id, user_id, rating, COALESCE(comment, ''), COALESCE(reply, ''),
	replied_at, created_at, updated_at`

// PostgresRepository implements [Repository] backed by PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a new [PostgresRepository].
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func scanReview(row pgx.Row) (*Review, error) {
	review := &Review{}
	err := row.Scan(
		&review.ID,
		&review.AssetID,
		&review.UserID,
		&review.Rating,
		&review.Comment,
		&review.Reply,
		&review.RepliedAt,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return review, nil
}

// FindByID returns the review with the given ID.
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Review, error) {
	const query = `SELECT ` + reviewColumns + ` FROM market.review WHERE id = $1`

	review, err := scanReview(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Review")
		}
		return nil, dberr.Wrap(err, "find_review_by_id")
	}
	return review, nil
}

// Exists reports whether the user already reviewed the asset.
func (repository *PostgresRepository) Exists(context context.Context, assetID, userID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM market.review WHERE asset_id = $1 AND user_id = $2)`

	var exists bool
	if err := repository.pool.QueryRow(context, query, assetID, userID).Scan(&exists); err != nil {
		return false, dberr.Wrap(err, "check_review_exists")
	}
	return exists, nil
}

// List returns a filtered page of reviews plus the matching total.
func (repository *PostgresRepository) List(context context.Context, q query.Query) ([]*Review, int, error) {
	where := q.WhereClause()

	var total int
	countQuery := `SELECT count(*) FROM market.review` + where
	if err := repository.pool.QueryRow(context, countQuery, q.Args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_reviews")
	}

	listQuery := `SELECT ` + reviewColumns + ` FROM market.review` + where + q.TailClause()
	rows, err := repository.pool.Query(context, listQuery, q.Args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_reviews")
	}
	defer rows.Close()

	var reviews []*Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_review")
		}
		reviews = append(reviews, review)
	}

	return reviews, total, nil
}

// Create persists a new review.
func (repository *PostgresRepository) Create(context context.Context, review *Review) error {
	const query = `
		INSERT INTO market.review (id, asset_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING created_at, updated_at`

	err := repository.pool.QueryRow(context, query,
		review.ID,
		review.AssetID,
		review.UserID,
		review.Rating,
		review.Comment,
	).Scan(&review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "create_review")
	}
	return nil
}

// Update rewrites the rating and comment.
func (repository *PostgresRepository) Update(context context.Context, review *Review) error {
	const query = `
		UPDATE market.review
		SET rating = $2, comment = NULLIF($3, ''), updated_at = now()
		WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, review.ID, review.Rating, review.Comment)
	if err != nil {
		return dberr.Wrap(err, "update_review")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Review")
	}
	return nil
}

// SetReply stores the author's reply and stamps replied_at.
func (repository *PostgresRepository) SetReply(context context.Context, id, reply string) (*Review, error) {
	const query = `
		UPDATE market.review
		SET reply = $2, replied_at = now(), updated_at = now()
		WHERE id = $1
		RETURNING ` + reviewColumns

	review, err := scanReview(repository.pool.QueryRow(context, query, id, reply))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Review")
		}
		return nil, dberr.Wrap(err, "reply_to_review")
	}
	return review, nil
}

// Delete removes a review.
func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	const query = `DELETE FROM market.review WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_review")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Review")
	}
	return nil
}
