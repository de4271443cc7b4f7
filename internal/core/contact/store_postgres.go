// Copyright (c) 2026 ClarifyX. All rights reserved.

package contact

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clarifyx/clarifyx/internal/platform/apperr"
	"github.com/clarifyx/clarifyx/internal/platform/dberr"
	"github.com/clarifyx/clarifyx/pkg/query"
)

const ticketColumns = `id, COALESCE(user_id::text, ''), name, email, subject, message,
	category, status, priority, COALESCE(admin_reply, ''), replied_at, created_at, updated_at`

// PostgresRepository implements [Repository] backed by PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a new [PostgresRepository].
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func scanTicket(row pgx.Row) (*Ticket, error) {
	ticket := &Ticket{}
	err := row.Scan(
		&ticket.ID,
		&ticket.UserID,
		&ticket.Name,
		&ticket.Email,
		&ticket.Subject,
		&ticket.Message,
		&ticket.Category,
		&ticket.Status,
		&ticket.Priority,
		&ticket.AdminReply,
		&ticket.RepliedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// FindByID returns the ticket with the given ID.
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM support.ticket WHERE id = $1`

	ticket, err := scanTicket(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Ticket")
		}
		return nil, dberr.Wrap(err, "find_ticket_by_id")
	}
	return ticket, nil
}

// List returns a filtered page of tickets plus the matching total.
func (repository *PostgresRepository) List(context context.Context, q query.Query) ([]*Ticket, int, error) {
	where := q.WhereClause()

	var total int
	countQuery := `SELECT count(*) FROM support.ticket` + where
	if err := repository.pool.QueryRow(context, countQuery, q.Args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_tickets")
	}

	listQuery := `SELECT ` + ticketColumns + ` FROM support.ticket` + where + q.TailClause()
	rows, err := repository.pool.Query(context, listQuery, q.Args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_tickets")
	}
	defer rows.Close()

	var tickets []*Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_ticket")
		}
		tickets = append(tickets, ticket)
	}

	return tickets, total, nil
}

// Create persists a new ticket.
func (repository *PostgresRepository) Create(context context.Context, ticket *Ticket) error {
	const query = `
		INSERT INTO support.ticket
			(id, user_id, name, email, subject, message, category, status, priority)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := repository.pool.QueryRow(context, query,
		ticket.ID,
		ticket.UserID,
		ticket.Name,
		ticket.Email,
		ticket.Subject,
		ticket.Message,
		ticket.Category,
		ticket.Status,
		ticket.Priority,
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "create_ticket")
	}
	return nil
}

// SetReply stores the support answer. An open ticket moves to
// in_progress; later workflow states keep their status.
func (repository *PostgresRepository) SetReply(context context.Context, id, reply string) (*Ticket, error) {
	const query = `
		UPDATE support.ticket
		SET admin_reply = $2,
		    replied_at = now(),
		    status = CASE WHEN status = 'open' THEN 'in_progress' ELSE status END,
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + ticketColumns

	ticket, err := scanTicket(repository.pool.QueryRow(context, query, id, reply))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Ticket")
		}
		return nil, dberr.Wrap(err, "reply_to_ticket")
	}
	return ticket, nil
}

// SetStatus updates the ticket status.
func (repository *PostgresRepository) SetStatus(context context.Context, id, status string) (*Ticket, error) {
	const query = `
		UPDATE support.ticket
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + ticketColumns

	ticket, err := scanTicket(repository.pool.QueryRow(context, query, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Ticket")
		}
		return nil, dberr.Wrap(err, "update_ticket_status")
	}
	return ticket, nil
}

// Delete removes a ticket.
func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	const query = `DELETE FROM support.ticket WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_ticket")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Ticket")
	}
	return nil
}
