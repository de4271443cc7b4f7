package contact

import (
	"context"

	"github.com/clarifyx/clarifyx/pkg/query"
)

// Repository persists support tickets.
type Repository interface {
	// FindByID returns the ticket with the given ID.
	FindByID(context context.Context, id string) (*Ticket, error)

	// List returns a filtered page of tickets plus the matching total.
	List(context context.Context, q query.Query) ([]*Ticket, int, error)

	// Create persists a new ticket.
	Create(context context.Context, ticket *Ticket) error

	// SetReply stores the support answer, stamps replied_at, and moves
	// an open ticket to in_progress.
	SetReply(context context.Context, id, reply string) (*Ticket, error)

	// SetStatus updates the ticket status.
	SetStatus(context context.Context, id, status string) (*Ticket, error)

	// Delete removes a ticket.
	Delete(context context.Context, id string) error
}
