/*
Package contact implements the support ticket desk.

Tickets come in through the public contact form (no account needed) or
from signed-in users. Support staff reply, triage status, and clean up;
the reply email is best effort and never blocks the ticket update.
*/
package contact

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/clarifyx/clarifyx/internal/notify"
	"github.com/clarifyx/clarifyx/internal/platform/apperr"
	"github.com/clarifyx/clarifyx/internal/platform/validate"
	"github.com/clarifyx/clarifyx/pkg/query"
	"github.com/clarifyx/clarifyx/pkg/uuidv7"
)

// Service implements the support ticket use cases.
type Service struct {
	repository Repository
	mailer     notify.Mailer
	logger     *slog.Logger
}

// NewService constructs a new contact [Service].
func NewService(repository Repository, mailer notify.Mailer, logger *slog.Logger) *Service {
	return &Service{repository: repository, mailer: mailer, logger: logger}
}

// CreateInput is the ticket creation payload.
type CreateInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Priority string `json:"priority"`
}

/*
Create files a support ticket.

Description: userID may be empty for anonymous submissions. Category
defaults to general and priority to normal when omitted.

Returns:
  - *Ticket: the created ticket
  - err: validation errors
*/
func (service *Service) Create(context context.Context, userID string, input CreateInput) (*Ticket, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Subject = strings.TrimSpace(input.Subject)
	input.Message = strings.TrimSpace(input.Message)

	if input.Category == "" {
		input.Category = CategoryGeneral
	}
	if input.Priority == "" {
		input.Priority = PriorityNormal
	}

	if err := (&validate.Validator{}).
		Required("name", input.Name).
		MaxLen("name", input.Name, 100).
		Required("email", input.Email).
		Email("email", input.Email).
		Required("subject", input.Subject).
		MaxLen("subject", input.Subject, 200).
		Required("message", input.Message).
		MaxLen("message", input.Message, 5000).
		OneOf("category", input.Category,
			CategoryGeneral, CategoryBilling, CategoryTakedown, CategoryBug, CategoryAccount).
		OneOf("priority", input.Priority, PriorityLow, PriorityNormal, PriorityHigh).
		Err(); err != nil {
		return nil, err
	}

	ticket := &Ticket{
		ID:       uuidv7.New(),
		UserID:   userID,
		Name:     input.Name,
		Email:    strings.ToLower(input.Email),
		Subject:  input.Subject,
		Message:  input.Message,
		Category: input.Category,
		Status:   StatusOpen,
		Priority: input.Priority,
	}
	if err := service.repository.Create(context, ticket); err != nil {
		return nil, fmt.Errorf("contact_service_create_failed: %w", err)
	}

	service.logger.Info("ticket_created",
		slog.String("ticket_id", ticket.ID),
		slog.String("category", ticket.Category),
		slog.String("priority", ticket.Priority),
	)
	return ticket, nil
}

/*
Get returns a ticket. Non-staff callers only see their own tickets.

Returns:
  - *Ticket: the ticket
  - err: NotFound or Forbidden
*/
func (service *Service) Get(context context.Context, id, callerID string, isStaff bool) (*Ticket, error) {
	ticket, err := service.repository.FindByID(context, id)
	if err != nil {
		return nil, err
	}
	if !isStaff && ticket.UserID != callerID {
		return nil, apperr.Forbidden("This ticket belongs to another account")
	}
	return ticket, nil
}

// List returns a filtered page of tickets.
func (service *Service) List(context context.Context, q query.Query) ([]*Ticket, int, error) {
	return service.repository.List(context, q)
}

/*
Reply stores the support answer and emails the requester.

The mail is best effort; a delivery failure leaves the reply in place.
*/
func (service *Service) Reply(context context.Context, id, reply string) (*Ticket, error) {
	reply = strings.TrimSpace(reply)
	if err := (&validate.Validator{}).
		Required("reply", reply).
		MaxLen("reply", reply, 5000).
		Err(); err != nil {
		return nil, err
	}

	ticket, err := service.repository.SetReply(context, id, reply)
	if err != nil {
		return nil, err
	}

	service.logger.Info("ticket_replied", slog.String("ticket_id", ticket.ID))

	subject := fmt.Sprintf("Re: %s", ticket.Subject)
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\n%s\r\n\r\nThe ClarifyX support team",
		ticket.Name, reply,
	)
	if err := service.mailer.Send(context, ticket.Email, subject, body); err != nil {
		service.logger.Warn("ticket_reply_mail_failed",
			slog.String("ticket_id", ticket.ID),
			slog.String("error", err.Error()),
		)
	}

	return ticket, nil
}

// SetStatus moves a ticket through its workflow.
func (service *Service) SetStatus(context context.Context, id, status string) (*Ticket, error) {
	if err := (&validate.Validator{}).
		OneOf("status", status, StatusOpen, StatusInProgress, StatusResolved, StatusClosed).
		Err(); err != nil {
		return nil, err
	}
	return service.repository.SetStatus(context, id, status)
}

// Delete removes a ticket.
func (service *Service) Delete(context context.Context, id string) error {
	return service.repository.Delete(context, id)
}
