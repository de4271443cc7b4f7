package contact

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clarifyx/clarifyx/internal/platform/database/schema"
	"github.com/clarifyx/clarifyx/internal/platform/middleware"
	requestutil "github.com/clarifyx/clarifyx/internal/platform/request"
	"github.com/clarifyx/clarifyx/internal/platform/respond"
	"github.com/clarifyx/clarifyx/internal/platform/sec"
	"github.com/clarifyx/clarifyx/pkg/query"
)

// Handler implements support ticket HTTP endpoints.
type Handler struct {
	contactService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{contactService: service}
}

// Routes returns a [chi.Router] with the public contact form plus
// authenticated ticket routes.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// The contact form accepts anonymous submissions.
	router.Post("/", handler.create)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", handler.list)
		r.Get("/{id}", handler.get)

		r.Group(func(sr chi.Router) {
			sr.Use(middleware.RequireRole(sec.RoleAdmin))
			sr.Post("/{id}/reply", handler.reply)
			sr.Patch("/{id}/status", handler.setStatus)
			sr.Delete("/{id}", handler.delete)
		})
	})

	return router
}

// Create files a support ticket. Signed-in submitters get the ticket
// attached to their account.
//
// POST /api/v1/contact
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input CreateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	userID := ""
	if claims := requestutil.Claims(request); claims != nil {
		userID = claims.UserID
	}

	ticket, err := handler.contactService.Create(request.Context(), userID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, "Ticket created", ticket)
}

/*
List returns tickets: staff see everything, everyone else their own.

GET /api/v1/contact

Query parameters:
  - category, status, priority: exact filters
  - search / searchTerm / q: free text over subject and message
  - sort: createdAt, priority ("-" = desc)
  - page, limit: pagination
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	table := schema.SupportTicket
	builder := query.New(request.URL.Query()).
		Search(table.Subject, table.Message).
		FilterExact(FieldCategory, table.Category).
		FilterExact(FieldStatus, table.Status).
		FilterExact(FieldPriority, table.Priority).
		Sort(map[string]string{
			"createdAt": table.CreatedAt,
			"priority":  table.Priority,
		}).
		Paginate(query.DefaultLimit, query.MaxLimit)

	if !sec.IsStaff(claims.Role) {
		builder.Condition(table.UserID+" = ?", claims.UserID)
	}

	q := builder.Build()
	tickets, total, err := handler.contactService.List(request.Context(), q)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, "Tickets retrieved", tickets, builder.BuildMeta(total))
}

// Get returns a single ticket with an ownership check.
//
// GET /api/v1/contact/{id}
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	ticket, err := handler.contactService.Get(request.Context(),
		requestutil.ID(request, "id"), claims.UserID, sec.IsStaff(claims.Role))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Ticket retrieved", ticket)
}

type replyInput struct {
	Reply string `json:"reply"`
}

// Reply stores the support answer and emails the requester. Admin only.
//
// POST /api/v1/contact/{id}/reply
func (handler *Handler) reply(writer http.ResponseWriter, request *http.Request) {
	var input replyInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	ticket, err := handler.contactService.Reply(request.Context(), requestutil.ID(request, "id"), input.Reply)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Reply sent", ticket)
}

type statusInput struct {
	Status string `json:"status"`
}

// SetStatus moves a ticket through its workflow. Admin only.
//
// PATCH /api/v1/contact/{id}/status
func (handler *Handler) setStatus(writer http.ResponseWriter, request *http.Request) {
	var input statusInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	ticket, err := handler.contactService.SetStatus(request.Context(), requestutil.ID(request, "id"), input.Status)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Ticket status updated", ticket)
}

// Delete removes a ticket. Admin only.
//
// DELETE /api/v1/contact/{id}
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	if err := handler.contactService.Delete(request.Context(), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
