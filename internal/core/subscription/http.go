package subscription

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clarifyx/clarifyx/internal/platform/database/schema"
	"github.com/clarifyx/clarifyx/internal/platform/middleware"
	requestutil "github.com/clarifyx/clarifyx/internal/platform/request"
	"github.com/clarifyx/clarifyx/internal/platform/respond"
	"github.com/clarifyx/clarifyx/internal/platform/sec"
	"github.com/clarifyx/clarifyx/internal/platform/validate"
	"github.com/clarifyx/clarifyx/pkg/query"
)

// Handler implements subscription HTTP endpoints.
type Handler struct {
	subscriptionService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{subscriptionService: service}
}

// Routes returns a [chi.Router] with member self-service and admin
// management routes. Every route requires authentication.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Post("/checkout", handler.checkout)
		r.Get("/verify/{sessionID}", handler.verify)
		r.Get("/me", handler.mine)
		r.Post("/cancel", handler.cancel)

		r.Group(func(sr chi.Router) {
			sr.Use(middleware.RequireRole(sec.RoleAdmin))
			sr.Get("/", handler.list)
			sr.Post("/", handler.adminCreate)
			sr.Patch("/{id}", handler.adminUpdate)
			sr.Delete("/{id}", handler.adminDelete)
		})
	})

	return router
}

type checkoutInput struct {
	PlanID string `json:"planId"`
}

/*
Checkout opens a hosted checkout session for a plan subscription.

POST /api/v1/subscriptions/checkout

Request body:

	{"planId": "..."}
*/
func (handler *Handler) checkout(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input checkoutInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := (&validate.Validator{}).Required("planId", input.PlanID).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.subscriptionService.Checkout(request.Context(), userID, input.PlanID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, "Checkout session created", result)
}

// Verify confirms a subscription checkout after the provider redirect.
//
// GET /api/v1/subscriptions/verify/{sessionID}
func (handler *Handler) verify(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessionID := requestutil.Param(request, "sessionID")
	subscription, err := handler.subscriptionService.VerifySession(request.Context(), sessionID, userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Subscription verified", subscription)
}

// Mine returns the caller's subscription.
//
// GET /api/v1/subscriptions/me
func (handler *Handler) mine(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	subscription, err := handler.subscriptionService.Mine(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Subscription retrieved", subscription)
}

// Cancel flags the caller's subscription to end at the period boundary.
//
// POST /api/v1/subscriptions/cancel
func (handler *Handler) cancel(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	subscription, err := handler.subscriptionService.Cancel(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Subscription will end at the current period boundary", subscription)
}

/*
List returns a filtered page of subscriptions. Admin only.

GET /api/v1/subscriptions

Query parameters:
  - status: exact filter (active, canceled, expired)
  - userId, planId: UUID filters
  - sort: createdAt, currentPeriodEnd ("-" = desc)
  - page, limit: pagination
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	table := schema.BillingSubscription

	builder := query.New(request.URL.Query()).
		FilterExact(FieldStatus, table.Status).
		FilterUUID(FieldUserID, table.UserID).
		FilterUUID(FieldPlanID, table.PlanID).
		Sort(map[string]string{
			"createdAt":        table.CreatedAt,
			"currentPeriodEnd": table.CurrentPeriodEnd,
		}).
		Paginate(query.DefaultLimit, query.MaxLimit)

	q := builder.Build()
	subscriptions, total, err := handler.subscriptionService.List(request.Context(), q)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, "Subscriptions retrieved", subscriptions, builder.BuildMeta(total))
}

// AdminCreate manually creates a subscription. Admin only.
//
// POST /api/v1/subscriptions
func (handler *Handler) adminCreate(writer http.ResponseWriter, request *http.Request) {
	var input AdminUpsertInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	subscription, err := handler.subscriptionService.AdminCreate(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, "Subscription created", subscription)
}

// AdminUpdate rewrites a subscription's status and period. Admin only.
//
// PATCH /api/v1/subscriptions/{id}
func (handler *Handler) adminUpdate(writer http.ResponseWriter, request *http.Request) {
	var input AdminUpsertInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	subscription, err := handler.subscriptionService.AdminUpdate(request.Context(), requestutil.ID(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Subscription updated", subscription)
}

// AdminDelete removes a subscription record. Admin only.
//
// DELETE /api/v1/subscriptions/{id}
func (handler *Handler) adminDelete(writer http.ResponseWriter, request *http.Request) {
	if err := handler.subscriptionService.AdminDelete(request.Context(), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
