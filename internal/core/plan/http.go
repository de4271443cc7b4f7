// Package plan manages purchasable subscription tiers.
package plan

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

// Handler implements subscription plan HTTP endpoints.
type Handler struct {
	planService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{planService: service}
}

// Routes returns a [chi.Router] with public pricing and admin CRUD routes.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Get("/", handler.list)
	router.Get("/{idOrSlug}", handler.get)

	// Admin endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Use(middleware.RequireRole(sec.RoleAdmin))
		r.Post("/", handler.create)
		r.Patch("/{id}", handler.update)
		r.Delete("/{id}", handler.retire)
	})

	return router
}

/*
List returns plans.

GET /api/v1/plans

Description: The public pricing page sees active plans only. Staff may
pass filters to browse retired tiers as well.
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	claims := requestutil.Claims(request)

	if claims == nil || !sec.UserRole(claims.Role).IsStaff() {
		plans, err := handler.planService.ListActive(request.Context())
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		respond.OK(writer, "Plans retrieved", plans)
		return
	}

	table := schema.BillingPlan
	builder := query.New(request.URL.Query()).
		Search(table.Name, table.Description).
		FilterExact(FieldInterval, table.Interval).
		FilterBoolean(FieldIsActive, table.IsActive).
		Sort(map[string]string{
			"price":     table.Price,
			"name":      table.Name,
			"createdAt": table.CreatedAt,
		}).
		Paginate(query.DefaultLimit, query.MaxLimit)

	plans, total, err := handler.planService.List(request.Context(), builder.Build())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, "Plans retrieved", plans, builder.BuildMeta(total))
}

// Get returns a single plan by UUID or slug.
//
// GET /api/v1/plans/{idOrSlug}
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	plan, err := handler.planService.Get(request.Context(), requestutil.ID(request, "idOrSlug"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, "Plan retrieved", plan)
}

// Create adds a new plan. Admin only.
//
// POST /api/v1/plans
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input CreateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	plan, err := handler.planService.Create(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, "Plan created", plan)
}

// Update applies a partial update to a plan. Admin only.
//
// PATCH /api/v1/plans/{id}
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	var input UpdateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	plan, err := handler.planService.Update(request.Context(), requestutil.ID(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Plan updated", plan)
}

// Retire disables a plan for new purchases. Admin only.
//
// DELETE /api/v1/plans/{id}
func (handler *Handler) retire(writer http.ResponseWriter, request *http.Request) {
	if err := handler.planService.Retire(request.Context(), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
