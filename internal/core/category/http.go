// Package category manages the marketplace's browsable asset sections.
package category

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

// Handler implements category HTTP endpoints.
type Handler struct {
	categoryService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{categoryService: service}
}

// Routes returns a [chi.Router] with public browsing and admin CRUD routes.
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
		r.Delete("/{id}", handler.delete)
	})

	return router
}

/*
List returns categories.

GET /api/v1/categories

Description: Without query parameters the public active set is returned.
Staff may pass filters (search, isActive, pagination) to browse the full
catalog including disabled sections.
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	claims := requestutil.Claims(request)

	// Public storefront view: active categories only, no paging.
	if claims == nil || !sec.UserRole(claims.Role).IsStaff() {
		categories, err := handler.categoryService.ListActive(request.Context())
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		respond.OK(writer, "Categories retrieved", categories)
		return
	}

	table := schema.MarketCategory
	builder := query.New(request.URL.Query()).
		Search(table.Name, table.Description).
		FilterBoolean(FieldIsActive, table.IsActive).
		Sort(map[string]string{
			"name":      table.Name,
			"createdAt": table.CreatedAt,
		}).
		Paginate(query.DefaultLimit, query.MaxLimit)

	categories, total, err := handler.categoryService.List(request.Context(), builder.Build())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, "Categories retrieved", categories, builder.BuildMeta(total))
}

// Get returns a single category by UUID or slug.
//
// GET /api/v1/categories/{idOrSlug}
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	category, err := handler.categoryService.Get(request.Context(), requestutil.ID(request, "idOrSlug"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, "Category retrieved", category)
}

// Create adds a new category. Admin only.
//
// POST /api/v1/categories
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input CreateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	category, err := handler.categoryService.Create(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, "Category created", category)
}

// Update applies a partial update to a category. Admin only.
//
// PATCH /api/v1/categories/{id}
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	var input UpdateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	category, err := handler.categoryService.Update(request.Context(), requestutil.ID(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Category updated", category)
}

// Delete removes a category. Admin only.
//
// DELETE /api/v1/categories/{id}
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	if err := handler.categoryService.Delete(request.Context(), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
