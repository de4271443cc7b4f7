package dashboard

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clarifyx/clarifyx/internal/platform/middleware"
	requestutil "github.com/clarifyx/clarifyx/internal/platform/request"
	"github.com/clarifyx/clarifyx/internal/platform/respond"
	"github.com/clarifyx/clarifyx/internal/platform/sec"
)

// Handler implements dashboard HTTP endpoints.
type Handler struct {
	dashboardService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{dashboardService: service}
}

// Routes returns a [chi.Router] with the author and admin dashboards.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Group(func(ar chi.Router) {
			ar.Use(middleware.RequireRole(sec.RoleAuthor))
			ar.Get("/author", handler.author)
		})

		r.Group(func(sr chi.Router) {
			sr.Use(middleware.RequireRole(sec.RoleAdmin))
			sr.Get("/admin", handler.admin)
		})
	})

	return router
}

// Author returns the calling author's dashboard.
//
// GET /api/v1/dashboard/author
func (handler *Handler) author(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	board, err := handler.dashboardService.AuthorDashboard(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Author dashboard retrieved", board)
}

// Admin returns the platform-wide dashboard. Admin only.
//
// GET /api/v1/dashboard/admin
func (handler *Handler) admin(writer http.ResponseWriter, request *http.Request) {
	board, err := handler.dashboardService.AdminDashboard(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Admin dashboard retrieved", board)
}
