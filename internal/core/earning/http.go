package earning

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clarifyx/clarifyx/internal/platform/middleware"
	requestutil "github.com/clarifyx/clarifyx/internal/platform/request"
	"github.com/clarifyx/clarifyx/internal/platform/respond"
	"github.com/clarifyx/clarifyx/internal/platform/sec"
)

// Handler implements earnings reporting HTTP endpoints.
type Handler struct {
	earningService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{earningService: service}
}

// Routes returns a [chi.Router] with author and admin earnings routes.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Group(func(ar chi.Router) {
			ar.Use(middleware.RequireRole(sec.RoleAuthor))
			ar.Get("/me", handler.myEarnings)
		})

		r.Group(func(sr chi.Router) {
			sr.Use(middleware.RequireRole(sec.RoleAdmin))
			sr.Get("/company", handler.companyEarnings)
			sr.Get("/authors", handler.totalAuthorEarnings)
			sr.Get("/subscriptions", handler.subscriptionRevenue)
			sr.Post("/backfill", handler.backfill)
		})
	})

	return router
}

// periodParam reads the period query parameter, defaulting to lifetime.
func periodParam(request *http.Request) string {
	if period := request.URL.Query().Get("period"); period != "" {
		return period
	}
	return PeriodLifetime
}

// MyEarnings totals the calling author's earnings for a period.
//
// GET /api/v1/earnings/me?period=thisMonth
func (handler *Handler) myEarnings(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	summary, err := handler.earningService.AuthorEarnings(request.Context(), userID, periodParam(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Earnings retrieved", summary)
}

// CompanyEarnings totals the platform cut of asset sales. Admin only.
//
// GET /api/v1/earnings/company?period=thisYear
func (handler *Handler) companyEarnings(writer http.ResponseWriter, request *http.Request) {
	summary, err := handler.earningService.CompanyEarnings(request.Context(), periodParam(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, "Company earnings retrieved", summary)
}

// TotalAuthorEarnings totals payouts across all authors. Admin only.
//
// GET /api/v1/earnings/authors?period=thisMonth
func (handler *Handler) totalAuthorEarnings(writer http.ResponseWriter, request *http.Request) {
	summary, err := handler.earningService.TotalAuthorEarnings(request.Context(), periodParam(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, "Author earnings retrieved", summary)
}

// SubscriptionRevenue totals subscription income. Admin only.
//
// GET /api/v1/earnings/subscriptions?period=today
func (handler *Handler) subscriptionRevenue(writer http.ResponseWriter, request *http.Request) {
	summary, err := handler.earningService.SubscriptionRevenueForPeriod(request.Context(), periodParam(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, "Subscription revenue retrieved", summary)
}

// Backfill reconciles every author's cached total against the ledger.
// Admin only.
//
// POST /api/v1/earnings/backfill
func (handler *Handler) backfill(writer http.ResponseWriter, request *http.Request) {
	updated, err := handler.earningService.BackfillTotalEarnings(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Author totals reconciled", map[string]int{"authorsUpdated": updated})
}
