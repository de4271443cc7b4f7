package review

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

// Handler implements review HTTP endpoints.
type Handler struct {
	reviewService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{reviewService: service}
}

// Routes returns a [chi.Router] with public browsing and authenticated
// review management routes.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Get("/", handler.list)
	router.Get("/{id}", handler.get)

	// Authenticated endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/", handler.create)
		r.Patch("/{id}", handler.update)
		r.Delete("/{id}", handler.delete)
		r.Post("/{id}/reply", handler.reply)

		r.Group(func(ar chi.Router) {
			ar.Use(middleware.RequireRole(sec.RoleAuthor))
			ar.Get("/received", handler.received)
		})
	})

	return router
}

// reviewBuilder assembles the shared review list query.
func reviewBuilder(request *http.Request) *query.Builder {
	table := schema.MarketReview

	return query.New(request.URL.Query()).
		FilterUUID(FieldAssetID, table.AssetID).
		FilterUUID(FieldUserID, table.UserID).
		FilterExact(FieldRating, table.Rating).
		Sort(map[string]string{
			"createdAt": table.CreatedAt,
			"rating":    table.Rating,
		}).
		Paginate(query.DefaultLimit, query.MaxLimit)
}

/*
List returns a filtered page of reviews.

GET /api/v1/reviews?assetId=...

Query parameters:
  - assetId, userId: UUID filters
  - rating: exact filter
  - sort: createdAt, rating ("-" = desc)
  - page, limit: pagination
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	builder := reviewBuilder(request)

	q := builder.Build()
	reviews, total, err := handler.reviewService.List(request.Context(), q)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, "Reviews retrieved", reviews, builder.BuildMeta(total))
}

// Get returns a single review.
//
// GET /api/v1/reviews/{id}
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	review, err := handler.reviewService.Get(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, "Review retrieved", review)
}

// Create adds a review to an asset.
//
// POST /api/v1/reviews
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input CreateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	review, err := handler.reviewService.Create(request.Context(), userID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, "Review created", review)
}

// Update edits the caller's own review.
//
// PATCH /api/v1/reviews/{id}
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input UpdateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	review, err := handler.reviewService.Update(request.Context(), requestutil.ID(request, "id"), userID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Review updated", review)
}

type replyInput struct {
	Reply string `json:"reply"`
}

// Reply stores the asset author's response to a review.
//
// POST /api/v1/reviews/{id}/reply
func (handler *Handler) reply(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input replyInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	review, err := handler.reviewService.Reply(request.Context(), requestutil.ID(request, "id"), userID, input.Reply)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Reply posted", review)
}

// Received returns reviews left on the calling author's assets.
//
// GET /api/v1/reviews/received
func (handler *Handler) received(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Scope to reviews on assets the caller authored.
	builder := reviewBuilder(request).
		Condition("asset_id IN (SELECT id FROM market.asset WHERE author_id = ?)", userID)

	q := builder.Build()
	reviews, total, err := handler.reviewService.List(request.Context(), q)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, "Reviews retrieved", reviews, builder.BuildMeta(total))
}

// Delete removes a review. Reviewers delete their own; staff delete any.
//
// DELETE /api/v1/reviews/{id}
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.reviewService.Delete(request.Context(),
		requestutil.ID(request, "id"), claims.UserID, sec.IsStaff(claims.Role))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
