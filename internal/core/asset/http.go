/*
Package asset implements the marketplace catalogue: publishing,
moderation, browsing, and engagement (views, likes, downloads).

# Listing

The list endpoint is the richest query surface in the API. Every filter
is declared against an explicit column whitelist; unknown or malformed
parameters are ignored rather than rejected so client query-string bugs
never break browsing.
*/
package asset

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

// Handler implements asset HTTP endpoints.
type Handler struct {
	assetService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{assetService: service}
}

// Routes returns a [chi.Router] with browsing, publishing, moderation,
// and engagement routes.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Get("/", handler.list)
	router.Get("/{idOrSlug}", handler.get)
	router.Post("/{id}/view", handler.recordView)

	// Authenticated endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/{id}/like", handler.toggleLike)
		r.Get("/{id}/download", handler.download)
		r.Delete("/{id}", handler.delete)

		// Authors publish and edit
		r.Group(func(ar chi.Router) {
			ar.Use(middleware.RequireRole(sec.RoleAuthor))
			ar.Post("/", handler.create)
			ar.Patch("/{id}", handler.update)
		})

		// Staff moderate
		r.Group(func(sr chi.Router) {
			sr.Use(middleware.RequireRole(sec.RoleAdmin))
			sr.Post("/{id}/approve", handler.approve)
			sr.Post("/{id}/reject", handler.reject)
		})
	})

	return router
}

/*
List returns a filtered, sorted, paginated page of assets.

GET /api/v1/assets

Query parameters:
  - search / searchTerm / q: free text over title, description, tags
  - type, orientation, status: exact filters
  - isPremium, isAiGenerated: boolean filters
  - authorId: UUID filter
  - categoryIds: UUID array, any-overlap semantics
  - tags: array, superset semantics (asset must carry every tag)
  - tools: array, any-overlap semantics
  - minPrice/maxPrice, minSize/maxSize, minWidth/maxWidth,
    minHeight/maxHeight, minDuration/maxDuration: numeric ranges
  - sort: createdAt, price, title, views, downloads, likes ("-" = desc)
  - fields: projection allow-list (id always included)
  - page, limit: pagination

Assets pending review are hidden unless the caller filters on status
explicitly (the admin review queue does exactly that).
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	table := schema.MarketAsset
	stats := schema.MarketAssetStats
	params := request.URL.Query()

	builder := query.New(params).
		Search("a."+table.Title, "a."+table.Description).
		FilterExact(FieldType, "a."+table.Type).
		FilterExact(FieldOrientation, "a."+table.Orientation).
		FilterExact(FieldStatus, "a."+table.Status).
		FilterBoolean("isPremium", "a."+table.IsPremium).
		FilterBoolean("isAiGenerated", "a."+table.IsAIGenerated).
		FilterUUID("authorId", "a."+table.AuthorID).
		FilterUUIDArray("categoryIds", "a."+table.CategoryIDs, query.ModeIn).
		FilterArray("tags", "a."+table.Tags, query.ModeAll).
		FilterArray("tools", "a."+table.CompatibleTools, query.ModeIn).
		Range("a."+table.Price, "minPrice", "maxPrice").
		Range("a."+table.FileSize, "minSize", "maxSize").
		Range("a."+table.Width, "minWidth", "maxWidth").
		Range("a."+table.Height, "minHeight", "maxHeight").
		Range("a."+table.Duration, "minDuration", "maxDuration").
		Sort(map[string]string{
			"createdAt": "a." + table.CreatedAt,
			"price":     "a." + table.Price,
			"title":     "a." + table.Title,
			"views":     "s." + stats.Views,
			"downloads": "s." + stats.Downloads,
			"likes":     "s." + stats.Likes,
		}).
		Project(map[string]string{
			"authorId":    table.AuthorID,
			"title":       table.Title,
			"slug":        table.Slug,
			"description": table.Description,
			"type":        table.Type,
			"price":       table.Price,
			"status":      table.Status,
			"previewUrl":  table.PreviewURL,
			"createdAt":   table.CreatedAt,
		}, table.ID).
		Paginate(query.DefaultLimit, query.MaxLimit)

	// The review queue filters on status explicitly. Everyone else
	// never sees assets that are still pending review.
	if params.Get(FieldStatus) == "" {
		builder.Condition("a."+table.Status+" <> ?", StatusPendingReview)
	}

	assets, total, err := handler.assetService.List(request.Context(), builder.Build())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, "Assets retrieved", assets, builder.BuildMeta(total))
}

// Get returns a single asset with its engagement counters.
//
// GET /api/v1/assets/{idOrSlug}
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	asset, err := handler.assetService.Get(request.Context(), requestutil.ID(request, "idOrSlug"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, "Asset retrieved", asset)
}

// Create publishes a new asset for review. Authors only.
//
// POST /api/v1/assets
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input CreateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}
	input.AuthorID = userID

	asset, err := handler.assetService.Create(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, "Asset submitted for review", asset)
}

// Update applies a partial update to an asset. Owner or staff only.
//
// PATCH /api/v1/assets/{id}
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input UpdateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	asset, err := handler.assetService.Update(
		request.Context(),
		requestutil.ID(request, "id"),
		claims.UserID,
		sec.UserRole(claims.Role).IsStaff(),
		input,
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Asset updated", asset)
}

// Delete is intentionally disabled: purchased assets must stay
// downloadable, so takedowns go through support instead.
//
// DELETE /api/v1/assets/{id}
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, "Asset deletion is disabled. Contact support to take down an asset.", map[string]any{
		"deleted": false,
	})
}

// Approve accepts a pending asset. Admin only.
//
// POST /api/v1/assets/{id}/approve
func (handler *Handler) approve(writer http.ResponseWriter, request *http.Request) {
	asset, err := handler.assetService.Approve(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, "Asset approved", asset)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// Reject declines a pending asset with a reason. Admin only.
//
// POST /api/v1/assets/{id}/reject
func (handler *Handler) reject(writer http.ResponseWriter, request *http.Request) {
	var input rejectRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	asset, err := handler.assetService.Reject(request.Context(), requestutil.ID(request, "id"), input.Reason)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, "Asset rejected", asset)
}

// RecordView bumps the view counter. Fire-and-forget from clients.
//
// POST /api/v1/assets/{id}/view
func (handler *Handler) recordView(writer http.ResponseWriter, request *http.Request) {
	if err := handler.assetService.RecordView(request.Context(), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// ToggleLike likes or unlikes an asset for the authenticated user.
//
// POST /api/v1/assets/{id}/like
func (handler *Handler) toggleLike(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	liked, err := handler.assetService.ToggleLike(request.Context(), requestutil.ID(request, "id"), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Like updated", map[string]bool{"liked": liked})
}

// Download verifies entitlement and returns the original file URL.
//
// GET /api/v1/assets/{id}/download
func (handler *Handler) download(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	fileURL, err := handler.assetService.Download(request.Context(), requestutil.ID(request, "id"), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Download ready", map[string]string{"fileUrl": fileURL})
}
