package payment

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

// Handler implements purchase HTTP endpoints.
type Handler struct {
	paymentService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{paymentService: service}
}

// Routes returns a [chi.Router] with checkout and purchase history
// routes. Every route requires authentication.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Post("/checkout", handler.checkout)
		r.Get("/verify/{sessionID}", handler.verify)
		r.Get("/", handler.list)
		r.Get("/check/{assetID}", handler.checkPurchase)
	})

	return router
}

type checkoutInput struct {
	AssetID string `json:"assetId"`
}

/*
Checkout opens a hosted checkout session for an asset purchase.

POST /api/v1/payments/checkout

Request body:

	{"assetId": "..."}

Responds with the payment id and the provider URL the client should
redirect the buyer to.
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

	if err := (&validate.Validator{}).
		Required("assetId", input.AssetID).
		UUID("assetId", input.AssetID).
		Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.paymentService.Checkout(request.Context(), userID, input.AssetID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, "Checkout session created", result)
}

/*
Verify confirms a checkout session after the provider redirect.

GET /api/v1/payments/verify/{sessionID}

Returns the payment in its current state. A paid session completes the
payment on the spot if the webhook has not arrived yet.
*/
func (handler *Handler) verify(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessionID := requestutil.Param(request, "sessionID")
	payment, err := handler.paymentService.VerifySession(request.Context(), sessionID, userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Payment verified", payment)
}

/*
List returns the caller's purchase history.

GET /api/v1/payments

Query parameters:
  - status: exact filter (pending, completed, failed)
  - assetId: UUID filter
  - buyerId: UUID filter, staff only
  - sort: createdAt, amount ("-" = desc)
  - page, limit: pagination

Non-staff callers only ever see their own payments.
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	table := schema.BillingPayment
	builder := query.New(request.URL.Query()).
		FilterExact(FieldStatus, table.Status).
		FilterUUID(FieldAssetID, table.AssetID).
		Sort(map[string]string{
			"createdAt": table.CreatedAt,
			"amount":    table.Amount,
		}).
		Paginate(query.DefaultLimit, query.MaxLimit)

	if sec.IsStaff(claims.Role) {
		builder.FilterUUID("buyerId", table.BuyerID)
	} else {
		builder.Condition(table.BuyerID+" = ?", claims.UserID)
	}

	q := builder.Build()
	payments, total, err := handler.paymentService.List(request.Context(), q)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, "Payments retrieved", payments, builder.BuildMeta(total))
}

/*
CheckPurchase reports whether the caller owns an asset.

GET /api/v1/payments/check/{assetID}

The storefront uses this to swap the buy button for a download button.
*/
func (handler *Handler) checkPurchase(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	assetID := requestutil.Param(request, "assetID")
	purchased, err := handler.paymentService.HasPurchased(request.Context(), userID, assetID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Purchase status retrieved", map[string]bool{"purchased": purchased})
}
