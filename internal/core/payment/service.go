/*
Package payment implements one-off asset purchases through the payment
provider's hosted checkout.

# Completion paths

A payment completes either when the provider's webhook delivers
checkout.session.completed or when the buyer's client asks us to verify
the session after redirect. Both paths converge on one idempotent
completion routine, so double processing credits nothing twice.
*/
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/clarifyx/clarifyx/internal/auth"
	"github.com/clarifyx/clarifyx/internal/core/asset"
	"github.com/clarifyx/clarifyx/internal/core/earning"
	"github.com/clarifyx/clarifyx/internal/notify"
	"github.com/clarifyx/clarifyx/internal/platform/apperr"
	"github.com/clarifyx/clarifyx/internal/platform/constants"
	"github.com/clarifyx/clarifyx/internal/platform/stripe"
	"github.com/clarifyx/clarifyx/pkg/query"
	"github.com/clarifyx/clarifyx/pkg/uuidv7"
)

// Provider is the narrow payment-provider contract checkout needs.
// Satisfied by [stripe.Client].
type Provider interface {
	CreateCheckoutSession(context context.Context, params stripe.CheckoutParams) (*stripe.CheckoutSession, error)
	GetCheckoutSession(context context.Context, sessionID string) (*stripe.CheckoutSession, error)
}

// AssetCatalog resolves assets for sale. Satisfied by the asset service.
type AssetCatalog interface {
	Get(context context.Context, idOrSlug string) (*asset.Asset, error)
}

// UserDirectory resolves buyer accounts. Satisfied by the auth user
// repository.
type UserDirectory interface {
	FindByID(context context.Context, id string) (*auth.User, error)
}

// SaleRecorder credits completed payments to the earnings ledgers.
// Satisfied by the earning service.
type SaleRecorder interface {
	RecordSale(context context.Context, input earning.SaleInput) (*earning.Earning, error)
}

// Service implements the purchase use cases.
type Service struct {
	repository Repository
	assets     AssetCatalog
	users      UserDirectory
	sales      SaleRecorder
	provider   Provider
	mailer     notify.Mailer
	// frontendURL anchors the post-checkout redirect targets.
	frontendURL string
	logger      *slog.Logger
}

// NewService constructs a new payment [Service].
func NewService(
	repository Repository,
	assets AssetCatalog,
	users UserDirectory,
	sales SaleRecorder,
	provider Provider,
	mailer notify.Mailer,
	frontendURL string,
	logger *slog.Logger,
) *Service {
	return &Service{
		repository:  repository,
		assets:      assets,
		users:       users,
		sales:       sales,
		provider:    provider,
		mailer:      mailer,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// CheckoutResult carries the hosted checkout hand-off.
type CheckoutResult struct {
	PaymentID   string `json:"paymentId"`
	CheckoutURL string `json:"checkoutUrl"`
}

/*
Checkout opens a hosted checkout session for one asset.

Description: only approved, paid assets can be bought; buyers never buy
their own work or the same asset twice. Premium members receive a 30%
discount at checkout. A pending payment row is persisted before the
caller is redirected, keyed by the provider session.

Returns:
  - *CheckoutResult: payment id and redirect URL
  - err: NotFound, Conflict, Forbidden, validation, or provider errors
*/
func (service *Service) Checkout(context context.Context, buyerID, assetID string) (*CheckoutResult, error) {
	saleAsset, err := service.assets.Get(context, assetID)
	if err != nil {
		return nil, err
	}
	if saleAsset.Status != asset.StatusApproved {
		return nil, apperr.NotFound("Asset")
	}
	if saleAsset.IsFree() {
		return nil, apperr.ValidationError("This asset is free; download it directly")
	}
	if saleAsset.AuthorID == buyerID {
		return nil, apperr.Forbidden("You cannot purchase your own asset")
	}

	purchased, err := service.repository.HasPurchased(context, buyerID, saleAsset.ID)
	if err != nil {
		return nil, fmt.Errorf("payment_service_purchase_check_failed: %w", err)
	}
	if purchased {
		return nil, apperr.Conflict("You already own this asset")
	}

	buyer, err := service.users.FindByID(context, buyerID)
	if err != nil {
		return nil, err
	}

	amount := saleAsset.Price
	if buyer.IsPremium {
		amount = amount * (100 - constants.PremiumDiscountPercent) / 100
	}
	amountCents := int64(math.Round(amount * 100))

	paymentID := uuidv7.New()
	session, err := service.provider.CreateCheckoutSession(context, stripe.CheckoutParams{
		Mode:          "payment",
		SuccessURL:    service.frontendURL + "/purchases/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     service.frontendURL + "/assets/" + saleAsset.Slug,
		CustomerEmail: buyer.Email,
		Currency:      "usd",
		ProductName:   saleAsset.Title,
		AmountCents:   amountCents,
		Metadata: map[string]string{
			"payment_id": paymentID,
			"asset_id":   saleAsset.ID,
			"buyer_id":   buyerID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("payment_service_checkout_session_failed: %w", err)
	}

	payment := &Payment{
		ID:              paymentID,
		BuyerID:         buyerID,
		AssetID:         saleAsset.ID,
		Amount:          amount,
		Currency:        "usd",
		Status:          StatusPending,
		StripeSessionID: session.ID,
	}
	if err := service.repository.Create(context, payment); err != nil {
		return nil, fmt.Errorf("payment_service_create_failed: %w", err)
	}

	service.logger.Info("payment_checkout_opened",
		slog.String("payment_id", payment.ID),
		slog.String("asset_id", saleAsset.ID),
		slog.String("buyer_id", buyerID),
	)
	return &CheckoutResult{PaymentID: payment.ID, CheckoutURL: session.URL}, nil
}

/*
VerifySession confirms a checkout after the client redirect.

Description: the buyer's browser returns from the provider with a
session id; we re-read the session server-side and, if it is paid, run
the same idempotent completion the webhook uses.

Returns:
  - *Payment: current payment state
  - err: NotFound, Forbidden (not the buyer), or provider errors
*/
func (service *Service) VerifySession(context context.Context, sessionID, callerID string) (*Payment, error) {
	payment, err := service.repository.FindBySessionID(context, sessionID)
	if err != nil {
		return nil, err
	}
	if payment.BuyerID != callerID {
		return nil, apperr.Forbidden("This checkout session belongs to another account")
	}

	session, err := service.provider.GetCheckoutSession(context, sessionID)
	if err != nil {
		return nil, fmt.Errorf("payment_service_session_lookup_failed: %w", err)
	}

	if session.PaymentStatus == "paid" {
		if err := service.complete(context, payment, session.PaymentIntent); err != nil {
			return nil, err
		}
		payment.Status = StatusCompleted
	}
	return payment, nil
}

// HandleCheckoutCompleted processes the provider's
// checkout.session.completed event for one-off purchases.
func (service *Service) HandleCheckoutCompleted(context context.Context, session *stripe.CheckoutSession) error {
	payment, err := service.resolvePayment(context, session)
	if err != nil {
		return err
	}
	return service.complete(context, payment, session.PaymentIntent)
}

// HandleCheckoutExpired marks an abandoned checkout as failed.
func (service *Service) HandleCheckoutExpired(context context.Context, session *stripe.CheckoutSession) error {
	payment, err := service.resolvePayment(context, session)
	if err != nil {
		return err
	}
	if payment.Status != StatusPending {
		return nil
	}
	return service.repository.MarkFailed(context, payment.ID)
}

// resolvePayment locates the local payment for a provider session,
// preferring the metadata key and falling back to the session id.
func (service *Service) resolvePayment(context context.Context, session *stripe.CheckoutSession) (*Payment, error) {
	if paymentID := session.Metadata["payment_id"]; paymentID != "" {
		if payment, err := service.repository.FindByID(context, paymentID); err == nil {
			return payment, nil
		}
	}
	return service.repository.FindBySessionID(context, session.ID)
}

/*
complete transitions a payment to completed and credits the sale.

The status transition and the ledger write are each idempotent on
their own, so replays from either confirmation path converge: a replay
that finds the payment already completed still calls the recorder,
which heals a historical crash between the two steps.
*/
func (service *Service) complete(context context.Context, payment *Payment, paymentIntentID string) error {
	transitioned, err := service.repository.MarkCompleted(context, payment.ID, paymentIntentID)
	if err != nil {
		return fmt.Errorf("payment_service_complete_failed: %w", err)
	}

	saleAsset, err := service.assets.Get(context, payment.AssetID)
	if err != nil {
		return err
	}
	buyer, err := service.users.FindByID(context, payment.BuyerID)
	if err != nil {
		return err
	}

	if _, err := service.sales.RecordSale(context, earning.SaleInput{
		AuthorID:       saleAsset.AuthorID,
		AssetID:        saleAsset.ID,
		PaymentID:      payment.ID,
		BuyerID:        payment.BuyerID,
		AssetPrice:     saleAsset.Price,
		IsPremiumBuyer: buyer.IsPremium,
	}); err != nil {
		return err
	}

	if transitioned {
		service.logger.Info("payment_completed",
			slog.String("payment_id", payment.ID),
			slog.String("asset_id", saleAsset.ID),
		)
		service.sendReceipt(context, buyer, saleAsset, payment)
	}
	return nil
}

// sendReceipt emails the buyer. Best effort; a mail failure never
// affects the ledger.
func (service *Service) sendReceipt(context context.Context, buyer *auth.User, saleAsset *asset.Asset, payment *Payment) {
	subject := fmt.Sprintf("Your ClarifyX receipt for %q", saleAsset.Title)
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nThanks for your purchase of %q ($%.2f).\r\nYou can download it any time from your library.\r\n\r\nThe ClarifyX team",
		buyer.Username, saleAsset.Title, payment.Amount,
	)

	if err := service.mailer.Send(context, buyer.Email, subject, body); err != nil {
		service.logger.Warn("payment_receipt_mail_failed",
			slog.String("payment_id", payment.ID),
			slog.String("error", err.Error()),
		)
	}
}

// List returns a filtered page of payments.
func (service *Service) List(context context.Context, q query.Query) ([]*Payment, int, error) {
	return service.repository.List(context, q)
}

// HasPurchased reports whether the buyer owns the asset.
func (service *Service) HasPurchased(context context.Context, buyerID, assetID string) (bool, error) {
	return service.repository.HasPurchased(context, buyerID, assetID)
}
