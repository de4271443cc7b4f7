/*
Package subscription implements plan memberships backed by the payment
provider's recurring billing.

The provider owns the billing state. Local rows are a mirror: every
confirmation path (redirect verification, checkout webhook, lifecycle
webhook) re-reads the provider subscription and funnels through one
sync routine, so replays and out-of-order events all converge on the
same row.
*/
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/clarifyx/clarifyx/internal/auth"
	"github.com/clarifyx/clarifyx/internal/core/plan"
	"github.com/clarifyx/clarifyx/internal/notify"
	"github.com/clarifyx/clarifyx/internal/platform/apperr"
	"github.com/clarifyx/clarifyx/internal/platform/stripe"
	"github.com/clarifyx/clarifyx/internal/platform/validate"
	"github.com/clarifyx/clarifyx/pkg/query"
	"github.com/clarifyx/clarifyx/pkg/uuidv7"
)

// Provider is the narrow payment-provider contract subscriptions need.
// Satisfied by [stripe.Client].
type Provider interface {
	CreateCheckoutSession(context context.Context, params stripe.CheckoutParams) (*stripe.CheckoutSession, error)
	GetCheckoutSession(context context.Context, sessionID string) (*stripe.CheckoutSession, error)
	GetSubscription(context context.Context, subscriptionID string) (*stripe.Subscription, error)
	CancelSubscription(context context.Context, subscriptionID string) (*stripe.Subscription, error)
}

// PlanCatalog resolves plans. Satisfied by the plan service.
type PlanCatalog interface {
	Get(context context.Context, idOrSlug string) (*plan.Plan, error)
}

// UserDirectory resolves accounts and syncs their premium flag.
// Satisfied by the auth user repository.
type UserDirectory interface {
	FindByID(context context.Context, id string) (*auth.User, error)
	SetPremium(context context.Context, userID string, premium bool) error
}

// RevenueRecorder credits subscription income to the company ledger.
// Satisfied by the earning service.
type RevenueRecorder interface {
	RecordSubscriptionRevenue(context context.Context, subscriptionID, userID, planID string, amount float64) error
}

// Service implements the subscription use cases.
type Service struct {
	repository  Repository
	plans       PlanCatalog
	users       UserDirectory
	revenue     RevenueRecorder
	provider    Provider
	mailer      notify.Mailer
	frontendURL string
	logger      *slog.Logger
	now         func() time.Time
}

// NewService constructs a new subscription [Service].
func NewService(
	repository Repository,
	plans PlanCatalog,
	users UserDirectory,
	revenue RevenueRecorder,
	provider Provider,
	mailer notify.Mailer,
	frontendURL string,
	logger *slog.Logger,
) *Service {
	return &Service{
		repository:  repository,
		plans:       plans,
		users:       users,
		revenue:     revenue,
		provider:    provider,
		mailer:      mailer,
		frontendURL: frontendURL,
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock overrides the service clock. Tests use this to pin the
// activity check to a known instant.
func (service *Service) WithClock(now func() time.Time) *Service {
	service.now = now
	return service
}

// CheckoutResult carries the hosted checkout hand-off.
type CheckoutResult struct {
	CheckoutURL string `json:"checkoutUrl"`
}

/*
Checkout opens a hosted checkout session for a plan subscription.

Description: the plan must be active and wired to a provider price.
A user holds at most one subscription at a time. No local row is
created here; the mirror row appears when the provider confirms the
subscription.

Returns:
  - *CheckoutResult: the provider URL to redirect the user to
  - err: NotFound, Conflict, Unprocessable, or provider errors
*/
func (service *Service) Checkout(context context.Context, userID, planID string) (*CheckoutResult, error) {
	selected, err := service.plans.Get(context, planID)
	if err != nil {
		return nil, err
	}
	if !selected.IsActive {
		return nil, apperr.NotFound("Plan")
	}
	if selected.StripePriceID == "" {
		return nil, apperr.Unprocessable("This plan is not available for self-serve checkout")
	}

	if existing, err := service.repository.FindByUserID(context, userID); err == nil {
		if existing.IsActive(service.now()) {
			return nil, apperr.Conflict("You already have an active subscription")
		}
	} else if appError := apperr.As(err); appError == nil || appError.Code != "NOT_FOUND" {
		return nil, err
	}

	user, err := service.users.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	session, err := service.provider.CreateCheckoutSession(context, stripe.CheckoutParams{
		Mode:          "subscription",
		SuccessURL:    service.frontendURL + "/membership/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     service.frontendURL + "/pricing",
		CustomerEmail: user.Email,
		PriceID:       selected.StripePriceID,
		Metadata: map[string]string{
			"user_id": userID,
			"plan_id": selected.ID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("subscription_service_checkout_session_failed: %w", err)
	}

	service.logger.Info("subscription_checkout_opened",
		slog.String("user_id", userID),
		slog.String("plan_id", selected.ID),
	)
	return &CheckoutResult{CheckoutURL: session.URL}, nil
}

/*
VerifySession confirms a subscription checkout after the redirect.

Returns:
  - *Subscription: the mirrored subscription
  - err: NotFound, Forbidden (not the subscriber), or provider errors
*/
func (service *Service) VerifySession(context context.Context, sessionID, callerID string) (*Subscription, error) {
	session, err := service.provider.GetCheckoutSession(context, sessionID)
	if err != nil {
		return nil, fmt.Errorf("subscription_service_session_lookup_failed: %w", err)
	}
	if session.Metadata["user_id"] != callerID {
		return nil, apperr.Forbidden("This checkout session belongs to another account")
	}
	if session.PaymentStatus != "paid" || session.Subscription == "" {
		return nil, apperr.Unprocessable("Checkout has not completed yet")
	}

	return service.syncFromProvider(context, session.Subscription, callerID, session.Metadata["plan_id"])
}

// HandleCheckoutCompleted processes the provider's
// checkout.session.completed event for subscription checkouts.
func (service *Service) HandleCheckoutCompleted(context context.Context, session *stripe.CheckoutSession) error {
	if session.Subscription == "" {
		return nil
	}
	_, err := service.syncFromProvider(context,
		session.Subscription, session.Metadata["user_id"], session.Metadata["plan_id"])
	return err
}

// HandleSubscriptionEvent processes provider lifecycle events
// (customer.subscription.updated / .deleted) for subscriptions we
// already mirror. Events for unknown subscriptions are ignored.
func (service *Service) HandleSubscriptionEvent(context context.Context, providerSubscriptionID string) error {
	existing, err := service.repository.FindByProviderID(context, providerSubscriptionID)
	if err != nil {
		if appError := apperr.As(err); appError != nil && appError.Code == "NOT_FOUND" {
			return nil
		}
		return err
	}
	_, err = service.syncFromProvider(context, providerSubscriptionID, existing.UserID, existing.PlanID)
	return err
}

/*
syncFromProvider is the single convergence point for all confirmation
paths. It re-reads the provider subscription, upserts the mirror row,
syncs the user's premium flag, and on first creation credits the
company ledger and emails the invoice. The revenue write is idempotent
on the provider subscription id, so concurrent webhook and redirect
confirmations cannot double-credit.
*/
func (service *Service) syncFromProvider(context context.Context, providerSubscriptionID, userID, planID string) (*Subscription, error) {
	providerSub, err := service.provider.GetSubscription(context, providerSubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("subscription_service_provider_lookup_failed: %w", err)
	}

	status := mapProviderStatus(providerSub.Status)
	periodStart := time.Unix(providerSub.CurrentPeriodStart, 0).UTC()
	periodEnd := time.Unix(providerSub.CurrentPeriodEnd, 0).UTC()

	subscription, err := service.repository.FindByProviderID(context, providerSubscriptionID)
	notFound := err != nil && apperr.As(err) != nil && apperr.As(err).Code == "NOT_FOUND"
	created := false
	switch {
	case err == nil:
		subscription.Status = status
		subscription.CurrentPeriodStart = periodStart
		subscription.CurrentPeriodEnd = periodEnd
		subscription.CancelAtPeriodEnd = providerSub.CancelAtPeriodEnd
		if err := service.repository.Update(context, subscription); err != nil {
			return nil, fmt.Errorf("subscription_service_update_failed: %w", err)
		}
	case notFound:
		subscription = &Subscription{
			ID:                   uuidv7.New(),
			UserID:               userID,
			PlanID:               planID,
			StripeSubscriptionID: providerSubscriptionID,
			StripeCustomerID:     providerSub.Customer,
			Status:               status,
			CurrentPeriodStart:   periodStart,
			CurrentPeriodEnd:     periodEnd,
			CancelAtPeriodEnd:    providerSub.CancelAtPeriodEnd,
		}
		if err := service.repository.Create(context, subscription); err != nil {
			return nil, fmt.Errorf("subscription_service_create_failed: %w", err)
		}
		created = true
	default:
		return nil, err
	}

	if err := service.users.SetPremium(context, subscription.UserID, subscription.IsActive(service.now())); err != nil {
		return nil, fmt.Errorf("subscription_service_premium_sync_failed: %w", err)
	}

	if created {
		selected, err := service.plans.Get(context, subscription.PlanID)
		if err != nil {
			return nil, err
		}
		if err := service.revenue.RecordSubscriptionRevenue(context,
			subscription.StripeSubscriptionID, subscription.UserID, selected.ID, selected.Price); err != nil {
			return nil, err
		}

		service.logger.Info("subscription_created",
			slog.String("subscription_id", subscription.ID),
			slog.String("user_id", subscription.UserID),
			slog.String("plan_id", selected.ID),
		)
		service.sendInvoice(context, subscription, selected)
	}

	return subscription, nil
}

// mapProviderStatus folds the provider's status vocabulary into ours.
func mapProviderStatus(providerStatus string) string {
	switch providerStatus {
	case "canceled":
		return StatusCanceled
	case "unpaid", "incomplete_expired":
		return StatusExpired
	default:
		return StatusActive
	}
}

// sendInvoice emails the subscriber. Best effort; a mail failure never
// affects the mirrored state.
func (service *Service) sendInvoice(context context.Context, subscription *Subscription, selected *plan.Plan) {
	user, err := service.users.FindByID(context, subscription.UserID)
	if err != nil {
		return
	}

	subject := fmt.Sprintf("Welcome to ClarifyX %s", selected.Name)
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nYour %s membership ($%.2f / %s) is active until %s.\r\n\r\nThe ClarifyX team",
		user.Username, selected.Name, selected.Price, selected.Interval,
		subscription.CurrentPeriodEnd.Format("January 2, 2006"),
	)

	if err := service.mailer.Send(context, user.Email, subject, body); err != nil {
		service.logger.Warn("subscription_invoice_mail_failed",
			slog.String("subscription_id", subscription.ID),
			slog.String("error", err.Error()),
		)
	}
}

/*
Cancel flags the caller's subscription to end at the period boundary.

The subscription keeps its benefits until the paid period runs out;
the provider's lifecycle webhook flips the status when that happens.
*/
func (service *Service) Cancel(context context.Context, userID string) (*Subscription, error) {
	subscription, err := service.repository.FindByUserID(context, userID)
	if err != nil {
		return nil, err
	}
	if !subscription.IsActive(service.now()) || subscription.CancelAtPeriodEnd {
		return nil, apperr.Unprocessable("No active subscription to cancel")
	}

	providerSub, err := service.provider.CancelSubscription(context, subscription.StripeSubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("subscription_service_cancel_failed: %w", err)
	}

	subscription.CancelAtPeriodEnd = providerSub.CancelAtPeriodEnd
	subscription.Status = mapProviderStatus(providerSub.Status)
	if err := service.repository.Update(context, subscription); err != nil {
		return nil, fmt.Errorf("subscription_service_update_failed: %w", err)
	}

	service.logger.Info("subscription_cancel_requested",
		slog.String("subscription_id", subscription.ID),
		slog.String("user_id", userID),
	)
	return subscription, nil
}

// Mine returns the caller's subscription.
func (service *Service) Mine(context context.Context, userID string) (*Subscription, error) {
	return service.repository.FindByUserID(context, userID)
}

// HasActive reports whether the user currently holds membership
// benefits. The review eligibility check uses this.
func (service *Service) HasActive(context context.Context, userID string) (bool, error) {
	return service.repository.HasActive(context, userID)
}

// List returns a filtered page of subscriptions.
func (service *Service) List(context context.Context, q query.Query) ([]*Subscription, int, error) {
	return service.repository.List(context, q)
}

// AdminUpsertInput is the manual create/update payload for staff.
// Support uses it to grant comped memberships or fix drifted mirrors.
type AdminUpsertInput struct {
	UserID             string    `json:"userId"`
	PlanID             string    `json:"planId"`
	Status             string    `json:"status"`
	CurrentPeriodStart time.Time `json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time `json:"currentPeriodEnd"`
	CancelAtPeriodEnd  bool      `json:"cancelAtPeriodEnd"`
}

func (input AdminUpsertInput) validatePeriod() error {
	if !input.CurrentPeriodEnd.After(input.CurrentPeriodStart) {
		return apperr.ValidationError("Period end must be after period start")
	}
	return nil
}

// AdminCreate manually creates a subscription mirror row.
func (service *Service) AdminCreate(context context.Context, input AdminUpsertInput) (*Subscription, error) {
	if err := (&validate.Validator{}).
		Required("userId", input.UserID).
		Required("planId", input.PlanID).
		OneOf("status", input.Status, StatusActive, StatusCanceled, StatusExpired).
		Err(); err != nil {
		return nil, err
	}
	if err := input.validatePeriod(); err != nil {
		return nil, err
	}

	if _, err := service.users.FindByID(context, input.UserID); err != nil {
		return nil, err
	}
	selected, err := service.plans.Get(context, input.PlanID)
	if err != nil {
		return nil, err
	}

	subscription := &Subscription{
		ID:                 uuidv7.New(),
		UserID:             input.UserID,
		PlanID:             selected.ID,
		Status:             input.Status,
		CurrentPeriodStart: input.CurrentPeriodStart,
		CurrentPeriodEnd:   input.CurrentPeriodEnd,
		CancelAtPeriodEnd:  input.CancelAtPeriodEnd,
	}
	if err := service.repository.Create(context, subscription); err != nil {
		return nil, fmt.Errorf("subscription_service_create_failed: %w", err)
	}

	if err := service.users.SetPremium(context, subscription.UserID, subscription.IsActive(service.now())); err != nil {
		return nil, fmt.Errorf("subscription_service_premium_sync_failed: %w", err)
	}
	return subscription, nil
}

// AdminUpdate manually rewrites a subscription's status and period.
func (service *Service) AdminUpdate(context context.Context, id string, input AdminUpsertInput) (*Subscription, error) {
	if err := (&validate.Validator{}).
		OneOf("status", input.Status, StatusActive, StatusCanceled, StatusExpired).
		Err(); err != nil {
		return nil, err
	}
	if err := input.validatePeriod(); err != nil {
		return nil, err
	}

	subscription, err := service.repository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	subscription.Status = input.Status
	subscription.CurrentPeriodStart = input.CurrentPeriodStart
	subscription.CurrentPeriodEnd = input.CurrentPeriodEnd
	subscription.CancelAtPeriodEnd = input.CancelAtPeriodEnd
	if err := service.repository.Update(context, subscription); err != nil {
		return nil, fmt.Errorf("subscription_service_update_failed: %w", err)
	}

	if err := service.users.SetPremium(context, subscription.UserID, subscription.IsActive(service.now())); err != nil {
		return nil, fmt.Errorf("subscription_service_premium_sync_failed: %w", err)
	}
	return subscription, nil
}

// AdminDelete removes a subscription mirror row and drops the user's
// premium flag.
func (service *Service) AdminDelete(context context.Context, id string) error {
	subscription, err := service.repository.FindByID(context, id)
	if err != nil {
		return err
	}
	if err := service.repository.Delete(context, id); err != nil {
		return err
	}
	return service.users.SetPremium(context, subscription.UserID, false)
}
