// Copyright (c) 2026 ClarifyX. All rights reserved.

package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/clarifyx/clarifyx/internal/platform/constants"
	"github.com/clarifyx/clarifyx/internal/platform/stripe"
)

// maxWebhookBody caps the payload read from the provider.
const maxWebhookBody = 1 << 20

// PaymentEvents receives one-off purchase lifecycle events.
// Satisfied by the payment service.
type PaymentEvents interface {
	HandleCheckoutCompleted(context context.Context, session *stripe.CheckoutSession) error
	HandleCheckoutExpired(context context.Context, session *stripe.CheckoutSession) error
}

// SubscriptionEvents receives subscription lifecycle events.
// Satisfied by the subscription service.
type SubscriptionEvents interface {
	HandleCheckoutCompleted(context context.Context, session *stripe.CheckoutSession) error
	HandleSubscriptionEvent(context context.Context, providerSubscriptionID string) error
}

// WebhookHandler verifies and dispatches payment provider webhooks.
type WebhookHandler struct {
	verifier      *stripe.Client
	payments      PaymentEvents
	subscriptions SubscriptionEvents
	logger        *slog.Logger
}

// NewWebhookHandler constructs a new [WebhookHandler].
func NewWebhookHandler(verifier *stripe.Client, payments PaymentEvents, subscriptions SubscriptionEvents, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier:      verifier,
		payments:      payments,
		subscriptions: subscriptions,
		logger:        logger,
	}
}

/*
HandleStripe ingests provider webhook deliveries.

The raw body is read before any parsing because the signature is an
HMAC over the exact bytes sent. Unknown event types acknowledge with
200 so the provider does not retry them; handler failures return 500
so the delivery is retried.

POST /webhooks/stripe
*/
func (handler *WebhookHandler) HandleStripe(writer http.ResponseWriter, request *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(request.Body, maxWebhookBody))
	if err != nil {
		http.Error(writer, "unreadable payload", http.StatusBadRequest)
		return
	}

	event, err := handler.verifier.ConstructEvent(payload, request.Header.Get("Stripe-Signature"), constants.StripeSignatureTolerance)
	if err != nil {
		handler.logger.Warn("webhook_signature_rejected", slog.String("error", err.Error()))
		http.Error(writer, "invalid signature", http.StatusBadRequest)
		return
	}

	if err := handler.dispatch(request, event); err != nil {
		handler.logger.Error("webhook_handling_failed",
			slog.String("event_id", event.ID),
			slog.String("event_type", event.Type),
			slog.Any("error", err))
		http.Error(writer, "event handling failed", http.StatusInternalServerError)
		return
	}

	writer.WriteHeader(http.StatusOK)
}

func (handler *WebhookHandler) dispatch(request *http.Request, event *stripe.Event) error {
	context := request.Context()

	switch event.Type {
	case "checkout.session.completed":
		session, err := decodeSession(event)
		if err != nil {
			return err
		}
		if session.Mode == "subscription" || session.Subscription != "" {
			return handler.subscriptions.HandleCheckoutCompleted(context, session)
		}
		return handler.payments.HandleCheckoutCompleted(context, session)

	case "checkout.session.expired":
		session, err := decodeSession(event)
		if err != nil {
			return err
		}
		if session.Mode == "subscription" {
			return nil
		}
		return handler.payments.HandleCheckoutExpired(context, session)

	case "customer.subscription.updated", "customer.subscription.deleted":
		var subscription struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(event.Data.Object, &subscription); err != nil {
			return err
		}
		return handler.subscriptions.HandleSubscriptionEvent(context, subscription.ID)
	}

	handler.logger.Debug("webhook_event_ignored",
		slog.String("event_id", event.ID),
		slog.String("event_type", event.Type))
	return nil
}

func decodeSession(event *stripe.Event) (*stripe.CheckoutSession, error) {
	session := &stripe.CheckoutSession{}
	if err := json.Unmarshal(event.Data.Object, session); err != nil {
		return nil, err
	}
	return session, nil
}
