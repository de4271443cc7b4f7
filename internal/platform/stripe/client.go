// Copyright (c) 2026 ClarifyX. All rights reserved.

/*
Package stripe implements a minimal client for the Stripe REST API.

Only the surface the platform actually needs is covered: Checkout
Sessions for one-time asset purchases and plan subscriptions, the
Subscriptions resource for cancellation and status sync, and webhook
signature verification.

The Stripe v1 API is form-encoded over HTTPS with the secret key as
HTTP Basic username, so a thin [net/http] client is sufficient. Every
call takes a [context.Context] and honors its deadline.
*/
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.stripe.com/v1"

// Client talks to the Stripe REST API.
type Client struct {
	secretKey     string
	webhookSecret string
	baseURL       string
	httpClient    *http.Client
}

// NewClient constructs a Client for the given API credentials.
func NewClient(secretKey, webhookSecret string) *Client {
	return &Client{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		baseURL:       defaultBaseURL,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}
}

// WithBaseURL overrides the API endpoint. Used by tests to point the
// client at a local httptest server.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = strings.TrimRight(base, "/")
	return c
}

// IsConfigured reports whether the client holds usable credentials.
func (c *Client) IsConfigured() bool {
	return c.secretKey != "" && c.webhookSecret != ""
}

// apiError is the error payload Stripe returns on 4xx/5xx responses.
type apiError struct {
	Err struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do performs one form-encoded API call and returns the raw response body.
func (c *Client) do(ctx context.Context, method, path string, form url.Values) ([]byte, error) {
	endpoint := c.baseURL + path

	var reqBody io.Reader
	if method == http.MethodGet {
		if len(form) > 0 {
			endpoint += "?" + form.Encode()
		}
	} else if len(form) > 0 {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("stripe: build request: %w", err)
	}
	req.SetBasicAuth(c.secretKey, "")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stripe: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("stripe: read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Err.Message != "" {
			return nil, fmt.Errorf("stripe: %s %s: %s (%s)", method, path, apiErr.Err.Message, apiErr.Err.Code)
		}
		return nil, fmt.Errorf("stripe: %s %s: unexpected status %s", method, path, resp.Status)
	}

	return body, nil
}

// # Checkout Sessions

// CheckoutSession is the subset of the Checkout Session resource the
// platform consumes.
type CheckoutSession struct {
	ID            string            `json:"id"`
	Mode          string            `json:"mode"`
	URL           string            `json:"url"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	PaymentIntent string            `json:"payment_intent"`
	Customer      string            `json:"customer"`
	Subscription  string            `json:"subscription"`
	AmountTotal   int64             `json:"amount_total"`
	Metadata      map[string]string `json:"metadata"`
}

// CheckoutParams describes a new Checkout Session.
type CheckoutParams struct {
	// Mode is "payment" for one-time purchases or "subscription".
	Mode       string
	SuccessURL string
	CancelURL  string
	// CustomerEmail pre-fills the payment form.
	CustomerEmail string
	// PriceID references a pre-configured Stripe Price (subscription mode).
	PriceID string
	// Inline price data (payment mode). AmountCents is in the smallest
	// currency unit.
	Currency    string
	ProductName string
	AmountCents int64
	// Metadata is echoed back on the session and its webhook events.
	Metadata map[string]string
}

// CreateCheckoutSession creates a hosted Checkout Session.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", params.Mode)
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	form.Set("line_items[0][quantity]", "1")

	if params.CustomerEmail != "" {
		form.Set("customer_email", params.CustomerEmail)
	}

	if params.PriceID != "" {
		form.Set("line_items[0][price]", params.PriceID)
	} else {
		form.Set("line_items[0][price_data][currency]", params.Currency)
		form.Set("line_items[0][price_data][product_data][name]", params.ProductName)
		form.Set("line_items[0][price_data][unit_amount]", fmt.Sprintf("%d", params.AmountCents))
	}

	for key, value := range params.Metadata {
		form.Set("metadata["+key+"]", value)
	}

	body, err := c.do(ctx, http.MethodPost, "/checkout/sessions", form)
	if err != nil {
		return nil, err
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("stripe: parse checkout session: %w", err)
	}
	return &session, nil
}

// GetCheckoutSession retrieves a Checkout Session by ID.
func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	body, err := c.do(ctx, http.MethodGet, "/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, err
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("stripe: parse checkout session: %w", err)
	}
	return &session, nil
}

// # Subscriptions

// Subscription is the subset of the Subscription resource the platform
// consumes. Period bounds are Unix timestamps.
type Subscription struct {
	ID                 string `json:"id"`
	Status             string `json:"status"`
	Customer           string `json:"customer"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
}

// GetSubscription retrieves a subscription by ID.
func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	body, err := c.do(ctx, http.MethodGet, "/subscriptions/"+url.PathEscape(subscriptionID), nil)
	if err != nil {
		return nil, err
	}

	var sub Subscription
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, fmt.Errorf("stripe: parse subscription: %w", err)
	}
	return &sub, nil
}

// CancelSubscription flags a subscription to end at the current period
// boundary. The subscription stays active until then.
func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	form := url.Values{}
	form.Set("cancel_at_period_end", "true")

	body, err := c.do(ctx, http.MethodPost, "/subscriptions/"+url.PathEscape(subscriptionID), form)
	if err != nil {
		return nil, err
	}

	var sub Subscription
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, fmt.Errorf("stripe: parse subscription: %w", err)
	}
	return &sub, nil
}
