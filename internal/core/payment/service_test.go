package payment_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarifyx/clarifyx/internal/auth"
	"github.com/clarifyx/clarifyx/internal/core/asset"
	"github.com/clarifyx/clarifyx/internal/core/earning"
	"github.com/clarifyx/clarifyx/internal/core/payment"
	"github.com/clarifyx/clarifyx/internal/notify"
	"github.com/clarifyx/clarifyx/internal/platform/apperr"
	"github.com/clarifyx/clarifyx/internal/platform/stripe"
	"github.com/clarifyx/clarifyx/pkg/query"
)

type fakePaymentRepo struct {
	payments map[string]*payment.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[string]*payment.Payment)}
}

func (r *fakePaymentRepo) FindByID(_ context.Context, id string) (*payment.Payment, error) {
	if p, ok := r.payments[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, apperr.NotFound("Payment")
}

func (r *fakePaymentRepo) FindBySessionID(_ context.Context, sessionID string) (*payment.Payment, error) {
	for _, p := range r.payments {
		if p.StripeSessionID == sessionID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("Payment")
}

func (r *fakePaymentRepo) List(_ context.Context, _ query.Query) ([]*payment.Payment, int, error) {
	out := make([]*payment.Payment, 0, len(r.payments))
	for _, p := range r.payments {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *fakePaymentRepo) Create(_ context.Context, p *payment.Payment) error {
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	copied := *p
	r.payments[p.ID] = &copied
	return nil
}

func (r *fakePaymentRepo) MarkCompleted(_ context.Context, id, paymentIntentID string) (bool, error) {
	p, ok := r.payments[id]
	if !ok || p.Status == payment.StatusCompleted {
		return false, nil
	}
	p.Status = payment.StatusCompleted
	p.StripePaymentIntentID = paymentIntentID
	return true, nil
}

func (r *fakePaymentRepo) MarkFailed(_ context.Context, id string) error {
	if p, ok := r.payments[id]; ok && p.Status == payment.StatusPending {
		p.Status = payment.StatusFailed
	}
	return nil
}

func (r *fakePaymentRepo) HasPurchased(_ context.Context, buyerID, assetID string) (bool, error) {
	for _, p := range r.payments {
		if p.BuyerID == buyerID && p.AssetID == assetID && p.Status == payment.StatusCompleted {
			return true, nil
		}
	}
	return false, nil
}

type fakeCatalog struct {
	assets map[string]*asset.Asset
}

func (c *fakeCatalog) Get(_ context.Context, idOrSlug string) (*asset.Asset, error) {
	if a, ok := c.assets[idOrSlug]; ok {
		return a, nil
	}
	return nil, apperr.NotFound("Asset")
}

type fakeDirectory struct {
	users map[string]*auth.User
}

func (d *fakeDirectory) FindByID(_ context.Context, id string) (*auth.User, error) {
	if u, ok := d.users[id]; ok {
		return u, nil
	}
	return nil, apperr.NotFound("User")
}

// fakeRecorder mimics the ledger's idempotency: one credit per payment.
type fakeRecorder struct {
	sales map[string]earning.SaleInput
	calls int
}

func (r *fakeRecorder) RecordSale(_ context.Context, input earning.SaleInput) (*earning.Earning, error) {
	r.calls++
	if _, ok := r.sales[input.PaymentID]; !ok {
		r.sales[input.PaymentID] = input
	}
	return &earning.Earning{PaymentID: input.PaymentID}, nil
}

// fakeProvider records checkout parameters and serves canned sessions.
type fakeProvider struct {
	created  []stripe.CheckoutParams
	sessions map[string]*stripe.CheckoutSession
}

func (p *fakeProvider) CreateCheckoutSession(_ context.Context, params stripe.CheckoutParams) (*stripe.CheckoutSession, error) {
	p.created = append(p.created, params)
	session := &stripe.CheckoutSession{
		ID:       "cs_test_" + params.Metadata["payment_id"],
		URL:      "https://checkout.example.test/" + params.Metadata["payment_id"],
		Status:   "open",
		Metadata: params.Metadata,
	}
	p.sessions[session.ID] = session
	return session, nil
}

func (p *fakeProvider) GetCheckoutSession(_ context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	if session, ok := p.sessions[sessionID]; ok {
		return session, nil
	}
	return nil, apperr.NotFound("Session")
}

type paymentFixture struct {
	service  *payment.Service
	repo     *fakePaymentRepo
	provider *fakeProvider
	recorder *fakeRecorder
}

func newPaymentFixture() *paymentFixture {
	repo := newFakePaymentRepo()
	provider := &fakeProvider{sessions: make(map[string]*stripe.CheckoutSession)}
	recorder := &fakeRecorder{sales: make(map[string]earning.SaleInput)}

	catalog := &fakeCatalog{assets: map[string]*asset.Asset{
		"asset-paid": {
			ID:       "asset-paid",
			AuthorID: "user-author",
			Title:    "Mesh Gradient Pack",
			Slug:     "mesh-gradient-pack",
			Price:    100.00,
			Status:   asset.StatusApproved,
		},
		"asset-free": {
			ID:       "asset-free",
			AuthorID: "user-author",
			Title:    "Free Sample Icons",
			Price:    0,
			Status:   asset.StatusApproved,
		},
		"asset-pending": {
			ID:       "asset-pending",
			AuthorID: "user-author",
			Title:    "Unreviewed Pack",
			Price:    25.00,
			Status:   asset.StatusPendingReview,
		},
	}}

	directory := &fakeDirectory{users: map[string]*auth.User{
		"user-standard": {ID: "user-standard", Username: "casey", Email: "casey@example.com"},
		"user-premium":  {ID: "user-premium", Username: "river", Email: "river@example.com", IsPremium: true},
		"user-author":   {ID: "user-author", Username: "quinn", Email: "quinn@example.com"},
	}}

	service := payment.NewService(
		repo, catalog, directory, recorder, provider,
		&notify.NoopMailer{}, "https://clarifyx.test",
		slog.New(slog.DiscardHandler),
	)
	return &paymentFixture{service: service, repo: repo, provider: provider, recorder: recorder}
}

func TestCheckout(t *testing.T) {
	fixture := newPaymentFixture()
	ctx := context.Background()

	result, err := fixture.service.Checkout(ctx, "user-standard", "asset-paid")
	require.NoError(t, err)
	assert.NotEmpty(t, result.PaymentID)
	assert.Contains(t, result.CheckoutURL, "checkout.example.test")

	require.Len(t, fixture.provider.created, 1)
	params := fixture.provider.created[0]
	assert.Equal(t, "payment", params.Mode)
	assert.Equal(t, int64(10000), params.AmountCents)
	assert.Equal(t, "casey@example.com", params.CustomerEmail)
	assert.Equal(t, result.PaymentID, params.Metadata["payment_id"])

	stored, err := fixture.repo.FindByID(ctx, result.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, stored.Status)
	assert.Equal(t, 100.00, stored.Amount)
}

func TestCheckout_PremiumDiscount(t *testing.T) {
	fixture := newPaymentFixture()

	result, err := fixture.service.Checkout(context.Background(), "user-premium", "asset-paid")
	require.NoError(t, err)

	require.Len(t, fixture.provider.created, 1)
	assert.Equal(t, int64(7000), fixture.provider.created[0].AmountCents)

	stored, err := fixture.repo.FindByID(context.Background(), result.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, 70.00, stored.Amount)
}

func TestCheckout_Rejections(t *testing.T) {
	fixture := newPaymentFixture()
	ctx := context.Background()

	tests := []struct {
		name     string
		buyerID  string
		assetID  string
		wantCode string
	}{
		{"free asset", "user-standard", "asset-free", "VALIDATION_ERROR"},
		{"unreviewed asset", "user-standard", "asset-pending", "NOT_FOUND"},
		{"own asset", "user-author", "asset-paid", "FORBIDDEN"},
		{"unknown asset", "user-standard", "asset-missing", "NOT_FOUND"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := fixture.service.Checkout(ctx, test.buyerID, test.assetID)
			require.Error(t, err)
			assert.Equal(t, test.wantCode, apperr.As(err).Code)
		})
	}

	assert.Empty(t, fixture.provider.created)
}

func TestCheckout_AlreadyOwned(t *testing.T) {
	fixture := newPaymentFixture()
	ctx := context.Background()

	result, err := fixture.service.Checkout(ctx, "user-standard", "asset-paid")
	require.NoError(t, err)
	_, err = fixture.repo.MarkCompleted(ctx, result.PaymentID, "pi_1")
	require.NoError(t, err)

	_, err = fixture.service.Checkout(ctx, "user-standard", "asset-paid")
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)
}

func TestVerifySession(t *testing.T) {
	fixture := newPaymentFixture()
	ctx := context.Background()

	result, err := fixture.service.Checkout(ctx, "user-premium", "asset-paid")
	require.NoError(t, err)
	sessionID := "cs_test_" + result.PaymentID

	// Another account cannot verify someone else's session.
	_, err = fixture.service.VerifySession(ctx, sessionID, "user-standard")
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)

	// Not paid yet: stays pending, nothing credited.
	verified, err := fixture.service.VerifySession(ctx, sessionID, "user-premium")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, verified.Status)
	assert.Empty(t, fixture.recorder.sales)

	// Provider reports payment: completes and credits the sale once.
	fixture.provider.sessions[sessionID].PaymentStatus = "paid"
	fixture.provider.sessions[sessionID].PaymentIntent = "pi_42"

	verified, err = fixture.service.VerifySession(ctx, sessionID, "user-premium")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCompleted, verified.Status)

	sale, ok := fixture.recorder.sales[result.PaymentID]
	require.True(t, ok)
	assert.Equal(t, "user-author", sale.AuthorID)
	assert.Equal(t, "user-premium", sale.BuyerID)
	assert.True(t, sale.IsPremiumBuyer)
	// The ledger splits the listed price; the checkout discount is separate.
	assert.Equal(t, 100.00, sale.AssetPrice)
}

func TestWebhookAndVerifyConverge(t *testing.T) {
	fixture := newPaymentFixture()
	ctx := context.Background()

	result, err := fixture.service.Checkout(ctx, "user-standard", "asset-paid")
	require.NoError(t, err)
	sessionID := "cs_test_" + result.PaymentID

	session := fixture.provider.sessions[sessionID]
	session.PaymentStatus = "paid"
	session.PaymentIntent = "pi_77"

	require.NoError(t, fixture.service.HandleCheckoutCompleted(ctx, session))
	require.NoError(t, fixture.service.HandleCheckoutCompleted(ctx, session))
	_, err = fixture.service.VerifySession(ctx, sessionID, "user-standard")
	require.NoError(t, err)

	// Replays re-run the recorder but the ledger holds a single credit.
	assert.Equal(t, 3, fixture.recorder.calls)
	assert.Len(t, fixture.recorder.sales, 1)

	stored, err := fixture.repo.FindByID(ctx, result.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCompleted, stored.Status)
	assert.Equal(t, "pi_77", stored.StripePaymentIntentID)
}

func TestHandleCheckoutExpired(t *testing.T) {
	fixture := newPaymentFixture()
	ctx := context.Background()

	result, err := fixture.service.Checkout(ctx, "user-standard", "asset-paid")
	require.NoError(t, err)
	sessionID := "cs_test_" + result.PaymentID

	require.NoError(t, fixture.service.HandleCheckoutExpired(ctx, fixture.provider.sessions[sessionID]))

	stored, err := fixture.repo.FindByID(ctx, result.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusFailed, stored.Status)

	// Expiry after completion is ignored.
	second, err := fixture.service.Checkout(ctx, "user-premium", "asset-paid")
	require.NoError(t, err)
	secondSession := fixture.provider.sessions["cs_test_"+second.PaymentID]
	secondSession.PaymentStatus = "paid"
	require.NoError(t, fixture.service.HandleCheckoutCompleted(ctx, secondSession))
	require.NoError(t, fixture.service.HandleCheckoutExpired(ctx, secondSession))

	stored, err = fixture.repo.FindByID(ctx, second.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCompleted, stored.Status)
}
