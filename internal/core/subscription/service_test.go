package subscription_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarifyx/clarifyx/internal/auth"
	"github.com/clarifyx/clarifyx/internal/core/plan"
	"github.com/clarifyx/clarifyx/internal/core/subscription"
	"github.com/clarifyx/clarifyx/internal/notify"
	"github.com/clarifyx/clarifyx/internal/platform/apperr"
	"github.com/clarifyx/clarifyx/internal/platform/stripe"
	"github.com/clarifyx/clarifyx/pkg/query"
)

var fixedNow = time.Date(2025, time.June, 18, 14, 30, 0, 0, time.UTC)

type fakeSubscriptionRepo struct {
	subscriptions map[string]*subscription.Subscription
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subscriptions: make(map[string]*subscription.Subscription)}
}

func (r *fakeSubscriptionRepo) FindByID(_ context.Context, id string) (*subscription.Subscription, error) {
	if s, ok := r.subscriptions[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, apperr.NotFound("Subscription")
}

func (r *fakeSubscriptionRepo) FindByUserID(_ context.Context, userID string) (*subscription.Subscription, error) {
	var latest *subscription.Subscription
	for _, s := range r.subscriptions {
		if s.UserID != userID {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, apperr.NotFound("Subscription")
	}
	copied := *latest
	return &copied, nil
}

func (r *fakeSubscriptionRepo) FindByProviderID(_ context.Context, providerID string) (*subscription.Subscription, error) {
	for _, s := range r.subscriptions {
		if s.StripeSubscriptionID == providerID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("Subscription")
}

func (r *fakeSubscriptionRepo) HasActive(_ context.Context, userID string) (bool, error) {
	for _, s := range r.subscriptions {
		if s.UserID == userID && s.IsActive(fixedNow) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeSubscriptionRepo) List(_ context.Context, _ query.Query) ([]*subscription.Subscription, int, error) {
	out := make([]*subscription.Subscription, 0, len(r.subscriptions))
	for _, s := range r.subscriptions {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (r *fakeSubscriptionRepo) Create(_ context.Context, s *subscription.Subscription) error {
	s.CreatedAt = fixedNow
	s.UpdatedAt = fixedNow
	copied := *s
	r.subscriptions[s.ID] = &copied
	return nil
}

func (r *fakeSubscriptionRepo) Update(_ context.Context, s *subscription.Subscription) error {
	stored, ok := r.subscriptions[s.ID]
	if !ok {
		return apperr.NotFound("Subscription")
	}
	stored.Status = s.Status
	stored.CurrentPeriodStart = s.CurrentPeriodStart
	stored.CurrentPeriodEnd = s.CurrentPeriodEnd
	stored.CancelAtPeriodEnd = s.CancelAtPeriodEnd
	return nil
}

func (r *fakeSubscriptionRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.subscriptions[id]; !ok {
		return apperr.NotFound("Subscription")
	}
	delete(r.subscriptions, id)
	return nil
}

type fakePlanCatalog struct {
	plans map[string]*plan.Plan
}

func (c *fakePlanCatalog) Get(_ context.Context, idOrSlug string) (*plan.Plan, error) {
	if p, ok := c.plans[idOrSlug]; ok {
		return p, nil
	}
	return nil, apperr.NotFound("Plan")
}

type fakeDirectory struct {
	users   map[string]*auth.User
	premium map[string]bool
}

func (d *fakeDirectory) FindByID(_ context.Context, id string) (*auth.User, error) {
	if u, ok := d.users[id]; ok {
		return u, nil
	}
	return nil, apperr.NotFound("User")
}

func (d *fakeDirectory) SetPremium(_ context.Context, userID string, premium bool) error {
	d.premium[userID] = premium
	return nil
}

// fakeRevenue mimics the ledger's idempotency: one credit per provider
// subscription.
type fakeRevenue struct {
	amounts map[string]float64
	calls   int
}

func (r *fakeRevenue) RecordSubscriptionRevenue(_ context.Context, subscriptionID, _, _ string, amount float64) error {
	r.calls++
	if _, ok := r.amounts[subscriptionID]; !ok {
		r.amounts[subscriptionID] = amount
	}
	return nil
}

type fakeProvider struct {
	created       []stripe.CheckoutParams
	sessions      map[string]*stripe.CheckoutSession
	subscriptions map[string]*stripe.Subscription
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		sessions:      make(map[string]*stripe.CheckoutSession),
		subscriptions: make(map[string]*stripe.Subscription),
	}
}

func (p *fakeProvider) CreateCheckoutSession(_ context.Context, params stripe.CheckoutParams) (*stripe.CheckoutSession, error) {
	p.created = append(p.created, params)
	session := &stripe.CheckoutSession{
		ID:       "cs_sub_" + params.Metadata["user_id"],
		URL:      "https://checkout.example.test/" + params.Metadata["user_id"],
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

func (p *fakeProvider) GetSubscription(_ context.Context, subscriptionID string) (*stripe.Subscription, error) {
	if sub, ok := p.subscriptions[subscriptionID]; ok {
		return sub, nil
	}
	return nil, apperr.NotFound("Subscription")
}

func (p *fakeProvider) CancelSubscription(_ context.Context, subscriptionID string) (*stripe.Subscription, error) {
	sub, ok := p.subscriptions[subscriptionID]
	if !ok {
		return nil, apperr.NotFound("Subscription")
	}
	sub.CancelAtPeriodEnd = true
	return sub, nil
}

type subscriptionFixture struct {
	service   *subscription.Service
	repo      *fakeSubscriptionRepo
	provider  *fakeProvider
	revenue   *fakeRevenue
	directory *fakeDirectory
}

func newSubscriptionFixture() *subscriptionFixture {
	repo := newFakeSubscriptionRepo()
	provider := newFakeProvider()
	revenue := &fakeRevenue{amounts: make(map[string]float64)}

	catalog := &fakePlanCatalog{plans: map[string]*plan.Plan{
		"plan-monthly": {
			ID:            "plan-monthly",
			Name:          "Pro",
			Price:         9.99,
			Interval:      plan.IntervalMonthly,
			StripePriceID: "price_pro_monthly",
			IsActive:      true,
		},
		"plan-retired": {
			ID:       "plan-retired",
			Name:     "Legacy",
			Price:    4.99,
			Interval: plan.IntervalMonthly,
			IsActive: false,
		},
		"plan-manual": {
			ID:       "plan-manual",
			Name:     "Partner",
			Price:    0,
			Interval: plan.IntervalYearly,
			IsActive: true,
		},
	}}

	directory := &fakeDirectory{
		users: map[string]*auth.User{
			"user-1": {ID: "user-1", Username: "casey", Email: "casey@example.com"},
			"user-2": {ID: "user-2", Username: "river", Email: "river@example.com"},
		},
		premium: make(map[string]bool),
	}

	service := subscription.NewService(
		repo, catalog, directory, revenue, provider,
		&notify.NoopMailer{}, "https://clarifyx.test",
		slog.New(slog.DiscardHandler),
	).WithClock(func() time.Time { return fixedNow })

	return &subscriptionFixture{
		service:   service,
		repo:      repo,
		provider:  provider,
		revenue:   revenue,
		directory: directory,
	}
}

// completeCheckout drives a user through checkout and provider
// confirmation, returning the session.
func (fixture *subscriptionFixture) completeCheckout(t *testing.T, userID string) *stripe.CheckoutSession {
	t.Helper()

	_, err := fixture.service.Checkout(context.Background(), userID, "plan-monthly")
	require.NoError(t, err)

	session := fixture.provider.sessions["cs_sub_"+userID]
	session.PaymentStatus = "paid"
	session.Subscription = "sub_" + userID
	fixture.provider.subscriptions[session.Subscription] = &stripe.Subscription{
		ID:                 session.Subscription,
		Status:             "active",
		Customer:           "cus_" + userID,
		CurrentPeriodStart: fixedNow.Unix(),
		CurrentPeriodEnd:   fixedNow.AddDate(0, 1, 0).Unix(),
	}
	return session
}

func TestCheckout(t *testing.T) {
	fixture := newSubscriptionFixture()

	result, err := fixture.service.Checkout(context.Background(), "user-1", "plan-monthly")
	require.NoError(t, err)
	assert.Contains(t, result.CheckoutURL, "checkout.example.test")

	require.Len(t, fixture.provider.created, 1)
	params := fixture.provider.created[0]
	assert.Equal(t, "subscription", params.Mode)
	assert.Equal(t, "price_pro_monthly", params.PriceID)
	assert.Equal(t, "user-1", params.Metadata["user_id"])
}

func TestCheckout_Rejections(t *testing.T) {
	fixture := newSubscriptionFixture()
	ctx := context.Background()

	tests := []struct {
		name     string
		planID   string
		wantCode string
	}{
		{"retired plan", "plan-retired", "NOT_FOUND"},
		{"plan without provider price", "plan-manual", "UNPROCESSABLE"},
		{"unknown plan", "plan-missing", "NOT_FOUND"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := fixture.service.Checkout(ctx, "user-1", test.planID)
			require.Error(t, err)
			assert.Equal(t, test.wantCode, apperr.As(err).Code)
		})
	}
}

func TestCheckout_OneSubscriptionPerUser(t *testing.T) {
	fixture := newSubscriptionFixture()
	ctx := context.Background()

	session := fixture.completeCheckout(t, "user-1")
	require.NoError(t, fixture.service.HandleCheckoutCompleted(ctx, session))

	_, err := fixture.service.Checkout(ctx, "user-1", "plan-monthly")
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)
}

func TestVerifyAndWebhookConverge(t *testing.T) {
	fixture := newSubscriptionFixture()
	ctx := context.Background()

	session := fixture.completeCheckout(t, "user-1")

	// Another account cannot verify someone else's session.
	_, err := fixture.service.VerifySession(ctx, session.ID, "user-2")
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)

	verified, err := fixture.service.VerifySession(ctx, session.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, verified.Status)
	assert.True(t, fixture.directory.premium["user-1"])

	// The webhook replays the same confirmation; the mirror stays a
	// single row and the ledger a single credit.
	require.NoError(t, fixture.service.HandleCheckoutCompleted(ctx, session))
	require.NoError(t, fixture.service.HandleCheckoutCompleted(ctx, session))

	assert.Len(t, fixture.repo.subscriptions, 1)
	assert.Len(t, fixture.revenue.amounts, 1)
	assert.Equal(t, 9.99, fixture.revenue.amounts["sub_user-1"])
}

func TestLifecycleEventExpiresSubscription(t *testing.T) {
	fixture := newSubscriptionFixture()
	ctx := context.Background()

	session := fixture.completeCheckout(t, "user-1")
	require.NoError(t, fixture.service.HandleCheckoutCompleted(ctx, session))
	require.True(t, fixture.directory.premium["user-1"])

	fixture.provider.subscriptions["sub_user-1"].Status = "unpaid"
	require.NoError(t, fixture.service.HandleSubscriptionEvent(ctx, "sub_user-1"))

	stored, err := fixture.service.Mine(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusExpired, stored.Status)
	assert.False(t, fixture.directory.premium["user-1"])

	// Events for subscriptions we never mirrored are ignored.
	require.NoError(t, fixture.service.HandleSubscriptionEvent(ctx, "sub_unknown"))
}

func TestCancel(t *testing.T) {
	fixture := newSubscriptionFixture()
	ctx := context.Background()

	session := fixture.completeCheckout(t, "user-1")
	require.NoError(t, fixture.service.HandleCheckoutCompleted(ctx, session))

	canceled, err := fixture.service.Cancel(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, canceled.CancelAtPeriodEnd)
	// Benefits persist until the period boundary.
	assert.Equal(t, subscription.StatusActive, canceled.Status)

	_, err = fixture.service.Cancel(ctx, "user-1")
	require.Error(t, err)
	assert.Equal(t, "UNPROCESSABLE", apperr.As(err).Code)

	_, err = fixture.service.Cancel(ctx, "user-2")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}

func TestAdminUpsert(t *testing.T) {
	fixture := newSubscriptionFixture()
	ctx := context.Background()

	created, err := fixture.service.AdminCreate(ctx, subscription.AdminUpsertInput{
		UserID:             "user-2",
		PlanID:             "plan-manual",
		Status:             subscription.StatusActive,
		CurrentPeriodStart: fixedNow,
		CurrentPeriodEnd:   fixedNow.AddDate(1, 0, 0),
	})
	require.NoError(t, err)
	assert.True(t, fixture.directory.premium["user-2"])

	// Inverted period range is rejected.
	_, err = fixture.service.AdminCreate(ctx, subscription.AdminUpsertInput{
		UserID:             "user-2",
		PlanID:             "plan-manual",
		Status:             subscription.StatusActive,
		CurrentPeriodStart: fixedNow,
		CurrentPeriodEnd:   fixedNow.AddDate(0, 0, -1),
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)

	updated, err := fixture.service.AdminUpdate(ctx, created.ID, subscription.AdminUpsertInput{
		Status:             subscription.StatusExpired,
		CurrentPeriodStart: fixedNow,
		CurrentPeriodEnd:   fixedNow.AddDate(1, 0, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusExpired, updated.Status)
	assert.False(t, fixture.directory.premium["user-2"])

	require.NoError(t, fixture.service.AdminDelete(ctx, created.ID))
	err = fixture.service.AdminDelete(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}
