package asset_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarifyx/clarifyx/internal/core/asset"
	"github.com/clarifyx/clarifyx/internal/platform/apperr"
	"github.com/clarifyx/clarifyx/pkg/query"
)

type fakeAssetRepo struct {
	assets     map[string]*asset.Asset
	categories map[string]bool
}

func newFakeAssetRepo() *fakeAssetRepo {
	return &fakeAssetRepo{
		assets:     map[string]*asset.Asset{},
		categories: map[string]bool{"cat-1": true, "cat-2": true},
	}
}

func (r *fakeAssetRepo) FindByID(_ context.Context, id string) (*asset.Asset, error) {
	if a, ok := r.assets[id]; ok {
		return a, nil
	}
	return nil, apperr.NotFound("Asset")
}

func (r *fakeAssetRepo) FindBySlug(_ context.Context, slug string) (*asset.Asset, error) {
	for _, a := range r.assets {
		if a.Slug == slug {
			return a, nil
		}
	}
	return nil, apperr.NotFound("Asset")
}

func (r *fakeAssetRepo) List(_ context.Context, _ query.Query) ([]*asset.Asset, int, error) {
	return nil, 0, nil
}

func (r *fakeAssetRepo) CountCategories(_ context.Context, ids []string) (int, error) {
	count := 0
	for _, id := range ids {
		if r.categories[id] {
			count++
		}
	}
	return count, nil
}

func (r *fakeAssetRepo) Create(_ context.Context, a *asset.Asset) error {
	r.assets[a.ID] = a
	return nil
}

func (r *fakeAssetRepo) Update(_ context.Context, a *asset.Asset) error {
	r.assets[a.ID] = a
	return nil
}

func (r *fakeAssetRepo) UpdateStatus(_ context.Context, id, status, reason string) error {
	a, ok := r.assets[id]
	if !ok {
		return apperr.NotFound("Asset")
	}
	a.Status = status
	a.RejectionReason = reason
	return nil
}

func (r *fakeAssetRepo) CountByStatus(_ context.Context) (map[string]int, error) {
	counts := map[string]int{}
	for _, a := range r.assets {
		counts[a.Status]++
	}
	return counts, nil
}

type fakeStatsRepo struct {
	stats       map[string]*asset.Stats
	likedBy     map[string]map[string]bool
	downloaders map[string]map[string]bool
}

func newFakeStatsRepo() *fakeStatsRepo {
	return &fakeStatsRepo{
		stats:       map[string]*asset.Stats{},
		likedBy:     map[string]map[string]bool{},
		downloaders: map[string]map[string]bool{},
	}
}

func (r *fakeStatsRepo) ensure(assetID string) *asset.Stats {
	if _, ok := r.stats[assetID]; !ok {
		r.stats[assetID] = &asset.Stats{AssetID: assetID}
		r.likedBy[assetID] = map[string]bool{}
		r.downloaders[assetID] = map[string]bool{}
	}
	return r.stats[assetID]
}

func (r *fakeStatsRepo) Find(_ context.Context, assetID string) (*asset.Stats, error) {
	if s, ok := r.stats[assetID]; ok {
		return s, nil
	}
	return nil, apperr.NotFound("Asset")
}

func (r *fakeStatsRepo) IncrementViews(_ context.Context, assetID string) error {
	r.ensure(assetID).Views++
	return nil
}

func (r *fakeStatsRepo) ToggleLike(_ context.Context, assetID, userID string) (bool, error) {
	stats := r.ensure(assetID)
	if r.likedBy[assetID][userID] {
		delete(r.likedBy[assetID], userID)
		stats.Likes--
		return false, nil
	}
	r.likedBy[assetID][userID] = true
	stats.Likes++
	return true, nil
}

func (r *fakeStatsRepo) RecordDownload(_ context.Context, assetID, userID string) error {
	stats := r.ensure(assetID)
	stats.Downloads++
	r.downloaders[assetID][userID] = true
	return nil
}

func (r *fakeStatsRepo) HasDownloaded(_ context.Context, assetID, userID string) (bool, error) {
	return r.downloaders[assetID][userID], nil
}

type fakePurchases struct {
	purchased map[string]bool // buyerID + "/" + assetID
}

func (p *fakePurchases) HasPurchased(_ context.Context, buyerID, assetID string) (bool, error) {
	return p.purchased[buyerID+"/"+assetID], nil
}

type assetFixture struct {
	service   *asset.Service
	repo      *fakeAssetRepo
	stats     *fakeStatsRepo
	purchases *fakePurchases
}

func newAssetFixture() *assetFixture {
	repo := newFakeAssetRepo()
	stats := newFakeStatsRepo()
	purchases := &fakePurchases{purchased: map[string]bool{}}

	return &assetFixture{
		service:   asset.NewService(repo, stats, purchases, slog.New(slog.DiscardHandler)),
		repo:      repo,
		stats:     stats,
		purchases: purchases,
	}
}

func (f *assetFixture) submit(t *testing.T, title string, price float64) *asset.Asset {
	t.Helper()

	created, err := f.service.Create(context.Background(), asset.CreateInput{
		AuthorID:    "author-1",
		Title:       title,
		Type:        asset.TypeImage,
		Price:       price,
		CategoryIDs: []string{"cat-1"},
		FileURL:     "https://cdn.example.com/original.zip",
	})
	require.NoError(t, err)
	f.stats.ensure(created.ID)
	return created
}

func TestService_Create(t *testing.T) {
	fixture := newAssetFixture()

	created := fixture.submit(t, "Minimal Icon Pack", 19.99)
	assert.Equal(t, asset.StatusPendingReview, created.Status)
	assert.Equal(t, "minimal-icon-pack", created.Slug)

	// Duplicate title collides on the slug
	_, err := fixture.service.Create(context.Background(), asset.CreateInput{
		AuthorID:    "author-2",
		Title:       "Minimal Icon Pack",
		Type:        asset.TypeImage,
		CategoryIDs: []string{"cat-1"},
		FileURL:     "https://cdn.example.com/other.zip",
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)

	// Unknown category is unprocessable
	_, err = fixture.service.Create(context.Background(), asset.CreateInput{
		AuthorID:    "author-1",
		Title:       "Watercolor Textures",
		Type:        asset.TypeImage,
		CategoryIDs: []string{"cat-1", "cat-missing"},
		FileURL:     "https://cdn.example.com/tex.zip",
	})
	require.Error(t, err)
	assert.Equal(t, "UNPROCESSABLE", apperr.As(err).Code)

	// Missing categories, bad type, negative price all fail validation
	_, err = fixture.service.Create(context.Background(), asset.CreateInput{
		AuthorID: "author-1",
		Title:    "Broken Upload",
		Type:     "hologram",
		Price:    -5,
		FileURL:  "https://cdn.example.com/x.zip",
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
}

func TestService_ReviewWorkflow(t *testing.T) {
	fixture := newAssetFixture()

	pending := fixture.submit(t, "Brush Set", 9.99)

	approved, err := fixture.service.Approve(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, asset.StatusApproved, approved.Status)

	// Approved is terminal
	_, err = fixture.service.Reject(context.Background(), pending.ID, "too similar")
	require.Error(t, err)
	assert.Equal(t, "UNPROCESSABLE", apperr.As(err).Code)

	rejected := fixture.submit(t, "Gradient Pack", 4.99)
	result, err := fixture.service.Reject(context.Background(), rejected.ID, "Low resolution previews")
	require.NoError(t, err)
	assert.Equal(t, asset.StatusRejected, result.Status)
	assert.Equal(t, "Low resolution previews", result.RejectionReason)

	// Reject requires a reason
	another := fixture.submit(t, "Pattern Pack", 4.99)
	_, err = fixture.service.Reject(context.Background(), another.ID, "")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
}

func TestService_Update_Ownership(t *testing.T) {
	fixture := newAssetFixture()
	created := fixture.submit(t, "Mesh Gradients", 12)

	newTitle := "Mesh Gradients Vol. 2"
	_, err := fixture.service.Update(context.Background(), created.ID, "someone-else", false, asset.UpdateInput{Title: &newTitle})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)

	// Owner can edit; slug follows the title
	updated, err := fixture.service.Update(context.Background(), created.ID, "author-1", false, asset.UpdateInput{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "mesh-gradients-vol-2", updated.Slug)

	// Staff can edit anyone's asset
	price := 15.0
	_, err = fixture.service.Update(context.Background(), created.ID, "admin-1", true, asset.UpdateInput{Price: &price})
	require.NoError(t, err)
}

func TestService_Download(t *testing.T) {
	fixture := newAssetFixture()

	paid := fixture.submit(t, "Pro Mockup Kit", 29)
	free := fixture.submit(t, "Free Sample Icons", 0)
	_, err := fixture.service.Approve(context.Background(), paid.ID)
	require.NoError(t, err)
	_, err = fixture.service.Approve(context.Background(), free.ID)
	require.NoError(t, err)

	// Free asset downloads without a purchase
	url, err := fixture.service.Download(context.Background(), free.ID, "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/original.zip", url)

	// Paid asset requires a completed purchase
	_, err = fixture.service.Download(context.Background(), paid.ID, "buyer-1")
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)

	fixture.purchases.purchased["buyer-1/"+paid.ID] = true
	_, err = fixture.service.Download(context.Background(), paid.ID, "buyer-1")
	require.NoError(t, err)

	// Re-download allowed; counter keeps climbing, downloader tracked once
	_, err = fixture.service.Download(context.Background(), paid.ID, "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), fixture.stats.stats[paid.ID].Downloads)

	// Pending assets are invisible to downloads
	hidden := fixture.submit(t, "Unreviewed Pack", 0)
	_, err = fixture.service.Download(context.Background(), hidden.ID, "buyer-1")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}

func TestService_ToggleLike(t *testing.T) {
	fixture := newAssetFixture()
	created := fixture.submit(t, "Line Art Icons", 5)

	liked, err := fixture.service.ToggleLike(context.Background(), created.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), fixture.stats.stats[created.ID].Likes)

	liked, err = fixture.service.ToggleLike(context.Background(), created.ID, "user-1")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, int64(0), fixture.stats.stats[created.ID].Likes)

	_, err = fixture.service.ToggleLike(context.Background(), "missing", "user-1")
	require.Error(t, err)
}
