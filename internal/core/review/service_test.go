package review_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarifyx/clarifyx/internal/core/asset"
	"github.com/clarifyx/clarifyx/internal/core/review"
	"github.com/clarifyx/clarifyx/internal/platform/apperr"
	"github.com/clarifyx/clarifyx/pkg/query"
	"github.com/clarifyx/clarifyx/pkg/uuidv7"
)

type fakeReviewRepo struct {
	reviews map[string]*review.Review
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: make(map[string]*review.Review)}
}

func (r *fakeReviewRepo) FindByID(_ context.Context, id string) (*review.Review, error) {
	if stored, ok := r.reviews[id]; ok {
		copied := *stored
		return &copied, nil
	}
	return nil, apperr.NotFound("Review")
}

func (r *fakeReviewRepo) Exists(_ context.Context, assetID, userID string) (bool, error) {
	for _, stored := range r.reviews {
		if stored.AssetID == assetID && stored.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeReviewRepo) List(_ context.Context, _ query.Query) ([]*review.Review, int, error) {
	out := make([]*review.Review, 0, len(r.reviews))
	for _, stored := range r.reviews {
		out = append(out, stored)
	}
	return out, len(out), nil
}

func (r *fakeReviewRepo) Create(_ context.Context, created *review.Review) error {
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	copied := *created
	r.reviews[created.ID] = &copied
	return nil
}

func (r *fakeReviewRepo) Update(_ context.Context, updated *review.Review) error {
	stored, ok := r.reviews[updated.ID]
	if !ok {
		return apperr.NotFound("Review")
	}
	stored.Rating = updated.Rating
	stored.Comment = updated.Comment
	return nil
}

func (r *fakeReviewRepo) SetReply(_ context.Context, id, reply string) (*review.Review, error) {
	stored, ok := r.reviews[id]
	if !ok {
		return nil, apperr.NotFound("Review")
	}
	now := time.Now()
	stored.Reply = reply
	stored.RepliedAt = &now
	copied := *stored
	return &copied, nil
}

func (r *fakeReviewRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.reviews[id]; !ok {
		return apperr.NotFound("Review")
	}
	delete(r.reviews, id)
	return nil
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

type fakeMemberships struct {
	members map[string]bool
}

func (m *fakeMemberships) HasActive(_ context.Context, userID string) (bool, error) {
	return m.members[userID], nil
}

type fakeDownloads struct {
	downloads map[string]bool
}

func (d *fakeDownloads) HasDownloaded(_ context.Context, assetID, userID string) (bool, error) {
	return d.downloads[assetID+"/"+userID], nil
}

type reviewFixture struct {
	service   *review.Service
	repo      *fakeReviewRepo
	members   *fakeMemberships
	downloads *fakeDownloads
}

func newReviewFixture() *reviewFixture {
	repo := newFakeReviewRepo()

	catalog := &fakeCatalog{assets: map[string]*asset.Asset{
		"asset-1": {ID: "asset-1", AuthorID: "user-author", Status: asset.StatusApproved},
		"asset-2": {ID: "asset-2", AuthorID: "user-author", Status: asset.StatusPendingReview},
	}}
	members := &fakeMemberships{members: map[string]bool{"user-member": true}}
	downloads := &fakeDownloads{downloads: map[string]bool{"asset-1/user-downloader": true}}

	service := review.NewService(repo, catalog, members, downloads, slog.New(slog.DiscardHandler))
	return &reviewFixture{service: service, repo: repo, members: members, downloads: downloads}
}

func TestCreate_Eligibility(t *testing.T) {
	fixture := newReviewFixture()
	ctx := context.Background()

	// Active members qualify without a download.
	created, err := fixture.service.Create(ctx, "user-member", review.CreateInput{
		AssetID: "asset-1",
		Rating:  5,
		Comment: "Crisp glyphs at every weight.",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, created.Rating)
	assert.Empty(t, created.Reply)

	// A recorded download qualifies without membership.
	_, err = fixture.service.Create(ctx, "user-downloader", review.CreateInput{
		AssetID: "asset-1",
		Rating:  3,
	})
	require.NoError(t, err)

	// Neither membership nor download: rejected.
	_, err = fixture.service.Create(ctx, "user-stranger", review.CreateInput{
		AssetID: "asset-1",
		Rating:  4,
	})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
}

func TestCreate_Rejections(t *testing.T) {
	fixture := newReviewFixture()
	ctx := context.Background()

	tests := []struct {
		name     string
		userID   string
		input    review.CreateInput
		wantCode string
	}{
		{"own asset", "user-author", review.CreateInput{AssetID: "asset-1", Rating: 5}, "FORBIDDEN"},
		{"unapproved asset", "user-member", review.CreateInput{AssetID: "asset-2", Rating: 4}, "NOT_FOUND"},
		{"unknown asset", "user-member", review.CreateInput{AssetID: "asset-missing", Rating: 4}, "NOT_FOUND"},
		{"rating too high", "user-member", review.CreateInput{AssetID: "asset-1", Rating: 6}, "VALIDATION_ERROR"},
		{"rating zero", "user-member", review.CreateInput{AssetID: "asset-1", Rating: 0}, "VALIDATION_ERROR"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := fixture.service.Create(ctx, test.userID, test.input)
			require.Error(t, err)
			assert.Equal(t, test.wantCode, apperr.As(err).Code)
		})
	}
}

func TestCreate_OneReviewPerAsset(t *testing.T) {
	fixture := newReviewFixture()
	ctx := context.Background()

	_, err := fixture.service.Create(ctx, "user-member", review.CreateInput{AssetID: "asset-1", Rating: 4})
	require.NoError(t, err)

	_, err = fixture.service.Create(ctx, "user-member", review.CreateInput{AssetID: "asset-1", Rating: 5})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)
}

func TestUpdate_OwnerOnly(t *testing.T) {
	fixture := newReviewFixture()
	ctx := context.Background()

	created, err := fixture.service.Create(ctx, "user-member", review.CreateInput{AssetID: "asset-1", Rating: 2})
	require.NoError(t, err)

	rating := 4
	comment := "Better after the v2 update."
	updated, err := fixture.service.Update(ctx, created.ID, "user-member", review.UpdateInput{
		Rating:  &rating,
		Comment: &comment,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Rating)
	assert.Equal(t, comment, updated.Comment)

	_, err = fixture.service.Update(ctx, created.ID, "user-downloader", review.UpdateInput{Rating: &rating})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)

	bad := 9
	_, err = fixture.service.Update(ctx, created.ID, "user-member", review.UpdateInput{Rating: &bad})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
}

func TestReply_AuthorOnly(t *testing.T) {
	fixture := newReviewFixture()
	ctx := context.Background()

	created, err := fixture.service.Create(ctx, "user-member", review.CreateInput{AssetID: "asset-1", Rating: 4})
	require.NoError(t, err)

	_, err = fixture.service.Reply(ctx, created.ID, "user-member", "Thanks!")
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)

	replied, err := fixture.service.Reply(ctx, created.ID, "user-author", "Glad it works for you.")
	require.NoError(t, err)
	assert.Equal(t, "Glad it works for you.", replied.Reply)
	require.NotNil(t, replied.RepliedAt)

	_, err = fixture.service.Reply(ctx, created.ID, "user-author", "   ")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)

	_, err = fixture.service.Reply(ctx, uuidv7.New(), "user-author", "Hello?")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}

func TestDelete(t *testing.T) {
	fixture := newReviewFixture()
	ctx := context.Background()

	created, err := fixture.service.Create(ctx, "user-member", review.CreateInput{AssetID: "asset-1", Rating: 4})
	require.NoError(t, err)

	// A different non-staff user cannot delete it.
	err = fixture.service.Delete(ctx, created.ID, "user-downloader", false)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)

	// Staff can.
	require.NoError(t, fixture.service.Delete(ctx, created.ID, "user-admin", true))

	err = fixture.service.Delete(ctx, created.ID, "user-member", false)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}
