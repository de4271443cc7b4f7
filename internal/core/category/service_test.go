package category_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarifyx/clarifyx/internal/core/category"
	"github.com/clarifyx/clarifyx/internal/platform/apperr"
	"github.com/clarifyx/clarifyx/pkg/query"
)

type fakeRepo struct {
	categories map[string]*category.Category
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{categories: map[string]*category.Category{}}
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (*category.Category, error) {
	if c, ok := r.categories[id]; ok {
		return c, nil
	}
	return nil, apperr.NotFound("Category")
}

func (r *fakeRepo) FindBySlug(_ context.Context, slug string) (*category.Category, error) {
	for _, c := range r.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, apperr.NotFound("Category")
}

func (r *fakeRepo) List(_ context.Context, _ query.Query) ([]*category.Category, int, error) {
	out := make([]*category.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (r *fakeRepo) ListActive(_ context.Context) ([]*category.Category, error) {
	var out []*category.Category
	for _, c := range r.categories {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeRepo) Create(_ context.Context, c *category.Category) error {
	r.categories[c.ID] = c
	return nil
}

func (r *fakeRepo) Update(_ context.Context, c *category.Category) error {
	r.categories[c.ID] = c
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	delete(r.categories, id)
	return nil
}

func newService() (*category.Service, *fakeRepo) {
	repo := newFakeRepo()
	return category.NewService(repo, slog.New(slog.DiscardHandler)), repo
}

func TestService_Create(t *testing.T) {
	service, _ := newService()

	created, err := service.Create(context.Background(), category.CreateInput{
		Name:        "UI Kits & Templates",
		Description: "Reusable interface building blocks.",
	})
	require.NoError(t, err)
	assert.Equal(t, "ui-kits-templates", created.Slug)
	assert.True(t, created.IsActive)

	// Same name collides on the generated slug
	_, err = service.Create(context.Background(), category.CreateInput{Name: "UI Kits & Templates"})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)

	// Validation failures
	_, err = service.Create(context.Background(), category.CreateInput{Name: "A"})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
}

func TestService_Get_ByIDOrSlug(t *testing.T) {
	service, _ := newService()

	created, err := service.Create(context.Background(), category.CreateInput{Name: "Icons"})
	require.NoError(t, err)

	byID, err := service.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byID.ID)

	bySlug, err := service.Get(context.Background(), "icons")
	require.NoError(t, err)
	assert.Equal(t, created.ID, bySlug.ID)

	_, err = service.Get(context.Background(), "missing-slug")
	require.Error(t, err)
}

func TestService_Update(t *testing.T) {
	service, _ := newService()

	created, err := service.Create(context.Background(), category.CreateInput{Name: "Fonts"})
	require.NoError(t, err)

	// Rename regenerates the slug
	newName := "Typefaces"
	updated, err := service.Update(context.Background(), created.ID, category.UpdateInput{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "typefaces", updated.Slug)

	// Deactivation keeps it out of the public listing
	inactive := false
	_, err = service.Update(context.Background(), created.ID, category.UpdateInput{IsActive: &inactive})
	require.NoError(t, err)

	active, err := service.ListActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)

	// Renaming onto another category's slug is a conflict
	other, err := service.Create(context.Background(), category.CreateInput{Name: "Mockups"})
	require.NoError(t, err)

	clash := "Typefaces"
	_, err = service.Update(context.Background(), other.ID, category.UpdateInput{Name: &clash})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)
}

func TestService_Delete(t *testing.T) {
	service, _ := newService()

	created, err := service.Create(context.Background(), category.CreateInput{Name: "Illustrations"})
	require.NoError(t, err)

	require.NoError(t, service.Delete(context.Background(), created.ID))

	err = service.Delete(context.Background(), created.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}
