package asset

import (
	"context"

	"github.com/clarifyx/clarifyx/pkg/query"
)

// Repository defines the data access contract for marketplace assets.
type Repository interface {
	// FindByID returns the asset with the given ID.
	FindByID(context context.Context, id string) (*Asset, error)

	// FindBySlug returns the asset with the given slug.
	FindBySlug(context context.Context, slug string) (*Asset, error)

	// List returns a filtered page of assets plus the matching total.
	// Stats rows are joined in so engagement counters ride along.
	List(context context.Context, q query.Query) ([]*Asset, int, error)

	// CountByCategory reports how many of the given category IDs exist.
	CountCategories(context context.Context, categoryIDs []string) (int, error)

	// Create persists a new asset together with its zeroed stats row.
	Create(context context.Context, asset *Asset) error

	// Update persists changes to an existing asset.
	Update(context context.Context, asset *Asset) error

	// UpdateStatus applies a review decision.
	UpdateStatus(context context.Context, id, status, rejectionReason string) error

	// CountByStatus returns asset totals grouped by review status.
	CountByStatus(context context.Context) (map[string]int, error)
}

// StatsRepository defines the data access contract for engagement counters.
//
// All mutations are single-statement conditional updates so concurrent
// requests never lose increments to read-modify-write races.
type StatsRepository interface {
	// Find returns the counters for one asset.
	Find(context context.Context, assetID string) (*Stats, error)

	// IncrementViews bumps the view counter by one.
	IncrementViews(context context.Context, assetID string) error

	// ToggleLike adds or removes the user from the liked set and adjusts
	// the like counter accordingly. Returns the resulting liked state.
	ToggleLike(context context.Context, assetID, userID string) (bool, error)

	// RecordDownload bumps the download counter and tracks the distinct
	// downloader. Repeat downloads bump the counter only.
	RecordDownload(context context.Context, assetID, userID string) error

	// HasDownloaded reports whether the user ever downloaded the asset.
	HasDownloaded(context context.Context, assetID, userID string) (bool, error)
}
