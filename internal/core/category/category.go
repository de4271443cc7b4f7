package category

import "time"

// Category groups marketplace assets into browsable sections.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	IconURL     string    `json:"iconUrl,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// AssetCount is populated by aggregate queries only.
	AssetCount int `json:"assetCount,omitempty"`
}

// # Field Identifiers

const (
	FieldName        = "name"
	FieldSlug        = "slug"
	FieldDescription = "description"
	FieldIconURL     = "iconUrl"
	FieldIsActive    = "isActive"
)
