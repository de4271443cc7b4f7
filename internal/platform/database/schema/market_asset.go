package schema

// MarketAssetTable represents the 'market.asset' table
type MarketAssetTable struct {
	Table           string
	ID              string
	AuthorID        string
	Title           string
	Slug            string
	Description     string
	Type            string
	Orientation     string
	Price           string
	Status          string
	IsPremium       string
	IsAIGenerated   string
	CategoryIDs     string
	Tags            string
	CompatibleTools string
	FileURL         string
	PreviewURL      string
	FileSize        string
	FileFormat      string
	Width           string
	Height          string
	Duration        string
	RejectionReason string
	CreatedAt       string
	UpdatedAt       string
}

// MarketAsset is the schema definition for market.asset
var MarketAsset = MarketAssetTable{
	Table:           "market.asset",
	ID:              "id",
	AuthorID:        "author_id",
	Title:           "title",
	Slug:            "slug",
	Description:     "description",
	Type:            "asset_type",
	Orientation:     "orientation",
	Price:           "price",
	Status:          "status",
	IsPremium:       "is_premium",
	IsAIGenerated:   "is_ai_generated",
	CategoryIDs:     "category_ids",
	Tags:            "tags",
	CompatibleTools: "compatible_tools",
	FileURL:         "file_url",
	PreviewURL:      "preview_url",
	FileSize:        "file_size",
	FileFormat:      "file_format",
	Width:           "width",
	Height:          "height",
	Duration:        "duration",
	RejectionReason: "rejection_reason",
	CreatedAt:       "created_at",
	UpdatedAt:       "updated_at",
}

func (t MarketAssetTable) Columns() []string {
	return []string{
		t.ID, t.AuthorID, t.Title, t.Slug, t.Description, t.Type,
		t.Orientation, t.Price, t.Status, t.IsPremium, t.IsAIGenerated,
		t.CategoryIDs, t.Tags, t.CompatibleTools, t.FileURL, t.PreviewURL,
		t.FileSize, t.FileFormat, t.Width, t.Height, t.Duration,
		t.RejectionReason, t.CreatedAt, t.UpdatedAt,
	}
}
