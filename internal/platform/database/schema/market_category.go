package schema

// MarketCategoryTable represents the 'market.category' table
type MarketCategoryTable struct {
	Table       string
	ID          string
	Name        string
	Slug        string
	Description string
	IconURL     string
	IsActive    string
	CreatedAt   string
	UpdatedAt   string
}

// MarketCategory is the schema definition for market.category
var MarketCategory = MarketCategoryTable{
	Table:       "market.category",
	ID:          "id",
	Name:        "name",
	Slug:        "slug",
	Description: "description",
	IconURL:     "icon_url",
	IsActive:    "is_active",
	CreatedAt:   "created_at",
	UpdatedAt:   "updated_at",
}

func (t MarketCategoryTable) Columns() []string {
	return []string{
		t.ID, t.Name, t.Slug, t.Description, t.IconURL,
		t.IsActive, t.CreatedAt, t.UpdatedAt,
	}
}
