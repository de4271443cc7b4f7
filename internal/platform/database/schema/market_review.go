package schema

// MarketReviewTable represents the 'market.review' table
type MarketReviewTable struct {
	Table     string
	ID        string
	AssetID   string
	UserID    string
	Rating    string
	Comment   string
	Reply     string
	RepliedAt string
	CreatedAt string
	UpdatedAt string
}

// MarketReview is the schema definition for market.review
var MarketReview = MarketReviewTable{
	Table:     "market.review",
	ID:        "id",
	AssetID:   "asset_id",
	UserID:    "user_id",
	Rating:    "rating",
	Comment:   "comment",
	Reply:     "reply",
	RepliedAt: "replied_at",
	CreatedAt: "created_at",
	UpdatedAt: "updated_at",
}

func (t MarketReviewTable) Columns() []string {
	return []string{
		t.ID, t.AssetID, t.UserID, t.Rating, t.Comment, t.Reply, t.RepliedAt,
		t.CreatedAt, t.UpdatedAt,
	}
}
