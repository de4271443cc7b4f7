package review

import "time"

// Review is a buyer's rating of an asset, with an optional one-shot
// reply from the asset's author.
type Review struct {
	ID      string `json:"id"`
	AssetID string `json:"assetId"`
	UserID  string `json:"userId"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
	// Reply is the author's response, empty until the author answers.
	Reply     string     `json:"reply,omitempty"`
	RepliedAt *time.Time `json:"repliedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// API field names accepted by the list endpoint.
const (
	FieldAssetID = "assetId"
	FieldUserID  = "userId"
	FieldRating  = "rating"
)
