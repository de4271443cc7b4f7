package schema

// MarketAssetStatsTable represents the 'market.asset_stats' table
type MarketAssetStatsTable struct {
	Table     string
	AssetID   string
	Views     string
	Downloads string
	Likes     string
	LikedBy   string
	UpdatedAt string
}

// MarketAssetStats is the schema definition for market.asset_stats
var MarketAssetStats = MarketAssetStatsTable{
	Table:     "market.asset_stats",
	AssetID:   "asset_id",
	Views:     "views",
	Downloads: "downloads",
	Likes:     "likes",
	LikedBy:   "liked_by",
	UpdatedAt: "updated_at",
}

func (t MarketAssetStatsTable) Columns() []string {
	return []string{t.AssetID, t.Views, t.Downloads, t.Likes, t.LikedBy, t.UpdatedAt}
}
