package schema

// MarketDownloadTable represents the 'market.download' table.
//
// One row per user per asset; repeat downloads bump the aggregate
// counter in market.asset_stats but do not add rows here.
type MarketDownloadTable struct {
	Table        string
	ID           string
	AssetID      string
	UserID       string
	DownloadedAt string
}

// MarketDownload is the schema definition for market.download
var MarketDownload = MarketDownloadTable{
	Table:        "market.download",
	ID:           "id",
	AssetID:      "asset_id",
	UserID:       "user_id",
	DownloadedAt: "downloaded_at",
}

func (t MarketDownloadTable) Columns() []string {
	return []string{t.ID, t.AssetID, t.UserID, t.DownloadedAt}
}
