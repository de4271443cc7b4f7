package asset

import "time"

// Review workflow statuses. Approved and rejected are terminal.
const (
	StatusPendingReview = "pending_review"
	StatusApproved      = "approved"
	StatusRejected      = "rejected"
)

// Asset media types.
const (
	TypeImage    = "image"
	TypeVideo    = "video"
	TypeAudio    = "audio"
	TypeTemplate = "template"
	TypeFont     = "font"
	TypeModel3D  = "3d_model"
)

// Frame orientations for visual assets.
const (
	OrientationLandscape = "landscape"
	OrientationPortrait  = "portrait"
	OrientationSquare    = "square"
)

// Asset is a downloadable marketplace item published by an author.
type Asset struct {
	ID          string  `json:"id"`
	AuthorID    string  `json:"authorId"`
	Title       string  `json:"title"`
	Slug        string  `json:"slug"`
	Description string  `json:"description,omitempty"`
	Type        string  `json:"type"`
	Orientation string  `json:"orientation,omitempty"`
	Price       float64 `json:"price"`
	Status      string  `json:"status"`

	// IsPremium marks assets reserved for premium members.
	IsPremium     bool `json:"isPremium"`
	IsAIGenerated bool `json:"isAiGenerated"`

	CategoryIDs     []string `json:"categoryIds"`
	Tags            []string `json:"tags"`
	CompatibleTools []string `json:"compatibleTools,omitempty"`

	// FileURL points at the original deliverable and is stripped from
	// public payloads; buyers obtain it through the download endpoint.
	FileURL    string `json:"-"`
	PreviewURL string `json:"previewUrl,omitempty"`
	FileSize   int64  `json:"fileSize,omitempty"`
	FileFormat string `json:"fileFormat,omitempty"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	// Duration in seconds, for video and audio assets.
	Duration int `json:"duration,omitempty"`

	RejectionReason string    `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	// Stats is populated on detail and listing reads when available.
	Stats *Stats `json:"stats,omitempty"`
}

// Stats holds the engagement counters for one asset.
type Stats struct {
	AssetID   string    `json:"-"`
	Views     int64     `json:"views"`
	Downloads int64     `json:"downloads"`
	Likes     int64     `json:"likes"`
	UpdatedAt time.Time `json:"-"`
}

// IsFree reports whether the asset can be downloaded without a purchase.
func (a *Asset) IsFree() bool {
	return a.Price == 0
}

// # Field Identifiers

const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldType        = "type"
	FieldOrientation = "orientation"
	FieldPrice       = "price"
	FieldStatus      = "status"
	FieldCategories  = "categoryIds"
	FieldFileURL     = "fileUrl"
	FieldReason      = "reason"
)
