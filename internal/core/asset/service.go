package asset

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/clarifyx/clarifyx/internal/platform/apperr"
	"github.com/clarifyx/clarifyx/internal/platform/validate"
	"github.com/clarifyx/clarifyx/pkg/query"
	"github.com/clarifyx/clarifyx/pkg/slug"
	"github.com/clarifyx/clarifyx/pkg/uuidv7"
)

// PurchaseVerifier answers whether a buyer holds a completed purchase
// for an asset. Implemented by the payment store; declared here so the
// asset package never imports the billing layer.
type PurchaseVerifier interface {
	HasPurchased(context context.Context, buyerID, assetID string) (bool, error)
}

// Service implements the asset catalogue use cases.
type Service struct {
	repository      Repository
	statsRepository StatsRepository
	purchases       PurchaseVerifier
	logger          *slog.Logger
}

// NewService constructs a new asset [Service].
func NewService(
	repository Repository,
	statsRepository StatsRepository,
	purchases PurchaseVerifier,
	logger *slog.Logger,
) *Service {
	return &Service{
		repository:      repository,
		statsRepository: statsRepository,
		purchases:       purchases,
		logger:          logger,
	}
}

// CreateInput holds the data required to publish a new asset.
type CreateInput struct {
	AuthorID        string   `json:"-"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Type            string   `json:"type"`
	Orientation     string   `json:"orientation"`
	Price           float64  `json:"price"`
	IsPremium       bool     `json:"isPremium"`
	IsAIGenerated   bool     `json:"isAiGenerated"`
	CategoryIDs     []string `json:"categoryIds"`
	Tags            []string `json:"tags"`
	CompatibleTools []string `json:"compatibleTools"`
	FileURL         string   `json:"fileUrl"`
	PreviewURL      string   `json:"previewUrl"`
	FileSize        int64    `json:"fileSize"`
	FileFormat      string   `json:"fileFormat"`
	Width           int      `json:"width"`
	Height          int      `json:"height"`
	Duration        int      `json:"duration"`
}

// UpdateInput holds the mutable asset fields. Nil fields are untouched.
type UpdateInput struct {
	Title           *string   `json:"title"`
	Description     *string   `json:"description"`
	Price           *float64  `json:"price"`
	Orientation     *string   `json:"orientation"`
	IsPremium       *bool     `json:"isPremium"`
	CategoryIDs     *[]string `json:"categoryIds"`
	Tags            *[]string `json:"tags"`
	CompatibleTools *[]string `json:"compatibleTools"`
	PreviewURL      *string   `json:"previewUrl"`
}

// Create validates and persists a new asset in pending review state.
func (service *Service) Create(context context.Context, input CreateInput) (*Asset, error) {
	validator := &validate.Validator{}
	validator.Required(FieldTitle, input.Title).
		MinLen(FieldTitle, input.Title, 3).
		MaxLen(FieldTitle, input.Title, 200).
		MaxLen(FieldDescription, input.Description, 2000).
		OneOf(FieldType, input.Type, TypeImage, TypeVideo, TypeAudio, TypeTemplate, TypeFont, TypeModel3D).
		Required(FieldFileURL, input.FileURL).
		Custom(FieldPrice, input.Price < 0, "Must not be negative").
		Custom(FieldCategories, len(input.CategoryIDs) == 0, "At least one category is required")
	if input.Orientation != "" {
		validator.OneOf(FieldOrientation, input.Orientation, OrientationLandscape, OrientationPortrait, OrientationSquare)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	assetSlug := slug.From(input.Title)
	if _, err := service.repository.FindBySlug(context, assetSlug); err == nil {
		return nil, apperr.Conflict("An asset with this title already exists")
	}

	// Every referenced category must exist.
	found, err := service.repository.CountCategories(context, input.CategoryIDs)
	if err != nil {
		return nil, fmt.Errorf("asset_service_category_check_failed: %w", err)
	}
	if found != len(input.CategoryIDs) {
		return nil, apperr.Unprocessable("One or more categories do not exist")
	}

	asset := &Asset{
		ID:              uuidv7.New(),
		AuthorID:        input.AuthorID,
		Title:           input.Title,
		Slug:            assetSlug,
		Description:     input.Description,
		Type:            input.Type,
		Orientation:     input.Orientation,
		Price:           input.Price,
		Status:          StatusPendingReview,
		IsPremium:       input.IsPremium,
		IsAIGenerated:   input.IsAIGenerated,
		CategoryIDs:     input.CategoryIDs,
		Tags:            input.Tags,
		CompatibleTools: input.CompatibleTools,
		FileURL:         input.FileURL,
		PreviewURL:      input.PreviewURL,
		FileSize:        input.FileSize,
		FileFormat:      input.FileFormat,
		Width:           input.Width,
		Height:          input.Height,
		Duration:        input.Duration,
	}
	if asset.Tags == nil {
		asset.Tags = []string{}
	}

	if err := service.repository.Create(context, asset); err != nil {
		return nil, fmt.Errorf("asset_service_create_failed: %w", err)
	}

	service.logger.Info("asset_submitted",
		slog.String("asset_id", asset.ID),
		slog.String("author_id", asset.AuthorID),
	)
	return asset, nil
}

// Get returns an asset by ID or slug.
func (service *Service) Get(context context.Context, idOrSlug string) (*Asset, error) {
	var (
		asset *Asset
		err   error
	)
	if validate.IsUUID(idOrSlug) {
		asset, err = service.repository.FindByID(context, idOrSlug)
	} else {
		asset, err = service.repository.FindBySlug(context, idOrSlug)
	}
	if err != nil {
		return nil, err
	}

	if stats, err := service.statsRepository.Find(context, asset.ID); err == nil {
		asset.Stats = stats
	}
	return asset, nil
}

// List returns a filtered page of assets.
func (service *Service) List(context context.Context, q query.Query) ([]*Asset, int, error) {
	return service.repository.List(context, q)
}

// Update applies a partial update. Only the owning author or staff may
// edit; the handler passes the caller identity for the ownership check.
func (service *Service) Update(context context.Context, id, callerID string, isStaff bool, input UpdateInput) (*Asset, error) {
	asset, err := service.repository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if asset.AuthorID != callerID && !isStaff {
		return nil, apperr.Forbidden("You can only edit your own assets")
	}

	if input.Title != nil && *input.Title != asset.Title {
		newSlug := slug.From(*input.Title)
		if existing, err := service.repository.FindBySlug(context, newSlug); err == nil && existing.ID != asset.ID {
			return nil, apperr.Conflict("An asset with this title already exists")
		}
		asset.Title = *input.Title
		asset.Slug = newSlug
	}
	if input.Description != nil {
		asset.Description = *input.Description
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, apperr.ValidationError("Validation failed", apperr.FieldError{Field: FieldPrice, Message: "Must not be negative"})
		}
		asset.Price = *input.Price
	}
	if input.Orientation != nil {
		asset.Orientation = *input.Orientation
	}
	if input.IsPremium != nil {
		asset.IsPremium = *input.IsPremium
	}
	if input.CategoryIDs != nil {
		if len(*input.CategoryIDs) == 0 {
			return nil, apperr.ValidationError("Validation failed", apperr.FieldError{Field: FieldCategories, Message: "At least one category is required"})
		}
		found, err := service.repository.CountCategories(context, *input.CategoryIDs)
		if err != nil {
			return nil, fmt.Errorf("asset_service_category_check_failed: %w", err)
		}
		if found != len(*input.CategoryIDs) {
			return nil, apperr.Unprocessable("One or more categories do not exist")
		}
		asset.CategoryIDs = *input.CategoryIDs
	}
	if input.Tags != nil {
		asset.Tags = *input.Tags
	}
	if input.CompatibleTools != nil {
		asset.CompatibleTools = *input.CompatibleTools
	}
	if input.PreviewURL != nil {
		asset.PreviewURL = *input.PreviewURL
	}

	if err := service.repository.Update(context, asset); err != nil {
		return nil, fmt.Errorf("asset_service_update_failed: %w", err)
	}
	return asset, nil
}

// # Review Workflow

// Approve moves a pending asset into the approved state.
func (service *Service) Approve(context context.Context, id string) (*Asset, error) {
	return service.review(context, id, StatusApproved, "")
}

// Reject moves a pending asset into the rejected state with a reason.
func (service *Service) Reject(context context.Context, id, reason string) (*Asset, error) {
	if err := (&validate.Validator{}).Required(FieldReason, reason).Err(); err != nil {
		return nil, err
	}
	return service.review(context, id, StatusRejected, reason)
}

// review applies a moderation decision. Approved and rejected are
// terminal states so only pending assets can transition.
func (service *Service) review(context context.Context, id, status, reason string) (*Asset, error) {
	asset, err := service.repository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if asset.Status != StatusPendingReview {
		return nil, apperr.Unprocessable(fmt.Sprintf("Asset is already %s", asset.Status))
	}

	if err := service.repository.UpdateStatus(context, id, status, reason); err != nil {
		return nil, fmt.Errorf("asset_service_review_failed: %w", err)
	}

	asset.Status = status
	asset.RejectionReason = reason

	service.logger.Info("asset_reviewed",
		slog.String("asset_id", id),
		slog.String("status", status),
	)
	return asset, nil
}

// # Engagement

// RecordView bumps an approved asset's view counter.
func (service *Service) RecordView(context context.Context, id string) error {
	return service.statsRepository.IncrementViews(context, id)
}

// ToggleLike likes or unlikes the asset for the user and returns the
// resulting liked state.
func (service *Service) ToggleLike(context context.Context, assetID, userID string) (bool, error) {
	if _, err := service.repository.FindByID(context, assetID); err != nil {
		return false, err
	}
	return service.statsRepository.ToggleLike(context, assetID, userID)
}

// Download checks entitlement and returns the original file URL.
//
// Free assets are open to any authenticated user. Paid assets require a
// completed purchase. Re-downloads are always allowed; each distinct
// downloader is tracked once.
func (service *Service) Download(context context.Context, assetID, userID string) (string, error) {
	asset, err := service.repository.FindByID(context, assetID)
	if err != nil {
		return "", err
	}

	if asset.Status != StatusApproved {
		return "", apperr.NotFound("Asset")
	}

	if !asset.IsFree() {
		purchased, err := service.purchases.HasPurchased(context, userID, assetID)
		if err != nil {
			return "", fmt.Errorf("asset_service_purchase_check_failed: %w", err)
		}
		if !purchased {
			return "", apperr.Forbidden("Purchase required to download this asset")
		}
	}

	if err := service.statsRepository.RecordDownload(context, assetID, userID); err != nil {
		return "", fmt.Errorf("asset_service_record_download_failed: %w", err)
	}

	return asset.FileURL, nil
}

// CountByStatus returns asset totals per review status for dashboards.
func (service *Service) CountByStatus(context context.Context) (map[string]int, error) {
	return service.repository.CountByStatus(context)
}
