/*
Package review implements asset reviews.

Only users who actually have the asset may review it: an active
membership or a recorded download of that asset qualifies. Each buyer
gets one review per asset, and only the asset's author may reply.
*/
package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/clarifyx/clarifyx/internal/core/asset"
	"github.com/clarifyx/clarifyx/internal/platform/apperr"
	"github.com/clarifyx/clarifyx/internal/platform/validate"
	"github.com/clarifyx/clarifyx/pkg/query"
	"github.com/clarifyx/clarifyx/pkg/uuidv7"
)

// AssetCatalog resolves assets. Satisfied by the asset service.
type AssetCatalog interface {
	Get(context context.Context, idOrSlug string) (*asset.Asset, error)
}

// Memberships reports subscription state. Satisfied by the
// subscription service.
type Memberships interface {
	HasActive(context context.Context, userID string) (bool, error)
}

// DownloadChecker reports download history. Satisfied by the asset
// stats repository.
type DownloadChecker interface {
	HasDownloaded(context context.Context, assetID, userID string) (bool, error)
}

// Service implements the review use cases.
type Service struct {
	repository  Repository
	assets      AssetCatalog
	memberships Memberships
	downloads   DownloadChecker
	logger      *slog.Logger
}

// NewService constructs a new review [Service].
func NewService(
	repository Repository,
	assets AssetCatalog,
	memberships Memberships,
	downloads DownloadChecker,
	logger *slog.Logger,
) *Service {
	return &Service{
		repository:  repository,
		assets:      assets,
		memberships: memberships,
		downloads:   downloads,
		logger:      logger,
	}
}

// CreateInput is the review creation payload.
type CreateInput struct {
	AssetID string `json:"assetId"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

/*
Create adds a review to an asset.

Description: the reviewer must hold an active membership or have
downloaded the asset. One review per user per asset.

Returns:
  - *Review: the created review
  - err: NotFound, Forbidden, Conflict, or validation errors
*/
func (service *Service) Create(context context.Context, userID string, input CreateInput) (*Review, error) {
	input.Comment = strings.TrimSpace(input.Comment)

	validator := (&validate.Validator{}).Required("assetId", input.AssetID)
	if input.Rating < MinRating || input.Rating > MaxRating {
		validator.Custom("rating", true, fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
	}
	validator.MaxLen("comment", input.Comment, 2000)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	reviewed, err := service.assets.Get(context, input.AssetID)
	if err != nil {
		return nil, err
	}
	if reviewed.Status != asset.StatusApproved {
		return nil, apperr.NotFound("Asset")
	}
	if reviewed.AuthorID == userID {
		return nil, apperr.Forbidden("You cannot review your own asset")
	}

	eligible, err := service.isEligible(context, reviewed.ID, userID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, apperr.Forbidden("Only members or users who downloaded this asset can review it")
	}

	exists, err := service.repository.Exists(context, reviewed.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("review_service_exists_check_failed: %w", err)
	}
	if exists {
		return nil, apperr.Conflict("You already reviewed this asset")
	}

	review := &Review{
		ID:      uuidv7.New(),
		AssetID: reviewed.ID,
		UserID:  userID,
		Rating:  input.Rating,
		Comment: input.Comment,
	}
	if err := service.repository.Create(context, review); err != nil {
		return nil, fmt.Errorf("review_service_create_failed: %w", err)
	}

	service.logger.Info("review_created",
		slog.String("review_id", review.ID),
		slog.String("asset_id", reviewed.ID),
		slog.Int("rating", review.Rating),
	)
	return review, nil
}

// isEligible checks membership first, then download history.
func (service *Service) isEligible(context context.Context, assetID, userID string) (bool, error) {
	member, err := service.memberships.HasActive(context, userID)
	if err != nil {
		return false, fmt.Errorf("review_service_membership_check_failed: %w", err)
	}
	if member {
		return true, nil
	}

	downloaded, err := service.downloads.HasDownloaded(context, assetID, userID)
	if err != nil {
		return false, fmt.Errorf("review_service_download_check_failed: %w", err)
	}
	return downloaded, nil
}

// Get returns a single review.
func (service *Service) Get(context context.Context, id string) (*Review, error) {
	return service.repository.FindByID(context, id)
}

// UpdateInput is the review edit payload.
type UpdateInput struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

// Update edits the caller's own review.
func (service *Service) Update(context context.Context, id, callerID string, input UpdateInput) (*Review, error) {
	review, err := service.repository.FindByID(context, id)
	if err != nil {
		return nil, err
	}
	if review.UserID != callerID {
		return nil, apperr.Forbidden("You can only edit your own review")
	}

	if input.Rating != nil {
		if *input.Rating < MinRating || *input.Rating > MaxRating {
			return nil, apperr.ValidationError(fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
		}
		review.Rating = *input.Rating
	}
	if input.Comment != nil {
		comment := strings.TrimSpace(*input.Comment)
		if len(comment) > 2000 {
			return nil, apperr.ValidationError("comment must be at most 2000 characters")
		}
		review.Comment = comment
	}

	if err := service.repository.Update(context, review); err != nil {
		return nil, fmt.Errorf("review_service_update_failed: %w", err)
	}
	return review, nil
}

/*
Reply stores the asset author's response to a review.

Returns:
  - *Review: the review with the reply attached
  - err: NotFound, Forbidden (not the asset's author), or validation errors
*/
func (service *Service) Reply(context context.Context, id, callerID, reply string) (*Review, error) {
	reply = strings.TrimSpace(reply)
	if err := (&validate.Validator{}).
		Required("reply", reply).
		MaxLen("reply", reply, 2000).
		Err(); err != nil {
		return nil, err
	}

	review, err := service.repository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	reviewed, err := service.assets.Get(context, review.AssetID)
	if err != nil {
		return nil, err
	}
	if reviewed.AuthorID != callerID {
		return nil, apperr.Forbidden("Only the asset's author can reply to reviews")
	}

	replied, err := service.repository.SetReply(context, id, reply)
	if err != nil {
		return nil, fmt.Errorf("review_service_reply_failed: %w", err)
	}

	service.logger.Info("review_replied",
		slog.String("review_id", id),
		slog.String("asset_id", review.AssetID),
	)
	return replied, nil
}

// List returns a filtered page of reviews.
func (service *Service) List(context context.Context, q query.Query) ([]*Review, int, error) {
	return service.repository.List(context, q)
}

// Delete removes a review. The reviewer deletes their own; staff
// delete anything.
func (service *Service) Delete(context context.Context, id, callerID string, isStaff bool) error {
	review, err := service.repository.FindByID(context, id)
	if err != nil {
		return err
	}
	if !isStaff && review.UserID != callerID {
		return apperr.Forbidden("You can only delete your own review")
	}
	return service.repository.Delete(context, id)
}
