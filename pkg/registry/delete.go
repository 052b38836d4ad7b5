package registry

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/critsec/iams/pkg/activity"
	"github.com/critsec/iams/pkg/apperr"
)

// ConfirmationMatches reports whether the typed confirmation phrase accepts
// the delete request: the typed string, trimmed and compared
// case-insensitively, must equal "delete <asset-name>".
func ConfirmationMatches(typed, assetName string) bool {
	return strings.ToLower(strings.TrimSpace(typed)) == "delete "+strings.ToLower(assetName)
}

// SubmitDeleteRequest runs the asset delete-confirmation protocol. The asset
// row is never mutated: on a matching confirmation a delete_request activity
// referencing the asset and its project is inserted, and the actual removal
// is left to an out-of-band operator action.
func (s *Store) SubmitDeleteRequest(ctx context.Context, assetID uint, typed string, userID uint) error {
	if userID == 0 {
		return apperr.Validation("user is required")
	}

	asset, err := s.GetAsset(ctx, assetID)
	if err != nil {
		return err
	}

	if !ConfirmationMatches(typed, asset.Name) {
		return apperr.Newf(apperr.KindConfirmationMismatch,
			"confirmation does not match; type %q to request deletion", "delete "+asset.Name)
	}

	meta := activity.MetaFromContext(ctx)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.activities.WithTx(tx).Create(&activity.UserActivity{
			UserID:           userID,
			Type:             activity.TypeDeleteRequest,
			Description:      fmt.Sprintf("Deletion requested for asset %s", asset.Name),
			RelatedAssetID:   &asset.ID,
			RelatedProjectID: &asset.ProjectID,
			IP:               meta.IP,
			UserAgent:        meta.UserAgent,
			Metadata:         meta.CorrelationID,
		})
	})
}
