package ledger

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/critsec/iams/pkg/activity"
	"github.com/critsec/iams/pkg/apperr"
	"github.com/critsec/iams/pkg/catalog"
)

// LogSubmission is the identifier-first payload for a log-collection event.
type LogSubmission struct {
	Date       string  `json:"date"`
	UserID     uint    `json:"user_id"`
	EmployeeID uint    `json:"employee_id"`
	AssetID    uint    `json:"asset_id"`
	ProjectID  uint    `json:"project_id"`
	LogtypeID  uint    `json:"logtype_id"`
	Result     string  `json:"result"`
	Comments   *string `json:"comments,omitempty"`
}

// SubmitLog validates and inserts a log collection with its log_added
// activity in one transaction. A submission against the log type named
// "All Common Logtypes" fans out into one row per common log type; all rows
// and all activities commit atomically or not at all.
func (s *Store) SubmitLog(ctx context.Context, p LogSubmission) ([]uint, error) {
	date, err := parseDate(p.Date)
	if err != nil {
		return nil, err
	}
	if p.UserID == 0 {
		return nil, apperr.Validation("user is required")
	}
	if p.LogtypeID == 0 {
		return nil, apperr.Validation("log type is required")
	}
	if !logResults[p.Result] {
		return nil, apperr.Validation("invalid log result %q", p.Result)
	}

	logtype, err := s.catalog.GetLogType(p.LogtypeID)
	if err != nil {
		return nil, err
	}

	// Expand the fan-out submission into concrete log type ids.
	logtypeIDs := []uint{p.LogtypeID}
	if logtype.Name == catalog.AllCommonLogTypes {
		names := catalog.CommonLogTypeNames()
		byName, err := s.catalog.GetLogTypesByName(names)
		if err != nil {
			return nil, err
		}
		logtypeIDs = logtypeIDs[:0]
		for _, name := range names {
			lt, ok := byName[name]
			if !ok {
				return nil, apperr.Newf(apperr.KindCatalogMissing, "log type %q is not in the catalog", name)
			}
			logtypeIDs = append(logtypeIDs, lt.ID)
		}
	}

	meta := activity.MetaFromContext(ctx)
	var ids []uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := resolveCommon(tx, p.EmployeeID, p.AssetID, p.ProjectID); err != nil {
			return err
		}

		for _, ltID := range logtypeIDs {
			row := LogCollection{
				Date:       date,
				EmployeeID: p.EmployeeID,
				AssetID:    p.AssetID,
				ProjectID:  p.ProjectID,
				LogtypeID:  ltID,
				Result:     p.Result,
				Comments:   p.Comments,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("create log collection: %w", err)
			}
			if err := s.activities.WithTx(tx).Create(&activity.UserActivity{
				UserID:           p.UserID,
				EmployeeID:       &p.EmployeeID,
				Type:             activity.TypeLogAdded,
				Description:      fmt.Sprintf("Log collection recorded (%s)", p.Result),
				RelatedAssetID:   &p.AssetID,
				RelatedProjectID: &p.ProjectID,
				RelatedLogID:     &row.ID,
				Timestamp:        date,
				IP:               meta.IP,
				UserAgent:        meta.UserAgent,
				Metadata:         meta.CorrelationID,
			}); err != nil {
				return err
			}
			ids = append(ids, row.ID)
		}

		if p.Result == resultSuccess {
			return touchAsset(tx, p.AssetID, "last_log_collection", date)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ImageSubmission is the identifier-first payload for a disk-image capture.
type ImageSubmission struct {
	Date        string  `json:"date"`
	UserID      uint    `json:"user_id"`
	EmployeeID  uint    `json:"employee_id"`
	AssetID     uint    `json:"asset_id"`
	ProjectID   uint    `json:"project_id"`
	ImgmethodID uint    `json:"imgmethod_id"`
	ImgSizeMB   *int    `json:"img_size_mb,omitempty"`
	Result      string  `json:"result"`
	Comments    *string `json:"comments,omitempty"`
}

// SubmitImage validates and inserts an image collection with its
// image_captured activity in one transaction.
func (s *Store) SubmitImage(ctx context.Context, p ImageSubmission) (uint, error) {
	date, err := parseDate(p.Date)
	if err != nil {
		return 0, err
	}
	if p.UserID == 0 {
		return 0, apperr.Validation("user is required")
	}
	if p.ImgmethodID == 0 {
		return 0, apperr.Validation("imaging method is required")
	}
	if !imageDatResults[p.Result] {
		return 0, apperr.Validation("invalid image result %q", p.Result)
	}
	if p.ImgSizeMB != nil && *p.ImgSizeMB < 0 {
		return 0, apperr.Validation("image size must not be negative")
	}

	if _, err := s.catalog.GetImagingMethod(p.ImgmethodID); err != nil {
		return 0, err
	}

	meta := activity.MetaFromContext(ctx)
	row := ImageCollection{
		Date:        date,
		EmployeeID:  p.EmployeeID,
		AssetID:     p.AssetID,
		ProjectID:   p.ProjectID,
		ImgmethodID: p.ImgmethodID,
		ImgSizeMB:   p.ImgSizeMB,
		Result:      p.Result,
		Comments:    p.Comments,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := resolveCommon(tx, p.EmployeeID, p.AssetID, p.ProjectID); err != nil {
			return err
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("create image collection: %w", err)
		}
		if err := s.activities.WithTx(tx).Create(&activity.UserActivity{
			UserID:           p.UserID,
			EmployeeID:       &p.EmployeeID,
			Type:             activity.TypeImageCaptured,
			Description:      fmt.Sprintf("Disk image captured (%s)", p.Result),
			RelatedAssetID:   &p.AssetID,
			RelatedProjectID: &p.ProjectID,
			RelatedImageID:   &row.ID,
			Timestamp:        date,
			IP:               meta.IP,
			UserAgent:        meta.UserAgent,
			Metadata:         meta.CorrelationID,
		}); err != nil {
			return err
		}
		if p.Result == resultSuccess {
			return touchAsset(tx, p.AssetID, "last_image_collection", date)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return row.ID, nil
}

// DatSubmission is the identifier-first payload for a DAT update.
type DatSubmission struct {
	Date         string  `json:"date"`
	UserID       uint    `json:"user_id"`
	EmployeeID   uint    `json:"employee_id"`
	AssetID      uint    `json:"asset_id"`
	ProjectID    uint    `json:"project_id"`
	DatversionID uint    `json:"datversion_id"`
	DatfileName  string  `json:"datfile_name"`
	Result       string  `json:"result"`
	Comments     *string `json:"comments,omitempty"`
}

// SubmitDat validates and inserts a DAT update with its dat_updated
// activity in one transaction.
func (s *Store) SubmitDat(ctx context.Context, p DatSubmission) (uint, error) {
	date, err := parseDate(p.Date)
	if err != nil {
		return 0, err
	}
	if p.UserID == 0 {
		return 0, apperr.Validation("user is required")
	}
	if p.DatversionID == 0 {
		return 0, apperr.Validation("DAT version is required")
	}
	if p.DatfileName == "" {
		return 0, apperr.Validation("DAT file name is required")
	}
	if !imageDatResults[p.Result] {
		return 0, apperr.Validation("invalid DAT result %q", p.Result)
	}

	if _, err := s.catalog.GetDatVersion(p.DatversionID); err != nil {
		return 0, err
	}

	meta := activity.MetaFromContext(ctx)
	row := DatUpdate{
		Date:         date,
		EmployeeID:   p.EmployeeID,
		AssetID:      p.AssetID,
		ProjectID:    p.ProjectID,
		DatversionID: p.DatversionID,
		DatfileName:  p.DatfileName,
		Result:       p.Result,
		Comments:     p.Comments,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := resolveCommon(tx, p.EmployeeID, p.AssetID, p.ProjectID); err != nil {
			return err
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("create dat update: %w", err)
		}
		if err := s.activities.WithTx(tx).Create(&activity.UserActivity{
			UserID:           p.UserID,
			EmployeeID:       &p.EmployeeID,
			Type:             activity.TypeDatUpdated,
			Description:      fmt.Sprintf("DAT file %s installed (%s)", p.DatfileName, p.Result),
			RelatedAssetID:   &p.AssetID,
			RelatedProjectID: &p.ProjectID,
			RelatedDatID:     &row.ID,
			Timestamp:        date,
			IP:               meta.IP,
			UserAgent:        meta.UserAgent,
			Metadata:         meta.CorrelationID,
		}); err != nil {
			return err
		}
		if p.Result == resultSuccess {
			return touchAsset(tx, p.AssetID, "last_datfile_update", date)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return row.ID, nil
}
