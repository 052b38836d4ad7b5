package ledger

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/critsec/iams/pkg/activity"
	"github.com/critsec/iams/pkg/apperr"
	"github.com/critsec/iams/pkg/catalog"
)

// VMSubmission is the identifier-first payload for creating or updating a
// virtual machine record. On update, Version must carry the value the
// client loaded; a mismatch is a Conflict and the caller reloads.
type VMSubmission struct {
	UserID            uint `json:"user_id"`
	EmployeeID        uint `json:"employee_id"`
	AssetID           uint `json:"asset_id"`
	ProjectID         uint `json:"project_id"`
	ImgcollectionID   uint `json:"imgcollection_id"`
	VirtsourceID      uint `json:"virtsource_id"`
	VmtypeID          uint `json:"vmtype_id"`
	VmstatusID        uint `json:"vmstatus_id"`
	RamMB             *int `json:"ram_mb,omitempty"`
	CPUCores          *int `json:"cpu_cores,omitempty"`
	DiskSizeMB        *int `json:"disk_size_mb,omitempty"`
	AcasScanCompleted bool `json:"acas_scan_completed"`
	ScapScanCompleted bool `json:"scap_scan_completed"`
	Version           int  `json:"version,omitempty"`
}

// VMResult is returned by VM create and update: the persisted status (after
// the guard) and whether the guard overrode the chosen one.
type VMResult struct {
	ID              uint   `json:"id"`
	VmstatusID      uint   `json:"vmstatus_id"`
	StatusName      string `json:"status_name"`
	OverrideApplied bool   `json:"override_applied"`
	Version         int    `json:"version"`
}

func (p *VMSubmission) validate() error {
	if p.UserID == 0 {
		return apperr.Validation("user is required")
	}
	if p.EmployeeID == 0 {
		return apperr.Validation("employee is required")
	}
	if p.ImgcollectionID == 0 {
		return apperr.Validation("source image collection is required")
	}
	if p.VirtsourceID == 0 {
		return apperr.Validation("virtualization source is required")
	}
	if p.VmtypeID == 0 {
		return apperr.Validation("vm type is required")
	}
	if p.VmstatusID == 0 {
		return apperr.Validation("vm status is required")
	}
	return nil
}

// applyStatusGuard resolves the chosen status and downgrades it when the
// chosen name promises Fully Functional / Ready For Use but either required
// scan is incomplete. The persisted status then becomes the catalog row
// named exactly "Fully Functional | Waiting For Scans"; its absence is a
// CatalogMissing failure. The guard re-runs on every save, which makes the
// override idempotent.
func (s *Store) applyStatusGuard(p *VMSubmission) (statusID uint, statusName string, overridden bool, err error) {
	chosen, err := s.catalog.GetVMStatus(p.VmstatusID)
	if err != nil {
		return 0, "", false, err
	}

	if catalog.RequiresScans(chosen.Name) && !(p.AcasScanCompleted && p.ScapScanCompleted) {
		waiting, err := s.catalog.GetVMStatusByName(catalog.VMStatusWaitingScans)
		if err != nil {
			return 0, "", false, err
		}
		return waiting.ID, waiting.Name, waiting.ID != chosen.ID, nil
	}

	return chosen.ID, chosen.Name, false, nil
}

// CreateVM validates the payload, applies the status guard and inserts the
// VM row with its vm_created activity in one transaction.
func (s *Store) CreateVM(ctx context.Context, p VMSubmission) (*VMResult, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetVirtSource(p.VirtsourceID); err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetVMType(p.VmtypeID); err != nil {
		return nil, err
	}

	statusID, statusName, overridden, err := s.applyStatusGuard(&p)
	if err != nil {
		return nil, err
	}

	meta := activity.MetaFromContext(ctx)
	row := VmCreation{
		AssetID:           p.AssetID,
		ProjectID:         p.ProjectID,
		ImgcollectionID:   p.ImgcollectionID,
		VirtsourceID:      p.VirtsourceID,
		CreatorEmployeeID: p.EmployeeID,
		VmtypeID:          p.VmtypeID,
		VmstatusID:        statusID,
		RamMB:             p.RamMB,
		CPUCores:          p.CPUCores,
		DiskSizeMB:        p.DiskSizeMB,
		AcasScanCompleted: p.AcasScanCompleted,
		ScapScanCompleted: p.ScapScanCompleted,
		Version:           1,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := resolveCommon(tx, p.EmployeeID, p.AssetID, p.ProjectID); err != nil {
			return err
		}
		var img ImageCollection
		if err := tx.First(&img, p.ImgcollectionID).Error; err != nil {
			return refLookupErr("image collection", p.ImgcollectionID, err)
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("create vm: %w", err)
		}
		return s.activities.WithTx(tx).Create(&activity.UserActivity{
			UserID:           p.UserID,
			EmployeeID:       &p.EmployeeID,
			Type:             activity.TypeVMCreated,
			Description:      fmt.Sprintf("VM created with status %s", statusName),
			RelatedAssetID:   &p.AssetID,
			RelatedProjectID: &p.ProjectID,
			RelatedVMID:      &row.ID,
			IP:               meta.IP,
			UserAgent:        meta.UserAgent,
			Metadata:         meta.CorrelationID,
		})
	})
	if err != nil {
		return nil, err
	}

	return &VMResult{
		ID:              row.ID,
		VmstatusID:      statusID,
		StatusName:      statusName,
		OverrideApplied: overridden,
		Version:         row.Version,
	}, nil
}

// UpdateVM re-validates, re-applies the status guard and saves the row.
// The update is refused with Conflict when the row changed since the client
// loaded it (version mismatch). Only the user's chosen status can move a
// waiting-for-scans machine forward; completing the scans alone never does.
func (s *Store) UpdateVM(ctx context.Context, id uint, p VMSubmission) (*VMResult, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if p.Version < 1 {
		return nil, apperr.Validation("version is required on update")
	}

	statusID, statusName, overridden, err := s.applyStatusGuard(&p)
	if err != nil {
		return nil, err
	}

	meta := activity.MetaFromContext(ctx)
	var newVersion int
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing VmCreation
		if err := tx.First(&existing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Newf(apperr.KindNotFound, "vm %d not found", id)
			}
			return fmt.Errorf("load vm %d: %w", id, err)
		}

		if err := resolveCommon(tx, p.EmployeeID, p.AssetID, p.ProjectID); err != nil {
			return err
		}

		newVersion = p.Version + 1
		res := tx.Model(&VmCreation{}).
			Where("id = ? AND version = ?", id, p.Version).
			Updates(map[string]any{
				"asset_id":            p.AssetID,
				"project_id":          p.ProjectID,
				"virtsource_id":       p.VirtsourceID,
				"vmtype_id":           p.VmtypeID,
				"vmstatus_id":         statusID,
				"ram_mb":              p.RamMB,
				"cpu_cores":           p.CPUCores,
				"disk_size_mb":        p.DiskSizeMB,
				"acas_scan_completed": p.AcasScanCompleted,
				"scap_scan_completed": p.ScapScanCompleted,
				"version":             newVersion,
			})
		if res.Error != nil {
			return fmt.Errorf("update vm %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Newf(apperr.KindConflict, "vm %d was modified since load; reload and retry", id)
		}

		return s.activities.WithTx(tx).Create(&activity.UserActivity{
			UserID:           p.UserID,
			EmployeeID:       &p.EmployeeID,
			Type:             activity.TypeVMUpdated,
			Description:      fmt.Sprintf("VM updated to status %s", statusName),
			RelatedAssetID:   &p.AssetID,
			RelatedProjectID: &p.ProjectID,
			RelatedVMID:      &id,
			IP:               meta.IP,
			UserAgent:        meta.UserAgent,
			Metadata:         meta.CorrelationID,
		})
	})
	if err != nil {
		return nil, err
	}

	return &VMResult{
		ID:              id,
		VmstatusID:      statusID,
		StatusName:      statusName,
		OverrideApplied: overridden,
		Version:         newVersion,
	}, nil
}
