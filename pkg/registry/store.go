package registry

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/critsec/iams/pkg/activity"
	"github.com/critsec/iams/pkg/apperr"
	"github.com/critsec/iams/pkg/catalog"
)

// Store provides data access for projects, assets and the people directory.
// Asset writes emit their UserActivity row in the same transaction.
type Store struct {
	db         *gorm.DB
	activities *activity.Store
}

// NewStore creates a registry Store.
func NewStore(db *gorm.DB, activities *activity.Store) *Store {
	return &Store{db: db, activities: activities}
}

// AutoMigrate creates or updates the registry tables.
func (s *Store) AutoMigrate() error {
	for _, m := range []any{&Project{}, &Asset{}, &Employee{}, &AppUser{}} {
		if err := s.db.AutoMigrate(m); err != nil {
			return fmt.Errorf("auto-migrate registry: %w", err)
		}
	}
	return nil
}

// ListProjects returns all projects ordered by name.
func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	var rows []Project
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return rows, nil
}

// GetProject fetches one project.
func (s *Store) GetProject(ctx context.Context, id uint) (*Project, error) {
	var row Project
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.KindReferentialIntegrity, "project %d does not exist", id)
		}
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	return &row, nil
}

// ListAssets returns a page of assets ordered by name, plus the total count.
func (s *Store) ListAssets(ctx context.Context, page, pageSize int) ([]Asset, int64, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page < 1 {
		page = 1
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&Asset{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count assets: %w", err)
	}

	var rows []Asset
	err := s.db.WithContext(ctx).
		Order("name ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list assets: %w", err)
	}
	return rows, total, nil
}

// GetAsset fetches one asset.
func (s *Store) GetAsset(ctx context.Context, id uint) (*Asset, error) {
	var row Asset
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "asset %d not found", id)
		}
		return nil, fmt.Errorf("get asset %d: %w", id, err)
	}
	return &row, nil
}

// AssetsByProject returns exactly the assets whose project_id equals the
// given project. This backs the cascading asset dropdown: the asset choice
// is always a function of the selected project.
func (s *Store) AssetsByProject(ctx context.Context, projectID uint) ([]Asset, error) {
	var rows []Asset
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list assets for project %d: %w", projectID, err)
	}
	return rows, nil
}

// validateAsset enforces the asset invariants shared by create and update.
func validateAsset(a *Asset) error {
	if a.Name == "" {
		return apperr.Validation("asset name is required")
	}
	if a.ProjectID == 0 {
		return apperr.Validation("project is required")
	}
	if a.BuildingID == 0 || a.FloorID == 0 {
		return apperr.Validation("building and floor are required")
	}
	if a.SystypeID == 0 {
		return apperr.Validation("system type is required")
	}
	if a.StorageUsed != nil && a.StorageTotal != nil && *a.StorageUsed > *a.StorageTotal {
		return apperr.Validation("storage_used (%d) exceeds storage_total (%d)", *a.StorageUsed, *a.StorageTotal)
	}
	return nil
}

// CreateAsset inserts an asset and its asset_created activity atomically.
func (s *Store) CreateAsset(ctx context.Context, a *Asset, userID uint) error {
	if err := validateAsset(a); err != nil {
		return err
	}
	if userID == 0 {
		return apperr.Validation("user is required")
	}

	meta := activity.MetaFromContext(ctx)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := projectInTx(tx, a.ProjectID); err != nil {
			return err
		}
		if err := tx.Create(a).Error; err != nil {
			return wrapAssetWriteErr("create asset", err)
		}
		return s.activities.WithTx(tx).Create(&activity.UserActivity{
			UserID:           userID,
			Type:             activity.TypeAssetCreated,
			Description:      fmt.Sprintf("Asset %s created", a.Name),
			RelatedAssetID:   &a.ID,
			RelatedProjectID: &a.ProjectID,
			IP:               meta.IP,
			UserAgent:        meta.UserAgent,
			Metadata:         meta.CorrelationID,
		})
	})
}

// UpdateAsset saves an existing asset and its asset_updated activity
// atomically.
func (s *Store) UpdateAsset(ctx context.Context, a *Asset, userID uint) error {
	if a.ID == 0 {
		return apperr.Validation("asset id is required")
	}
	if err := validateAsset(a); err != nil {
		return err
	}
	if userID == 0 {
		return apperr.Validation("user is required")
	}

	meta := activity.MetaFromContext(ctx)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Asset
		if err := tx.First(&existing, a.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Newf(apperr.KindNotFound, "asset %d not found", a.ID)
			}
			return fmt.Errorf("load asset %d: %w", a.ID, err)
		}
		if _, err := projectInTx(tx, a.ProjectID); err != nil {
			return err
		}
		if err := tx.Save(a).Error; err != nil {
			return wrapAssetWriteErr("update asset", err)
		}
		return s.activities.WithTx(tx).Create(&activity.UserActivity{
			UserID:           userID,
			Type:             activity.TypeAssetUpdated,
			Description:      fmt.Sprintf("Asset %s updated", a.Name),
			RelatedAssetID:   &a.ID,
			RelatedProjectID: &a.ProjectID,
			IP:               meta.IP,
			UserAgent:        meta.UserAgent,
			Metadata:         meta.CorrelationID,
		})
	})
}

// ListEmployees returns employees ordered by last, first name. When
// submittersOnly is set, only active members of the Cybersecurity department
// are returned; they are the only people eligible to appear in event
// submission forms.
func (s *Store) ListEmployees(ctx context.Context, submittersOnly bool) ([]Employee, error) {
	q := s.db.WithContext(ctx).Model(&Employee{})
	if submittersOnly {
		q = q.Joins("JOIN departments ON departments.id = employees.department_id").
			Where("departments.name = ? AND employees.active = ?", catalog.CybersecurityDepartment, true)
	}
	var rows []Employee
	if err := q.Order("last ASC, first ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return rows, nil
}

// GetEmployee fetches one employee.
func (s *Store) GetEmployee(ctx context.Context, id uint) (*Employee, error) {
	var row Employee
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.KindReferentialIntegrity, "employee %d does not exist", id)
		}
		return nil, fmt.Errorf("get employee %d: %w", id, err)
	}
	return &row, nil
}

func projectInTx(tx *gorm.DB, id uint) (*Project, error) {
	var row Project
	if err := tx.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.KindReferentialIntegrity, "project %d does not exist", id)
		}
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	return &row, nil
}

// wrapAssetWriteErr maps unique-name violations to Validation so the form
// can surface them, leaving other failures wrapped.
func wrapAssetWriteErr(op string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Validation("asset name is already in use")
	}
	return fmt.Errorf("%s: %w", op, err)
}
