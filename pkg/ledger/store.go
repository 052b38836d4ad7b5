package ledger

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/critsec/iams/pkg/activity"
	"github.com/critsec/iams/pkg/apperr"
	"github.com/critsec/iams/pkg/catalog"
	"github.com/critsec/iams/pkg/registry"
)

// Store provides data access for the four event tables. Every submission
// commits the event row and its UserActivity atomically; the database is
// the only shared resource and each request runs in its own session.
type Store struct {
	db         *gorm.DB
	catalog    *catalog.Store
	activities *activity.Store
}

// NewStore creates a ledger Store.
func NewStore(db *gorm.DB, cat *catalog.Store, activities *activity.Store) *Store {
	return &Store{db: db, catalog: cat, activities: activities}
}

// AutoMigrate creates or updates the event tables.
func (s *Store) AutoMigrate() error {
	for _, m := range []any{&LogCollection{}, &ImageCollection{}, &DatUpdate{}, &VmCreation{}} {
		if err := s.db.AutoMigrate(m); err != nil {
			return fmt.Errorf("auto-migrate ledger: %w", err)
		}
	}
	return nil
}

// acceptedDateLayouts are tried in order when parsing submission datetimes.
var acceptedDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseDate parses a form datetime. An empty or unparseable value is a
// validation error; the form is preserved for correction.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, apperr.Validation("date is required")
	}
	for _, layout := range acceptedDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.Validation("cannot parse date %q", value)
}

// resolveCommon checks the identifiers shared by every submission: the
// employee, project and asset must resolve, and the asset must belong to
// the selected project (the form only ever offers assets of that project).
func resolveCommon(tx *gorm.DB, employeeID, assetID, projectID uint) error {
	if employeeID == 0 {
		return apperr.Validation("employee is required")
	}
	if assetID == 0 {
		return apperr.Validation("asset is required")
	}
	if projectID == 0 {
		return apperr.Validation("project is required")
	}

	var employee registry.Employee
	if err := tx.First(&employee, employeeID).Error; err != nil {
		return refLookupErr("employee", employeeID, err)
	}

	var project registry.Project
	if err := tx.First(&project, projectID).Error; err != nil {
		return refLookupErr("project", projectID, err)
	}

	var asset registry.Asset
	if err := tx.First(&asset, assetID).Error; err != nil {
		return refLookupErr("asset", assetID, err)
	}
	if asset.ProjectID != projectID {
		return apperr.Validation("asset %s does not belong to the selected project", asset.Name)
	}

	return nil
}

func refLookupErr(what string, id uint, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Newf(apperr.KindReferentialIntegrity, "%s %d does not exist", what, id)
	}
	return fmt.Errorf("lookup %s %d: %w", what, id, err)
}

// touchAsset stamps the asset's last-maintenance column when a submission
// succeeds with result Success.
func touchAsset(tx *gorm.DB, assetID uint, column string, at time.Time) error {
	if err := tx.Model(&registry.Asset{}).Where("id = ?", assetID).
		Update(column, at).Error; err != nil {
		return fmt.Errorf("update asset %s: %w", column, err)
	}
	return nil
}
