package catalog

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/critsec/iams/pkg/apperr"
)

// Store provides read access to the reference catalog. Rows are mutated only
// by bootstrap tooling; the store is read-only. Lookups are not cached
// beyond a single request so catalog edits show up on the next load.
type Store struct {
	db *gorm.DB
}

// NewStore creates a catalog Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates every reference table.
func (s *Store) AutoMigrate() error {
	models := []any{
		&Building{}, &Floor{}, &Room{}, &SystemType{}, &OperatingSystem{},
		&HardwareManufacturer{}, &Department{}, &PrivilegeLevel{},
		&ImagingMethod{}, &LogType{}, &AvVersion{}, &DatVersion{},
		&VirtSource{}, &VMType{}, &VMStatus{},
	}
	for _, m := range models {
		if err := s.db.AutoMigrate(m); err != nil {
			return fmt.Errorf("auto-migrate catalog: %w", err)
		}
	}
	return nil
}

// Set names accepted by ListSet.
var setModels = map[string]func() any{
	"buildings":              func() any { return &[]Building{} },
	"floors":                 func() any { return &[]Floor{} },
	"rooms":                  func() any { return &[]Room{} },
	"system-types":           func() any { return &[]SystemType{} },
	"operating-systems":      func() any { return &[]OperatingSystem{} },
	"hardware-manufacturers": func() any { return &[]HardwareManufacturer{} },
	"departments":            func() any { return &[]Department{} },
	"privilege-levels":       func() any { return &[]PrivilegeLevel{} },
	"imaging-methods":        func() any { return &[]ImagingMethod{} },
	"log-types":              func() any { return &[]LogType{} },
	"av-versions":            func() any { return &[]AvVersion{} },
	"dat-versions":           func() any { return &[]DatVersion{} },
	"virt-sources":           func() any { return &[]VirtSource{} },
	"vm-types":               func() any { return &[]VMType{} },
	"vm-statuses":            func() any { return &[]VMStatus{} },
}

// SetNames returns the lookup set names served by ListSet.
func SetNames() []string {
	names := make([]string, 0, len(setModels))
	for name := range setModels {
		names = append(names, name)
	}
	return names
}

// ListSet returns every row of the named lookup set, ordered by name.
func (s *Store) ListSet(name string) (any, error) {
	newSlice, ok := setModels[name]
	if !ok {
		return nil, apperr.Newf(apperr.KindNotFound, "unknown catalog set %q", name)
	}
	rows := newSlice()
	if err := s.db.Order("name ASC").Find(rows).Error; err != nil {
		return nil, fmt.Errorf("list catalog set %s: %w", name, err)
	}
	return rows, nil
}

// GetLogType fetches a log type by ID.
func (s *Store) GetLogType(id uint) (*LogType, error) {
	var row LogType
	if err := s.db.First(&row, id).Error; err != nil {
		return nil, refErr("log type", id, err)
	}
	return &row, nil
}

// GetLogTypesByName fetches log types by exact name, keyed by name.
// Missing names are simply absent from the result.
func (s *Store) GetLogTypesByName(names []string) (map[string]LogType, error) {
	var rows []LogType
	if err := s.db.Where("name IN ?", names).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("lookup log types: %w", err)
	}
	out := make(map[string]LogType, len(rows))
	for _, r := range rows {
		out[r.Name] = r
	}
	return out, nil
}

// GetImagingMethod fetches an imaging method by ID.
func (s *Store) GetImagingMethod(id uint) (*ImagingMethod, error) {
	var row ImagingMethod
	if err := s.db.First(&row, id).Error; err != nil {
		return nil, refErr("imaging method", id, err)
	}
	return &row, nil
}

// GetDatVersion fetches a DAT version by ID.
func (s *Store) GetDatVersion(id uint) (*DatVersion, error) {
	var row DatVersion
	if err := s.db.First(&row, id).Error; err != nil {
		return nil, refErr("dat version", id, err)
	}
	return &row, nil
}

// GetVirtSource fetches a virtualization source by ID.
func (s *Store) GetVirtSource(id uint) (*VirtSource, error) {
	var row VirtSource
	if err := s.db.First(&row, id).Error; err != nil {
		return nil, refErr("virtualization source", id, err)
	}
	return &row, nil
}

// GetVMType fetches a VM type by ID.
func (s *Store) GetVMType(id uint) (*VMType, error) {
	var row VMType
	if err := s.db.First(&row, id).Error; err != nil {
		return nil, refErr("vm type", id, err)
	}
	return &row, nil
}

// GetVMStatus fetches a VM status by ID.
func (s *Store) GetVMStatus(id uint) (*VMStatus, error) {
	var row VMStatus
	if err := s.db.First(&row, id).Error; err != nil {
		return nil, refErr("vm status", id, err)
	}
	return &row, nil
}

// GetVMStatusByName fetches a VM status by its exact name. A missing row is
// a CatalogMissing error: the guard depends on it and the admin must seed
// the catalog.
func (s *Store) GetVMStatusByName(name string) (*VMStatus, error) {
	var row VMStatus
	if err := s.db.Where("name = ?", name).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.KindCatalogMissing, "vm status %q is not in the catalog", name)
		}
		return nil, fmt.Errorf("lookup vm status %q: %w", name, err)
	}
	return &row, nil
}

// GetDepartmentByName fetches a department by its exact name.
func (s *Store) GetDepartmentByName(name string) (*Department, error) {
	var row Department
	if err := s.db.Where("name = ?", name).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.KindCatalogMissing, "department %q is not in the catalog", name)
		}
		return nil, fmt.Errorf("lookup department %q: %w", name, err)
	}
	return &row, nil
}

// VMStatusNames returns id → name for every VM status. Listing queries use
// it to derive the status flags without per-row lookups.
func (s *Store) VMStatusNames() (map[uint]string, error) {
	var rows []VMStatus
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list vm statuses: %w", err)
	}
	out := make(map[uint]string, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Name
	}
	return out, nil
}

// refErr converts a lookup failure into a ReferentialIntegrity error for
// missing rows, passing other failures through wrapped.
func refErr(what string, id uint, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Newf(apperr.KindReferentialIntegrity, "%s %d does not exist", what, id)
	}
	return fmt.Errorf("lookup %s %d: %w", what, id, err)
}
