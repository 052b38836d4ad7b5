// Package catalog holds the immutable reference lookup sets: locations,
// system types, imaging methods, log types, antivirus/DAT versions, VM
// catalog rows and the people-adjacent lookups (departments, privilege
// levels). Rows are created at bootstrap and never deleted.
package catalog

import (
	"strings"
	"time"
)

// Building is a physical building assets live in.
type Building struct {
	ID   uint   `gorm:"primaryKey;column:id" json:"id"`
	Name string `gorm:"column:name;uniqueIndex;not null" json:"name"`
}

func (Building) TableName() string { return "buildings" }

// Floor is a floor within a building.
type Floor struct {
	ID   uint   `gorm:"primaryKey;column:id" json:"id"`
	Name string `gorm:"column:name;uniqueIndex;not null" json:"name"`
}

func (Floor) TableName() string { return "floors" }

// Room is a room within a floor.
type Room struct {
	ID   uint   `gorm:"primaryKey;column:id" json:"id"`
	Name string `gorm:"column:name;uniqueIndex;not null" json:"name"`
}

func (Room) TableName() string { return "rooms" }

// SystemType classifies an asset (server, workstation, PLC, ...).
type SystemType struct {
	ID   uint   `gorm:"primaryKey;column:id" json:"id"`
	Name string `gorm:"column:name;uniqueIndex;not null" json:"name"`
}

func (SystemType) TableName() string { return "system_types" }

// OperatingSystem is an OS an asset may run.
type OperatingSystem struct {
	ID   uint   `gorm:"primaryKey;column:id" json:"id"`
	Name string `gorm:"column:name;uniqueIndex;not null" json:"name"`
}

func (OperatingSystem) TableName() string { return "operating_systems" }

// HardwareManufacturer is a hardware vendor.
type HardwareManufacturer struct {
	ID   uint   `gorm:"primaryKey;column:id" json:"id"`
	Name string `gorm:"column:name;uniqueIndex;not null" json:"name"`
}

func (HardwareManufacturer) TableName() string { return "hardware_manufacturers" }

// Department groups employees and app users. The Cybersecurity department is
// distinguished: only its members may appear in event submission forms.
type Department struct {
	ID   uint   `gorm:"primaryKey;column:id" json:"id"`
	Name string `gorm:"column:name;uniqueIndex;not null" json:"name"`
}

func (Department) TableName() string { return "departments" }

// CybersecurityDepartment is the name of the distinguished department whose
// members are eligible event submitters.
const CybersecurityDepartment = "Cybersecurity"

// PrivilegeLevel is the coarse privilege field carried by app users.
type PrivilegeLevel struct {
	ID   uint   `gorm:"primaryKey;column:id" json:"id"`
	Name string `gorm:"column:name;uniqueIndex;not null" json:"name"`
}

func (PrivilegeLevel) TableName() string { return "privilege_levels" }

// ImagingMethod is the tool or procedure used for a disk-image capture.
type ImagingMethod struct {
	ID   uint   `gorm:"primaryKey;column:id" json:"id"`
	Name string `gorm:"column:name;uniqueIndex;not null" json:"name"`
}

func (ImagingMethod) TableName() string { return "imaging_methods" }

// LogType is the kind of logs collected from an asset.
type LogType struct {
	ID   uint   `gorm:"primaryKey;column:id" json:"id"`
	Name string `gorm:"column:name;uniqueIndex;not null" json:"name"`
}

func (LogType) TableName() string { return "log_types" }

// Log type names with special submission behavior. A submission against
// AllCommonLogTypes fans out into one row per common log type.
const (
	AllCommonLogTypes = "All Common Logtypes"

	LogTypeApplication = "Windows Event Application Logs"
	LogTypeSecurity    = "Windows Event Security Logs"
	LogTypeSystem      = "Windows Event System Logs"
)

// CommonLogTypeNames lists the log types the AllCommonLogTypes submission
// expands into.
func CommonLogTypeNames() []string {
	return []string{LogTypeApplication, LogTypeSecurity, LogTypeSystem}
}

// AvVersion is an antivirus engine version.
type AvVersion struct {
	ID        uint      `gorm:"primaryKey;column:id" json:"id"`
	Name      string    `gorm:"column:name;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (AvVersion) TableName() string { return "av_versions" }

// DatVersion is a definition-file version belonging to exactly one AvVersion.
// Modeled as a plain foreign key; there is no reverse pointer.
type DatVersion struct {
	ID          uint   `gorm:"primaryKey;column:id" json:"id"`
	Name        string `gorm:"column:name;uniqueIndex;not null" json:"name"`
	AvVersionID uint   `gorm:"column:av_version_id;index;not null" json:"av_version_id"`
}

func (DatVersion) TableName() string { return "dat_versions" }

// VirtSource is the virtualization platform a VM was created on.
type VirtSource struct {
	ID   uint   `gorm:"primaryKey;column:id" json:"id"`
	Name string `gorm:"column:name;uniqueIndex;not null" json:"name"`
}

func (VirtSource) TableName() string { return "virt_sources" }

// VMType classifies a virtual machine.
type VMType struct {
	ID   uint   `gorm:"primaryKey;column:id" json:"id"`
	Name string `gorm:"column:name;uniqueIndex;not null" json:"name"`
}

func (VMType) TableName() string { return "vm_types" }

// VMStatus is a lifecycle status a VM row may carry. Status names drive both
// the submission guard and the status-derived listing flags.
type VMStatus struct {
	ID   uint   `gorm:"primaryKey;column:id" json:"id"`
	Name string `gorm:"column:name;uniqueIndex;not null" json:"name"`
}

func (VMStatus) TableName() string { return "vm_statuses" }

// VM status names the guard and flag engine key on.
const (
	VMStatusWaitingScans     = "Fully Functional | Waiting For Scans"
	VMStatusFullyReady       = "Fully Functional | Ready For Use"
	VMStatusCreatedReady     = "Machine Created | Ready For Use"
	VMStatusTestingStartup   = "Machine Created | Testing Startup Processes"
	VMStatusBrokenPrefix     = "Non-Functional"
	vmStatusFunctionalSubstr = "Fully Functional"
	vmStatusReadySubstr      = "Ready For Use"
)

// RequiresScans reports whether a status name promises a fully functional,
// ready-for-use machine, i.e. the submission guard must verify both scans.
func RequiresScans(statusName string) bool {
	return strings.Contains(statusName, vmStatusFunctionalSubstr) &&
		strings.Contains(statusName, vmStatusReadySubstr)
}
