// Package ledger implements the event ledger: the four append-only
// maintenance event tables, their submission guards, and the paginated
// listing service with pre-evaluated row flags.
package ledger

import (
	"time"

	"github.com/critsec/iams/pkg/flags"
)

const (
	resultSuccess = "Success"
	resultFailed  = "Failed"
)

// Result values accepted for log collections.
var logResults = map[string]bool{
	"Success":         true,
	"Partial Success": true,
	"Failed":          true,
	"No Logs Found":   true,
	"Access Denied":   true,
	"System Offline":  true,
}

// Result values accepted for image collections and DAT updates.
var imageDatResults = map[string]bool{
	"Success":         true,
	"Failed":          true,
	"Partial Success": true,
	"In Progress":     true,
	"Cancelled":       true,
}

// LogCollection records one log-collection action against an asset.
type LogCollection struct {
	ID         uint      `gorm:"primaryKey;column:id" json:"id"`
	Date       time.Time `gorm:"column:date;index;not null" json:"date"`
	EmployeeID uint      `gorm:"column:employee_id;index;not null" json:"employee_id"`
	AssetID    uint      `gorm:"column:asset_id;index;not null" json:"asset_id"`
	ProjectID  uint      `gorm:"column:project_id;index;not null" json:"project_id"`
	LogtypeID  uint      `gorm:"column:logtype_id;not null" json:"logtype_id"`
	Result     string    `gorm:"column:result;not null" json:"result"`
	Comments   *string   `gorm:"column:comments" json:"comments,omitempty"`
}

func (LogCollection) TableName() string { return "log_collections" }

// ImageCollection records one disk-image capture.
type ImageCollection struct {
	ID          uint      `gorm:"primaryKey;column:id" json:"id"`
	Date        time.Time `gorm:"column:date;index;not null" json:"date"`
	EmployeeID  uint      `gorm:"column:employee_id;index;not null" json:"employee_id"`
	AssetID     uint      `gorm:"column:asset_id;index;not null" json:"asset_id"`
	ProjectID   uint      `gorm:"column:project_id;index;not null" json:"project_id"`
	ImgmethodID uint      `gorm:"column:imgmethod_id;not null" json:"imgmethod_id"`
	ImgSizeMB   *int      `gorm:"column:img_size_mb" json:"img_size_mb,omitempty"`
	Result      string    `gorm:"column:result;not null" json:"result"`
	Comments    *string   `gorm:"column:comments" json:"comments,omitempty"`
}

func (ImageCollection) TableName() string { return "image_collections" }

// DatUpdate records one antivirus DAT file installation.
type DatUpdate struct {
	ID           uint      `gorm:"primaryKey;column:id" json:"id"`
	Date         time.Time `gorm:"column:date;index;not null" json:"date"`
	EmployeeID   uint      `gorm:"column:employee_id;index;not null" json:"employee_id"`
	AssetID      uint      `gorm:"column:asset_id;index;not null" json:"asset_id"`
	ProjectID    uint      `gorm:"column:project_id;index;not null" json:"project_id"`
	DatversionID uint      `gorm:"column:datversion_id;not null" json:"datversion_id"`
	DatfileName  string    `gorm:"column:datfile_name;not null" json:"datfile_name"`
	Result       string    `gorm:"column:result;not null" json:"result"`
	Comments     *string   `gorm:"column:comments" json:"comments,omitempty"`
}

func (DatUpdate) TableName() string { return "dat_updates" }

// VmCreation records a virtual machine derived from a captured image. It is
// the only event row that may be updated after insert (status, sizing and
// scan flags); version implements the optimistic concurrency check on the
// update path.
type VmCreation struct {
	ID                uint      `gorm:"primaryKey;column:id" json:"id"`
	AssetID           uint      `gorm:"column:asset_id;index;not null" json:"asset_id"`
	ProjectID         uint      `gorm:"column:project_id;index;not null" json:"project_id"`
	ImgcollectionID   uint      `gorm:"column:imgcollection_id;not null" json:"imgcollection_id"`
	VirtsourceID      uint      `gorm:"column:virtsource_id;not null" json:"virtsource_id"`
	CreatorEmployeeID uint      `gorm:"column:creator_employee_id;index;not null" json:"creator_employee_id"`
	VmtypeID          uint      `gorm:"column:vmtype_id;not null" json:"vmtype_id"`
	VmstatusID        uint      `gorm:"column:vmstatus_id;not null" json:"vmstatus_id"`
	RamMB             *int      `gorm:"column:ram_mb" json:"ram_mb,omitempty"`
	CPUCores          *int      `gorm:"column:cpu_cores" json:"cpu_cores,omitempty"`
	DiskSizeMB        *int      `gorm:"column:disk_size_mb" json:"disk_size_mb,omitempty"`
	AcasScanCompleted bool      `gorm:"column:acas_scan_completed;default:false" json:"acas_scan_completed"`
	ScapScanCompleted bool      `gorm:"column:scap_scan_completed;default:false" json:"scap_scan_completed"`
	Version           int       `gorm:"column:version;default:1;not null" json:"version"`
	CreatedAt         time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (VmCreation) TableName() string { return "vm_creations" }

// FlaggedLog is a log row with its listing flags pre-evaluated.
type FlaggedLog struct {
	LogCollection
	IsRecent            bool `json:"is_recent"`
	IsDuplicate         bool `json:"is_duplicate"`
	IsUnresolvedFailure bool `json:"is_unresolved_failure"`
}

// FlaggedImage is an image row with its listing flags pre-evaluated.
type FlaggedImage struct {
	ImageCollection
	IsRecent            bool `json:"is_recent"`
	IsDuplicate         bool `json:"is_duplicate"`
	IsUnresolvedFailure bool `json:"is_unresolved_failure"`
}

// FlaggedDat is a DAT row with its listing flags pre-evaluated.
type FlaggedDat struct {
	DatUpdate
	IsRecent            bool `json:"is_recent"`
	IsDuplicate         bool `json:"is_duplicate"`
	IsUnresolvedFailure bool `json:"is_unresolved_failure"`
}

// FlaggedVM is a VM row with its listing flags pre-evaluated. The four
// status flags replace the unresolved-failure flag on this stream.
type FlaggedVM struct {
	VmCreation
	StatusName  string `json:"status_name"`
	IsRecent    bool   `json:"is_recent"`
	IsDuplicate bool   `json:"is_duplicate"`
	flags.StatusFlags
}
