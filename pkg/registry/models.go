// Package registry holds the asset inventory and the people directory:
// projects, physical assets, employees and app users, plus the asset
// delete-request protocol.
package registry

import "time"

// Project groups assets under one name.
type Project struct {
	ID        uint      `gorm:"primaryKey;column:id" json:"id"`
	Name      string    `gorm:"column:name;uniqueIndex;not null" json:"name"`
	Active    bool      `gorm:"column:active;default:true" json:"active"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Project) TableName() string { return "projects" }

// Asset is a physical industrial system pinned to one project and one
// physical location.
type Asset struct {
	ID                 uint       `gorm:"primaryKey;column:id" json:"id"`
	Name               string     `gorm:"column:name;uniqueIndex;not null" json:"name"`
	ProjectID          uint       `gorm:"column:project_id;index;not null" json:"project_id"`
	BuildingID         uint       `gorm:"column:building_id;not null" json:"building_id"`
	FloorID            uint       `gorm:"column:floor_id;not null" json:"floor_id"`
	RoomID             *uint      `gorm:"column:room_id" json:"room_id,omitempty"`
	SystypeID          uint       `gorm:"column:systype_id;not null" json:"systype_id"`
	OsID               *uint      `gorm:"column:os_id" json:"os_id,omitempty"`
	HwmanuID           *uint      `gorm:"column:hwmanu_id" json:"hwmanu_id,omitempty"`
	SerialNo           *string    `gorm:"column:serial_no" json:"serial_no,omitempty"`
	Barcode            *string    `gorm:"column:barcode" json:"barcode,omitempty"`
	PhysicalMemory     *int       `gorm:"column:physical_memory" json:"physical_memory,omitempty"`
	StorageTotal       *int       `gorm:"column:storage_total" json:"storage_total,omitempty"`
	StorageUsed        *int       `gorm:"column:storage_used" json:"storage_used,omitempty"`
	StorageRemaining   *int       `gorm:"column:storage_remaining" json:"storage_remaining,omitempty"`
	AvDeployment       bool       `gorm:"column:av_deployment;default:false" json:"av_deployment"`
	CpuID              *string    `gorm:"column:cpu_id" json:"cpu_id,omitempty"`
	GpuID              *string    `gorm:"column:gpu_id" json:"gpu_id,omitempty"`
	LastAcasScan       *time.Time `gorm:"column:last_acas_scan" json:"last_acas_scan,omitempty"`
	LastScapScan       *time.Time `gorm:"column:last_scap_scan" json:"last_scap_scan,omitempty"`
	LastLogCollection  *time.Time `gorm:"column:last_log_collection" json:"last_log_collection,omitempty"`
	LastImageCapture   *time.Time `gorm:"column:last_image_collection" json:"last_image_collection,omitempty"`
	LastDatfileUpdate  *time.Time `gorm:"column:last_datfile_update" json:"last_datfile_update,omitempty"`
}

func (Asset) TableName() string { return "assets" }

// Employee is the subject of maintenance actions.
type Employee struct {
	ID           uint   `gorm:"primaryKey;column:id" json:"id"`
	First        string `gorm:"column:first;not null" json:"first"`
	Last         string `gorm:"column:last;not null" json:"last"`
	Email        string `gorm:"column:email;uniqueIndex;not null" json:"email"`
	DepartmentID uint   `gorm:"column:department_id;index;not null" json:"department_id"`
	Active       bool   `gorm:"column:active;default:true" json:"active"`
}

func (Employee) TableName() string { return "employees" }

// AppUser is an authenticated principal of the dashboard.
type AppUser struct {
	ID           uint  `gorm:"primaryKey;column:id" json:"id"`
	First        string `gorm:"column:first;not null" json:"first"`
	Last         string `gorm:"column:last;not null" json:"last"`
	Email        string `gorm:"column:email;uniqueIndex;not null" json:"email"`
	EmployeeID   *uint  `gorm:"column:employee_id" json:"employee_id,omitempty"`
	DepartmentID uint   `gorm:"column:department_id;not null" json:"department_id"`
	PrivLevelID  uint   `gorm:"column:priv_level_id;not null" json:"priv_level_id"`
	Active       bool   `gorm:"column:active;default:true" json:"active"`
}

func (AppUser) TableName() string { return "app_users" }
