// Package activity implements the uniform activity stream. Every successful
// event write, asset write and delete request emits exactly one UserActivity
// row in the same transaction; the stream drives the dashboard.
package activity

import "time"

// Type enumerates the activity kinds written by the core.
type Type string

const (
	TypeVMCreated     Type = "vm_created"
	TypeVMUpdated     Type = "vm_updated"
	TypeImageCaptured Type = "image_captured"
	TypeLogAdded      Type = "log_added"
	TypeDatUpdated    Type = "dat_updated"
	TypeAssetCreated  Type = "asset_created"
	TypeAssetUpdated  Type = "asset_updated"
	TypeDeleteRequest Type = "delete_request"
)

// EventTypes lists the four activity types that mirror event-table writes,
// in dashboard series order: vm, image, log, dat.
func EventTypes() []Type {
	return []Type{TypeVMCreated, TypeImageCaptured, TypeLogAdded, TypeDatUpdated}
}

// UserActivity mirrors one user-visible action. Rows are never mutated
// after insert.
type UserActivity struct {
	ID               uint      `gorm:"primaryKey;column:id" json:"id"`
	UserID           uint      `gorm:"column:user_id;index;not null" json:"user_id"`
	EmployeeID       *uint     `gorm:"column:employee_id;index" json:"employee_id,omitempty"`
	Type             Type      `gorm:"column:type;index;not null" json:"type"`
	Description      string    `gorm:"column:description;not null" json:"description"`
	RelatedAssetID   *uint     `gorm:"column:related_asset_id;index" json:"related_asset_id,omitempty"`
	RelatedProjectID *uint     `gorm:"column:related_project_id;index" json:"related_project_id,omitempty"`
	RelatedLogID     *uint     `gorm:"column:related_log_id" json:"related_log_id,omitempty"`
	RelatedImageID   *uint     `gorm:"column:related_image_id" json:"related_image_id,omitempty"`
	RelatedDatID     *uint     `gorm:"column:related_dat_id" json:"related_dat_id,omitempty"`
	RelatedVMID      *uint     `gorm:"column:related_vm_id" json:"related_vm_id,omitempty"`
	Timestamp        time.Time `gorm:"column:timestamp;index;not null" json:"timestamp"`
	IP               string    `gorm:"column:ip" json:"ip,omitempty"`
	UserAgent        string    `gorm:"column:user_agent" json:"user_agent,omitempty"`
	Metadata         string    `gorm:"column:metadata" json:"metadata,omitempty"`
}

func (UserActivity) TableName() string { return "user_activities" }
