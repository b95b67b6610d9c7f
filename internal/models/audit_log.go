package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions. The strings are part of the public API.
const (
	AuditActionTaskCreated     = "Task Created"
	AuditActionTaskUpdated     = "Task Updated"
	AuditActionStatusChanged   = "Status Changed"
	AuditActionPriorityChanged = "Priority Changed"
	AuditActionTaskDeleted     = "Task Deleted"
)

// AuditLog is an append-only record of a task mutation. TaskID is nulled
// when the task is deleted; the entry itself is kept.
type AuditLog struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	UserID      uint64         `gorm:"not null;index" json:"user_id"`
	TaskID      *uint64        `gorm:"index" json:"task_id"`
	Action      string         `gorm:"type:varchar(100);not null;index" json:"action"`
	ChangedData datatypes.JSON `json:"changed_data"`
	Timestamp   time.Time      `gorm:"autoCreateTime;index" json:"timestamp"`

	// Relations
	User User  `gorm:"foreignKey:UserID" json:"-"`
	Task *Task `gorm:"foreignKey:TaskID;constraint:OnDelete:SET NULL" json:"-"`
}
