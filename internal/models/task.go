package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "Pending"
	TaskStatusCompleted TaskStatus = "Completed"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	return s == TaskStatusPending || s == TaskStatusCompleted
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "Low"
	TaskPriorityMedium TaskPriority = "Medium"
	TaskPriorityHigh   TaskPriority = "High"
)

// Valid reports whether p is one of the known priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Weight orders priorities Low < Medium < High.
func (p TaskPriority) Weight() int {
	switch p {
	case TaskPriorityHigh:
		return 3
	case TaskPriorityMedium:
		return 2
	case TaskPriorityLow:
		return 1
	}
	return 0
}

type Task struct {
	ID          uint64       `gorm:"primarykey" json:"id"`
	Title       string       `gorm:"type:varchar(255);not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Status      TaskStatus   `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`
	Priority    TaskPriority `gorm:"type:varchar(20);not null;default:'Medium';index" json:"priority"`
	OwnerID     uint64       `gorm:"not null;index" json:"owner_id"`
	Position    uint64       `gorm:"not null;default:0;index" json:"position"`
	CreatedAt   time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	// Relations
	Owner           User                 `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	RoleAssignments []TaskRoleAssignment `gorm:"foreignKey:TaskID" json:"role_assignments,omitempty"`
}
