package models

import "time"

type AssignedRole string

const (
	RoleMember      AssignedRole = "Member"
	RoleReviewer    AssignedRole = "Reviewer"
	RoleContributor AssignedRole = "Contributor"
)

// Valid reports whether r is one of the assignable roles.
func (r AssignedRole) Valid() bool {
	switch r {
	case RoleMember, RoleReviewer, RoleContributor:
		return true
	}
	return false
}

// TaskRoleAssignment delegates a role on a task to another user.
// Revocation clears IsActive; rows are only removed together with their task.
type TaskRoleAssignment struct {
	ID                 uint64       `gorm:"primarykey" json:"id"`
	TaskID             uint64       `gorm:"not null;index" json:"task_id"`
	UserID             uint64       `gorm:"not null;index" json:"user_id"`
	AssignedRole       AssignedRole `gorm:"type:varchar(20);not null" json:"assigned_role"`
	SubmissionDeadline *time.Time   `json:"submission_deadline"`
	FeedbackNotes      string       `gorm:"type:text" json:"feedback_notes"`
	AssignedByID       uint64       `gorm:"not null" json:"assigned_by_id"`
	IsActive           bool         `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`

	// Relations
	Task       Task `gorm:"foreignKey:TaskID" json:"-"`
	User       User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	AssignedBy User `gorm:"foreignKey:AssignedByID" json:"assigned_by,omitempty"`
}
