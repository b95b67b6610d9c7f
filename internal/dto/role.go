package dto

import (
	"time"

	"github.com/yukikurage/task-tracker-api/internal/models"
)

// RoleAssignmentDTO represents a role assignment in API responses
type RoleAssignmentDTO struct {
	ID                 uint64              `json:"id"`
	Task               uint64              `json:"task"`
	User               *UserDTO            `json:"user,omitempty"`
	AssignedRole       models.AssignedRole `json:"assigned_role"`
	SubmissionDeadline *time.Time          `json:"submission_deadline"`
	FeedbackNotes      string              `json:"feedback_notes"`
	AssignedBy         *UserDTO            `json:"assigned_by,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// ToRoleAssignmentDTO converts a TaskRoleAssignment model to RoleAssignmentDTO
func ToRoleAssignmentDTO(assignment models.TaskRoleAssignment) RoleAssignmentDTO {
	dto := RoleAssignmentDTO{
		ID:                 assignment.ID,
		Task:               assignment.TaskID,
		AssignedRole:       assignment.AssignedRole,
		SubmissionDeadline: assignment.SubmissionDeadline,
		FeedbackNotes:      assignment.FeedbackNotes,
		CreatedAt:          assignment.CreatedAt,
		UpdatedAt:          assignment.UpdatedAt,
	}

	if assignment.User.ID != 0 {
		user := ToUserDTO(assignment.User)
		dto.User = &user
	}
	if assignment.AssignedBy.ID != 0 {
		assignedBy := ToUserDTO(assignment.AssignedBy)
		dto.AssignedBy = &assignedBy
	}

	return dto
}

// ToRoleAssignmentDTOs converts a slice of assignments
func ToRoleAssignmentDTOs(assignments []models.TaskRoleAssignment) []RoleAssignmentDTO {
	items := make([]RoleAssignmentDTO, len(assignments))
	for i, assignment := range assignments {
		items[i] = ToRoleAssignmentDTO(assignment)
	}
	return items
}
