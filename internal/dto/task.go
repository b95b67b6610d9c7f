package dto

import (
	"time"

	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
)

// CurrentAssignmentDTO is the requesting user's own active role on a task
type CurrentAssignmentDTO struct {
	ID                 uint64              `json:"id"`
	AssignedRole       models.AssignedRole `json:"assigned_role"`
	SubmissionDeadline *time.Time          `json:"submission_deadline"`
	FeedbackNotes      string              `json:"feedback_notes"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID                uint64                `json:"id"`
	Title             string                `json:"title"`
	Description       string                `json:"description"`
	Status            models.TaskStatus     `json:"status"`
	Priority          models.TaskPriority   `json:"priority"`
	Owner             uint64                `json:"owner"`
	OwnerUsername     string                `json:"owner_username"`
	OwnerEmail        string                `json:"owner_email"`
	CurrentAssignment *CurrentAssignmentDTO `json:"current_assignment"`
	Position          uint64                `json:"position"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO `json:"tasks"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalCount int64     `json:"total_count"`
	TotalPages int       `json:"total_pages"`
}

// OwnerStatsDTO is one row of the administrator leaderboard
type OwnerStatsDTO struct {
	Username     string `json:"username"`
	Total        int64  `json:"total"`
	Completed    int64  `json:"completed"`
	HighPriority int64  `json:"high_priority"`
}

// AdminOverviewDTO represents the staff-only aggregate view
type AdminOverviewDTO struct {
	Totals            models.OwnerSummary `json:"totals"`
	PriorityBreakdown map[string]int64    `json:"priority_breakdown"`
	StatusBreakdown   map[string]int64    `json:"status_breakdown"`
	TopUsers          []OwnerStatsDTO     `json:"top_users"`
	RecentTasks       []TaskDTO           `json:"recent_tasks"`
}

// Conversion functions

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		Owner:       task.OwnerID,
		Position:    task.Position,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	// Include owner details if preloaded
	if task.Owner.ID != 0 {
		dto.OwnerUsername = task.Owner.Username
		dto.OwnerEmail = task.Owner.Email
	}

	return dto
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}
	return items
}

// WithCurrentAssignment attaches the viewer's active assignment, if any
func (t TaskDTO) WithCurrentAssignment(assignment *models.TaskRoleAssignment) TaskDTO {
	if assignment == nil {
		t.CurrentAssignment = nil
		return t
	}
	t.CurrentAssignment = &CurrentAssignmentDTO{
		ID:                 assignment.ID,
		AssignedRole:       assignment.AssignedRole,
		SubmissionDeadline: assignment.SubmissionDeadline,
		FeedbackNotes:      assignment.FeedbackNotes,
	}
	return t
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []TaskDTO, page, pageSize int, totalCount int64) TaskListResponse {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(totalCount) / pageSize
		if int(totalCount)%pageSize > 0 {
			totalPages++
		}
	}

	return TaskListResponse{
		Tasks:      tasks,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}

// ToAdminOverviewDTO assembles the staff overview response
func ToAdminOverviewDTO(totals models.OwnerSummary, byPriority map[models.TaskPriority]int64, top []repository.OwnerTaskStats, recent []models.Task) AdminOverviewDTO {
	users := make([]OwnerStatsDTO, len(top))
	for i, row := range top {
		users[i] = OwnerStatsDTO{
			Username:     row.Username,
			Total:        row.Total,
			Completed:    row.Completed,
			HighPriority: row.HighPriority,
		}
	}

	return AdminOverviewDTO{
		Totals: totals,
		PriorityBreakdown: map[string]int64{
			"high":   byPriority[models.TaskPriorityHigh],
			"medium": byPriority[models.TaskPriorityMedium],
			"low":    byPriority[models.TaskPriorityLow],
		},
		StatusBreakdown: map[string]int64{
			"completed": totals.Completed,
			"pending":   totals.Pending,
		},
		TopUsers:    users,
		RecentTasks: ToTaskDTOs(recent),
	}
}
