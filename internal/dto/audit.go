package dto

import (
	"encoding/json"
	"time"

	"github.com/yukikurage/task-tracker-api/internal/models"
)

// DeletedTaskTitle is shown for entries whose task no longer exists
const DeletedTaskTitle = "Deleted Task"

// AuditLogDTO represents an audit entry in API responses
type AuditLogDTO struct {
	ID              uint64          `json:"id"`
	User            uint64          `json:"user"`
	Username        string          `json:"username"`
	Task            *uint64         `json:"task"`
	TaskTitle       string          `json:"task_title"`
	Action          string          `json:"action"`
	ChangedData     string          `json:"changed_data"`
	ChangedDataJSON json.RawMessage `json:"changed_data_json"`
	Timestamp       time.Time       `json:"timestamp"`
}

// AuditLogListResponse represents a paginated list of audit entries
type AuditLogListResponse struct {
	Logs       []AuditLogDTO `json:"logs"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalCount int64         `json:"total_count"`
}

// ToAuditLogDTO converts an AuditLog model to AuditLogDTO
func ToAuditLogDTO(entry models.AuditLog) AuditLogDTO {
	dto := AuditLogDTO{
		ID:          entry.ID,
		User:        entry.UserID,
		Username:    entry.User.Username,
		Task:        entry.TaskID,
		TaskTitle:   DeletedTaskTitle,
		Action:      entry.Action,
		ChangedData: string(entry.ChangedData),
		Timestamp:   entry.Timestamp,
	}

	if entry.Task != nil && entry.TaskID != nil {
		dto.TaskTitle = entry.Task.Title
	}
	if json.Valid(entry.ChangedData) {
		dto.ChangedDataJSON = json.RawMessage(entry.ChangedData)
	} else {
		dto.ChangedDataJSON = json.RawMessage("null")
	}

	return dto
}

// ToAuditLogListResponse converts a slice of entries to AuditLogListResponse
func ToAuditLogListResponse(entries []models.AuditLog, page, pageSize int, totalCount int64) AuditLogListResponse {
	items := make([]AuditLogDTO, len(entries))
	for i, entry := range entries {
		items[i] = ToAuditLogDTO(entry)
	}

	return AuditLogListResponse{
		Logs:       items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
	}
}
