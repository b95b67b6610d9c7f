package services

import (
	"encoding/json"
	"fmt"

	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"gorm.io/datatypes"
)

type oldNew struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// AuditTrail turns task mutations into audit log entries. All methods write
// through the repository they are given, normally one bound to the
// transaction of the mutation.
type AuditTrail struct{}

// NewAuditTrail creates a new AuditTrail
func NewAuditTrail() *AuditTrail {
	return &AuditTrail{}
}

// RecordCreated appends the "Task Created" entry with the initial field values.
func (a *AuditTrail) RecordCreated(repo repository.AuditLogRepository, actorID uint64, task *models.Task) error {
	taskID := task.ID
	return a.append(repo, actorID, &taskID, models.AuditActionTaskCreated, map[string]string{
		FieldTitle:       task.Title,
		FieldDescription: task.Description,
		FieldStatus:      string(task.Status),
		FieldPriority:    string(task.Priority),
	})
}

// RecordUpdated appends a dedicated entry for a status or priority change and
// one "Task Updated" entry carrying every change. Nothing is written for an
// empty change set.
func (a *AuditTrail) RecordUpdated(repo repository.AuditLogRepository, actorID uint64, task *models.Task, changes ChangeSet) error {
	if changes.Empty() {
		return nil
	}

	taskID := task.ID
	if change, ok := changes.Get(FieldStatus); ok {
		if err := a.append(repo, actorID, &taskID, models.AuditActionStatusChanged, oldNew{Old: change.Old, New: change.New}); err != nil {
			return err
		}
	}
	if change, ok := changes.Get(FieldPriority); ok {
		if err := a.append(repo, actorID, &taskID, models.AuditActionPriorityChanged, oldNew{Old: change.Old, New: change.New}); err != nil {
			return err
		}
	}

	all := make(map[string]oldNew, len(changes))
	for _, change := range changes {
		all[change.Field] = oldNew{Old: change.Old, New: change.New}
	}
	return a.append(repo, actorID, &taskID, models.AuditActionTaskUpdated, all)
}

// RecordDeleted appends the "Task Deleted" snapshot. It must run before the
// task row is removed; the entry does not reference the task.
func (a *AuditTrail) RecordDeleted(repo repository.AuditLogRepository, actorID uint64, task *models.Task) error {
	return a.append(repo, actorID, nil, models.AuditActionTaskDeleted, struct {
		TaskID      uint64 `json:"task_id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Status      string `json:"status"`
		Priority    string `json:"priority"`
	}{
		TaskID:      task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
	})
}

func (a *AuditTrail) append(repo repository.AuditLogRepository, actorID uint64, taskID *uint64, action string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	entry := &models.AuditLog{
		UserID:      actorID,
		TaskID:      taskID,
		Action:      action,
		ChangedData: datatypes.JSON(data),
	}
	if err := repo.Create(entry); err != nil {
		return persistenceError("append audit log", err)
	}
	return nil
}
