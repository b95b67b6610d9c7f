package services

import (
	"errors"
	"fmt"

	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"gorm.io/gorm"
)

// AuditService reads a user's own audit trail.
type AuditService struct {
	store repository.Store
}

// NewAuditService creates a new AuditService
func NewAuditService(store repository.Store) *AuditService {
	return &AuditService{store: store}
}

// ListLogsInput represents filters for listing audit entries
type ListLogsInput struct {
	Action   string
	TaskID   *uint64
	Page     int
	PageSize int
}

// ListLogs returns the principal's entries newest first
func (s *AuditService) ListLogs(principal Principal, input ListLogsInput) ([]models.AuditLog, int64, error) {
	logs, total, err := s.store.AuditLogs().List(repository.AuditLogFilter{
		UserID:   principal.UserID,
		Action:   input.Action,
		TaskID:   input.TaskID,
		Page:     input.Page,
		PageSize: input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, total, nil
}

// GetLog returns one of the principal's entries
func (s *AuditService) GetLog(principal Principal, id uint64) (*models.AuditLog, error) {
	entry, err := s.store.AuditLogs().FindByID(principal.UserID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuditLogNotFound
		}
		return nil, fmt.Errorf("failed to find audit log: %w", err)
	}
	return entry, nil
}
