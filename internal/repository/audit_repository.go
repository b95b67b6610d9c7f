package repository

import (
	"github.com/yukikurage/task-tracker-api/internal/database"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAuditLogRepository is a GORM implementation of AuditLogRepository
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new AuditLogRepository
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Create appends an entry
func (r *GormAuditLogRepository) Create(entry *models.AuditLog) error {
	return r.db.Omit(clause.Associations).Create(entry).Error
}

// FindByID finds one of the user's entries
func (r *GormAuditLogRepository) FindByID(userID, id uint64) (*models.AuditLog, error) {
	var entry models.AuditLog
	if err := r.db.Preload("User").Preload("Task").
		Where("user_id = ?", userID).
		First(&entry, id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// List retrieves the user's entries newest first
func (r *GormAuditLogRepository) List(filter AuditLogFilter) ([]models.AuditLog, int64, error) {
	query := r.db.Model(&models.AuditLog{}).Where("audit_logs.user_id = ?", filter.UserID)
	if filter.Action != "" {
		query = query.Where("audit_logs.action = ?", filter.Action)
	}
	if filter.TaskID != nil {
		query = query.Where("audit_logs.task_id = ?", *filter.TaskID)
	}

	base := query.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := base.Order("audit_logs.timestamp DESC").Order("audit_logs.id DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.NewPaginationParams(filter.Page, filter.PageSize)))
	}

	var entries []models.AuditLog
	if err := listQuery.Preload("User").Preload("Task").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
