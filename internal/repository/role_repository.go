package repository

import (
	"github.com/yukikurage/task-tracker-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRoleAssignmentRepository is a GORM implementation of RoleAssignmentRepository
type GormRoleAssignmentRepository struct {
	db *gorm.DB
}

// NewRoleAssignmentRepository creates a new RoleAssignmentRepository
func NewRoleAssignmentRepository(db *gorm.DB) RoleAssignmentRepository {
	return &GormRoleAssignmentRepository{db: db}
}

// Create creates a new assignment
func (r *GormRoleAssignmentRepository) Create(assignment *models.TaskRoleAssignment) error {
	return r.db.Omit(clause.Associations).Create(assignment).Error
}

// FindByID finds an active assignment on a task
func (r *GormRoleAssignmentRepository) FindByID(taskID, id uint64) (*models.TaskRoleAssignment, error) {
	var assignment models.TaskRoleAssignment
	if err := r.db.Preload("User").Preload("AssignedBy").
		Where("task_id = ? AND is_active = ?", taskID, true).
		First(&assignment, id).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

// HasActive reports whether the user holds an active assignment on the task
func (r *GormRoleAssignmentRepository) HasActive(taskID, userID, excludeID uint64) (bool, error) {
	query := r.db.Model(&models.TaskRoleAssignment{}).
		Where("task_id = ? AND user_id = ? AND is_active = ?", taskID, userID, true)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListActive lists active assignments on a task, optionally for one user
func (r *GormRoleAssignmentRepository) ListActive(taskID uint64, userID *uint64) ([]models.TaskRoleAssignment, error) {
	query := r.db.Preload("User").Preload("AssignedBy").
		Where("task_id = ? AND is_active = ?", taskID, true)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}

	var assignments []models.TaskRoleAssignment
	if err := query.Order("created_at DESC").Order("id DESC").Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

// FindActiveForUser returns the user's active assignment on a task
func (r *GormRoleAssignmentRepository) FindActiveForUser(taskID, userID uint64) (*models.TaskRoleAssignment, error) {
	var assignment models.TaskRoleAssignment
	if err := r.db.Where("task_id = ? AND user_id = ? AND is_active = ?", taskID, userID, true).
		First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

// UpdateFields writes the given columns of an assignment
func (r *GormRoleAssignmentRepository) UpdateFields(id uint64, fields map[string]interface{}) error {
	return r.db.Model(&models.TaskRoleAssignment{ID: id}).Updates(fields).Error
}

// Deactivate flips is_active to false
func (r *GormRoleAssignmentRepository) Deactivate(id uint64) error {
	return r.db.Model(&models.TaskRoleAssignment{ID: id}).Update("is_active", false).Error
}
