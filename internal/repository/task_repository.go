package repository

import (
	"fmt"
	"strings"

	"github.com/yukikurage/task-tracker-api/internal/database"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const priorityWeightExpr = "CASE tasks.priority WHEN 'High' THEN 3 WHEN 'Medium' THEN 2 WHEN 'Low' THEN 1 ELSE 0 END"

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Omit(clause.Associations).Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	// Apply preloading if specified
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// FindOwnedByIDs returns the tasks among ids that belong to ownerID
func (r *GormTaskRepository) FindOwnedByIDs(ownerID uint64, ids []uint64) ([]models.Task, error) {
	var tasks []models.Task
	if len(ids) == 0 {
		return tasks, nil
	}

	if err := r.db.Preload("Owner").Where("owner_id = ? AND id IN ?", ownerID, ids).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListByOwner returns every task of an owner in display order
func (r *GormTaskRepository) ListByOwner(ownerID uint64) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.Preload("Owner").
		Where("owner_id = ?", ownerID).
		Order("position DESC").
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.Model(&models.Task{})

	if filter.VisibleTo != nil {
		roleSubQuery := r.db.Model(&models.TaskRoleAssignment{}).
			Select("1").
			Where("task_role_assignments.task_id = tasks.id").
			Where("task_role_assignments.user_id = ?", *filter.VisibleTo).
			Where("task_role_assignments.is_active = ?", true)
		query = query.Where("(tasks.owner_id = ? OR EXISTS (?))", *filter.VisibleTo, roleSubQuery)
	}

	// Apply filters
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("tasks.created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("tasks.created_at <= ?", *filter.CreatedBefore)
	}
	if filter.Search != "" {
		pattern := containsPattern(filter.Search)
		query = query.Where("(LOWER(tasks.title) LIKE ? ESCAPE '!' OR LOWER(tasks.description) LIKE ? ESCAPE '!')", pattern, pattern)
	}

	base := query.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := applyTaskOrdering(base, filter.OrderBy, filter.Descending)

	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.NewPaginationParams(filter.Page, filter.PageSize)))
	}

	if err := listQuery.Preload("Owner").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

func applyTaskOrdering(query *gorm.DB, orderBy TaskOrdering, desc bool) *gorm.DB {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}

	switch orderBy {
	case OrderPriority:
		return query.Order(fmt.Sprintf("%s %s", priorityWeightExpr, dir)).Order("tasks.created_at DESC")
	case OrderPosition, OrderCreatedAt, OrderUpdatedAt, OrderStatus:
		return query.Order(fmt.Sprintf("tasks.%s %s", orderBy, dir)).Order("tasks.id DESC")
	default:
		return query.Order("tasks.position DESC").Order("tasks.created_at DESC")
	}
}

// MaxPosition returns the highest position among the owner's tasks, 0 if none
func (r *GormTaskRepository) MaxPosition(ownerID uint64) (uint64, error) {
	var maxPosition uint64
	err := r.db.Model(&models.Task{}).
		Select("COALESCE(MAX(position), 0)").
		Where("owner_id = ?", ownerID).
		Scan(&maxPosition).Error
	return maxPosition, err
}

// UpdateFields writes the given columns of a task
func (r *GormTaskRepository) UpdateFields(id uint64, fields map[string]interface{}) error {
	return r.db.Model(&models.Task{ID: id}).Updates(fields).Error
}

// UpdatePosition writes only the position column
func (r *GormTaskRepository) UpdatePosition(id uint64, position uint64) error {
	return r.db.Model(&models.Task{ID: id}).UpdateColumn("position", position).Error
}

// Delete removes a task and its role assignments and detaches its audit entries
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskRoleAssignment{}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.AuditLog{}).Where("task_id = ?", id).Update("task_id", nil).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, id).Error
	})
}

// Totals aggregates counts over all tasks
func (r *GormTaskRepository) Totals() (models.OwnerSummary, error) {
	var summary models.OwnerSummary
	err := r.db.Model(&models.Task{}).
		Select(
			"COUNT(*) AS total_tasks, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending, "+
				"COALESCE(SUM(CASE WHEN priority = ? THEN 1 ELSE 0 END), 0) AS high_priority",
			models.TaskStatusCompleted, models.TaskStatusPending, models.TaskPriorityHigh,
		).
		Scan(&summary).Error
	return summary, err
}

// CountByPriority counts all tasks per priority
func (r *GormTaskRepository) CountByPriority() (map[models.TaskPriority]int64, error) {
	var rows []struct {
		Priority models.TaskPriority
		Total    int64
	}
	if err := r.db.Model(&models.Task{}).
		Select("priority, COUNT(*) AS total").
		Group("priority").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := map[models.TaskPriority]int64{
		models.TaskPriorityHigh:   0,
		models.TaskPriorityMedium: 0,
		models.TaskPriorityLow:    0,
	}
	for _, row := range rows {
		counts[row.Priority] = row.Total
	}
	return counts, nil
}

// TopOwners returns the owners with the most tasks
func (r *GormTaskRepository) TopOwners(limit int) ([]OwnerTaskStats, error) {
	var stats []OwnerTaskStats
	err := r.db.Model(&models.Task{}).
		Select(
			"tasks.owner_id AS owner_id, users.username AS username, COUNT(tasks.id) AS total, "+
				"COALESCE(SUM(CASE WHEN tasks.status = ? THEN 1 ELSE 0 END), 0) AS completed, "+
				"COALESCE(SUM(CASE WHEN tasks.priority = ? THEN 1 ELSE 0 END), 0) AS high_priority",
			models.TaskStatusCompleted, models.TaskPriorityHigh,
		).
		Joins("JOIN users ON users.id = tasks.owner_id").
		Group("tasks.owner_id, users.username").
		Order("total DESC").
		Limit(limit).
		Scan(&stats).Error
	return stats, err
}

// Recent returns the most recently created tasks
func (r *GormTaskRepository) Recent(limit int) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.Preload("Owner").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern builds a lower-cased LIKE pattern matching term literally
// anywhere in a column. '!' is the escape character.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}
