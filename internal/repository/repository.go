package repository

import (
	"context"
	"time"

	"github.com/yukikurage/task-tracker-api/internal/models"
)

// Store groups the repositories that share one database handle. Repositories
// obtained from the Store passed to WithinTransaction run inside that
// transaction.
type Store interface {
	Tasks() TaskRepository
	Roles() RoleAssignmentRepository
	AuditLogs() AuditLogRepository
	Users() UserRepository

	// WithinTransaction runs fn in a transaction; a returned error rolls it back.
	WithinTransaction(ctx context.Context, fn func(tx Store) error) error
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// FindOwnedByIDs returns the tasks among ids that belong to ownerID
	FindOwnedByIDs(ownerID uint64, ids []uint64) ([]models.Task, error)

	// ListByOwner returns every task of an owner in display order
	ListByOwner(ownerID uint64) ([]models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// MaxPosition returns the highest position among the owner's tasks, 0 if none
	MaxPosition(ownerID uint64) (uint64, error)

	// UpdateFields writes the given columns of a task
	UpdateFields(id uint64, fields map[string]interface{}) error

	// UpdatePosition writes only the position column
	UpdatePosition(id uint64, position uint64) error

	// Delete removes a task and its role assignments and detaches its audit entries
	Delete(id uint64) error

	// Totals aggregates counts over all tasks
	Totals() (models.OwnerSummary, error)

	// CountByPriority counts all tasks per priority
	CountByPriority() (map[models.TaskPriority]int64, error)

	// TopOwners returns the owners with the most tasks
	TopOwners(limit int) ([]OwnerTaskStats, error)

	// Recent returns the most recently created tasks
	Recent(limit int) ([]models.Task, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	// VisibleTo limits results to tasks owned by or actively assigned to the
	// user. Nil lists every task.
	VisibleTo     *uint64
	Status        *models.TaskStatus
	Priority      *models.TaskPriority
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Search        string
	OrderBy       TaskOrdering
	Descending    bool
	Page          int
	PageSize      int
}

// TaskOrdering names a sortable task column
type TaskOrdering string

const (
	OrderDefault   TaskOrdering = ""
	OrderPosition  TaskOrdering = "position"
	OrderCreatedAt TaskOrdering = "created_at"
	OrderUpdatedAt TaskOrdering = "updated_at"
	OrderStatus    TaskOrdering = "status"
	OrderPriority  TaskOrdering = "priority"
)

// OwnerTaskStats summarizes one owner's tasks for the administrator overview
type OwnerTaskStats struct {
	OwnerID      uint64 `json:"owner_id"`
	Username     string `json:"username"`
	Total        int64  `json:"total"`
	Completed    int64  `json:"completed"`
	HighPriority int64  `json:"high_priority"`
}

// RoleAssignmentRepository defines the interface for role assignment data access
type RoleAssignmentRepository interface {
	// Create creates a new assignment
	Create(assignment *models.TaskRoleAssignment) error

	// FindByID finds an active assignment on a task
	FindByID(taskID, id uint64) (*models.TaskRoleAssignment, error)

	// HasActive reports whether the user holds an active assignment on the
	// task, ignoring the assignment excludeID (0 to ignore none)
	HasActive(taskID, userID, excludeID uint64) (bool, error)

	// ListActive lists active assignments on a task, optionally for one user
	ListActive(taskID uint64, userID *uint64) ([]models.TaskRoleAssignment, error)

	// FindActiveForUser returns the user's active assignment on a task
	FindActiveForUser(taskID, userID uint64) (*models.TaskRoleAssignment, error)

	// UpdateFields writes the given columns of an assignment
	UpdateFields(id uint64, fields map[string]interface{}) error

	// Deactivate flips is_active to false
	Deactivate(id uint64) error
}

// AuditLogRepository defines the interface for audit log data access.
// Entries are append-only.
type AuditLogRepository interface {
	// Create appends an entry
	Create(entry *models.AuditLog) error

	// FindByID finds one of the user's entries
	FindByID(userID, id uint64) (*models.AuditLog, error)

	// List retrieves the user's entries newest first
	List(filter AuditLogFilter) ([]models.AuditLog, int64, error)
}

// AuditLogFilter holds filtering options for listing audit entries
type AuditLogFilter struct {
	UserID   uint64
	Action   string
	TaskID   *uint64
	Page     int
	PageSize int
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// UpdateFields writes the given columns of a user
	UpdateFields(id uint64, fields map[string]interface{}) error
}
