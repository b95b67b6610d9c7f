package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yukikurage/task-tracker-api/internal/constants"
	"github.com/yukikurage/task-tracker-api/internal/dto"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/realtime"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

// EventPublisher delivers events to an owner's live sessions. Implementations
// must not block and must not report delivery failures to the caller.
type EventPublisher interface {
	Publish(ownerID uint64, kind realtime.EventKind, payload interface{})
}

// TaskService runs the task mutation pipeline: authorize, diff, persist and
// audit in one transaction, then recompute the owner's summary and broadcast.
type TaskService struct {
	store      repository.Store
	authorizer *Authorizer
	audit      *AuditTrail
	publisher  EventPublisher
	aiService  *AIService
}

// NewTaskService creates a new TaskService
func NewTaskService(store repository.Store, authorizer *Authorizer, publisher EventPublisher, aiService *AIService) *TaskService {
	return &TaskService{
		store:      store,
		authorizer: authorizer,
		audit:      NewAuditTrail(),
		publisher:  publisher,
		aiService:  aiService,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Status        *models.TaskStatus
	Priority      *models.TaskPriority
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Search        string
	// Ordering is a column name, prefixed with "-" for descending order.
	Ordering string
	Page     int
	PageSize int
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
}

// UpdateTaskInput represents input for updating a task. Nil fields are left
// unchanged. Replace marks a full update, which only full editors may send.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
	Priority    *models.TaskPriority
	Replace     bool
	// Keys are the body keys the client sent, nulls and unknown keys
	// included. When set they replace the non-nil fields in Fields.
	Keys []string
}

// Fields lists the task fields the update writes.
func (in UpdateTaskInput) Fields() []string {
	if in.Replace {
		return []string{FieldTitle, FieldDescription, FieldStatus, FieldPriority}
	}
	if in.Keys != nil {
		return in.Keys
	}

	var fields []string
	if in.Title != nil {
		fields = append(fields, FieldTitle)
	}
	if in.Description != nil {
		fields = append(fields, FieldDescription)
	}
	if in.Status != nil {
		fields = append(fields, FieldStatus)
	}
	if in.Priority != nil {
		fields = append(fields, FieldPriority)
	}
	return fields
}

func (in UpdateTaskInput) apply(task models.Task) models.Task {
	if in.Title != nil {
		task.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		task.Description = *in.Description
	}
	if in.Status != nil {
		task.Status = *in.Status
	}
	if in.Priority != nil {
		task.Priority = *in.Priority
	}
	return task
}

// ParseOrdering turns "priority" / "-created_at" into a repository ordering.
// Unknown columns fall back to the default position order.
func ParseOrdering(value string) (repository.TaskOrdering, bool) {
	desc := strings.HasPrefix(value, "-")
	column := repository.TaskOrdering(strings.TrimPrefix(value, "-"))

	switch column {
	case repository.OrderPosition, repository.OrderCreatedAt, repository.OrderUpdatedAt,
		repository.OrderStatus, repository.OrderPriority:
		return column, desc
	}
	return repository.OrderDefault, false
}

// ListTasks returns the tasks visible to the principal
func (s *TaskService) ListTasks(principal Principal, input ListTasksInput) ([]models.Task, int64, error) {
	orderBy, desc := ParseOrdering(input.Ordering)

	filter := repository.TaskFilter{
		Status:        input.Status,
		Priority:      input.Priority,
		CreatedAfter:  input.CreatedAfter,
		CreatedBefore: input.CreatedBefore,
		Search:        strings.TrimSpace(input.Search),
		OrderBy:       orderBy,
		Descending:    desc,
		Page:          input.Page,
		PageSize:      input.PageSize,
	}
	if !principal.HasOversight() {
		userID := principal.UserID
		filter.VisibleTo = &userID
	}

	tasks, total, err := s.store.Tasks().List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task the principal may view
func (s *TaskService) GetTask(principal Principal, taskID uint64) (*models.Task, error) {
	task, _, err := loadVisibleTask(s.store, s.authorizer, principal, taskID, "Owner")
	if err != nil {
		return nil, err
	}
	return task, nil
}

// CreateTask creates a task owned by the principal at the top of their list
func (s *TaskService) CreateTask(ctx context.Context, principal Principal, input CreateTaskInput) (*models.Task, error) {
	if input.Status == "" {
		input.Status = models.TaskStatusPending
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}

	task := &models.Task{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		OwnerID:     principal.UserID,
	}
	if err := validateTask(*task); err != nil {
		return nil, err
	}

	err := inTransaction(ctx, s.store, func(tx repository.Store) error {
		position, err := NextPosition(tx.Tasks(), principal.UserID)
		if err != nil {
			return persistenceError("compute next position", err)
		}
		task.Position = position

		if err := tx.Tasks().Create(task); err != nil {
			return persistenceError("create task", err)
		}

		return s.audit.RecordCreated(tx.AuditLogs(), principal.UserID, task)
	})
	if err != nil {
		return nil, err
	}

	created := s.reload(task)
	s.broadcastTask(created.OwnerID, realtime.EventTaskCreated, created)
	return created, nil
}

// UpdateTask applies input to a task and records what changed
func (s *TaskService) UpdateTask(ctx context.Context, principal Principal, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, hasRole, err := loadVisibleTask(s.store, s.authorizer, principal, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizer.DecideEdit(principal, task, hasRole, input.Fields()).Err(); err != nil {
		return nil, err
	}

	var updated models.Task
	err = inTransaction(ctx, s.store, func(tx repository.Store) error {
		prev, err := tx.Tasks().FindByID(taskID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return persistenceError("load task", err)
		}

		next := input.apply(*prev)
		if err := validateTask(next); err != nil {
			return err
		}

		changes := DetectChanges(*prev, next)
		updated = next
		if changes.Empty() {
			return nil
		}

		if err := tx.Tasks().UpdateFields(taskID, changes.Columns()); err != nil {
			return persistenceError("update task", err)
		}

		return s.audit.RecordUpdated(tx.AuditLogs(), principal.UserID, &next, changes)
	})
	if err != nil {
		return nil, err
	}

	result := s.reload(&updated)
	s.broadcastTask(result.OwnerID, realtime.EventTaskUpdated, result)
	return result, nil
}

// DeleteTask removes a task, leaving a "Task Deleted" audit entry behind
func (s *TaskService) DeleteTask(ctx context.Context, principal Principal, taskID uint64) error {
	task, hasRole, err := loadVisibleTask(s.store, s.authorizer, principal, taskID)
	if err != nil {
		return err
	}

	decision := s.authorizer.Decide(AccessRequest{
		Principal:     principal,
		Task:          task,
		Operation:     OpDelete,
		HasActiveRole: hasRole,
	})
	if err := decision.Err(); err != nil {
		return err
	}

	err = inTransaction(ctx, s.store, func(tx repository.Store) error {
		current, err := tx.Tasks().FindByID(taskID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return persistenceError("load task", err)
		}

		if err := s.audit.RecordDeleted(tx.AuditLogs(), principal.UserID, current); err != nil {
			return err
		}

		if err := tx.Tasks().Delete(taskID); err != nil {
			return persistenceError("delete task", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(task.OwnerID, realtime.EventTaskDeleted, map[string]uint64{"id": taskID})
	s.broadcastSummary(task.OwnerID)
	return nil
}

// ReorderTasks reassigns the positions of the principal's tasks so that they
// appear in the order of ids. The set of position values is preserved.
func (s *TaskService) ReorderTasks(ctx context.Context, principal Principal, ids []uint64) ([]models.Task, error) {
	if err := ValidateReorderIDs(ids); err != nil {
		return nil, err
	}

	var ordered []models.Task
	err := inTransaction(ctx, s.store, func(tx repository.Store) error {
		tasks, err := tx.Tasks().FindOwnedByIDs(principal.UserID, ids)
		if err != nil {
			return persistenceError("load tasks", err)
		}

		updates, err := PlanReorder(tasks, ids)
		if err != nil {
			return err
		}

		moved := make(map[uint64]uint64, len(updates))
		for _, update := range updates {
			if err := tx.Tasks().UpdatePosition(update.TaskID, update.Position); err != nil {
				return persistenceError("update position", err)
			}
			moved[update.TaskID] = update.Position
		}

		byID := make(map[uint64]models.Task, len(tasks))
		for _, task := range tasks {
			if position, ok := moved[task.ID]; ok {
				task.Position = position
			}
			byID[task.ID] = task
		}
		ordered = make([]models.Task, 0, len(ids))
		for _, id := range ids {
			ordered = append(ordered, byID[id])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcastTaskList(principal.UserID)
	return ordered, nil
}

// GenerateTasksInput represents input for AI task generation
type GenerateTasksInput struct {
	Text string
}

// GenerateTasks uses AI to suggest tasks from free text. Nothing is persisted.
func (s *TaskService) GenerateTasks(ctx context.Context, input GenerateTasksInput) ([]GeneratedTask, error) {
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}

	aiTasks, err := s.aiService.GenerateTasksFromText(ctx, input.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		return nil, fmt.Errorf("AI generated too many tasks (max %d)", constants.MaxAIGeneratedTasks)
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	for _, aiTask := range aiTasks {
		if strings.TrimSpace(aiTask.Title) == "" {
			continue
		}
		if !aiTask.Priority.Valid() {
			aiTask.Priority = models.TaskPriorityMedium
		}
		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}

// loadVisibleTask fetches a task and reports whether the principal holds an
// active role on it. Tasks the principal may not view are reported as not
// found so their existence does not leak.
func loadVisibleTask(store repository.Store, authorizer *Authorizer, principal Principal, taskID uint64, preload ...string) (*models.Task, bool, error) {
	task, err := store.Tasks().FindByID(taskID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrTaskNotFound
		}
		return nil, false, fmt.Errorf("failed to find task: %w", err)
	}

	hasRole := false
	if task.OwnerID != principal.UserID && !principal.HasOversight() {
		hasRole, err = store.Roles().HasActive(task.ID, principal.UserID, 0)
		if err != nil {
			return nil, false, fmt.Errorf("failed to check task role: %w", err)
		}
	}

	decision := authorizer.Decide(AccessRequest{
		Principal:     principal,
		Task:          task,
		Operation:     OpView,
		HasActiveRole: hasRole,
	})
	if !decision.Allowed {
		return nil, false, ErrTaskNotFound
	}

	return task, hasRole, nil
}

// inTransaction classifies unexpected transaction failures as persistence errors.
func inTransaction(ctx context.Context, store repository.Store, fn func(tx repository.Store) error) error {
	err := store.WithinTransaction(ctx, fn)
	if err == nil || isClassified(err) {
		return err
	}
	return persistenceError("transaction", err)
}

// reload re-reads a committed task with its owner. The in-memory copy is
// returned if the read fails; the mutation has already been committed.
func (s *TaskService) reload(task *models.Task) *models.Task {
	fresh, err := s.store.Tasks().FindByID(task.ID, "Owner")
	if err != nil {
		log.Printf("failed to reload task %d after commit: %v", task.ID, err)
		return task
	}
	return fresh
}

func (s *TaskService) broadcastTask(ownerID uint64, kind realtime.EventKind, task *models.Task) {
	s.publisher.Publish(ownerID, kind, dto.ToTaskDTO(*task))
	s.broadcastSummary(ownerID)
}

// broadcastSummary recomputes and publishes the owner's summary. Failures are
// logged only; the mutation has already been committed.
func (s *TaskService) broadcastSummary(ownerID uint64) {
	tasks, err := s.store.Tasks().ListByOwner(ownerID)
	if err != nil {
		log.Printf("failed to recompute summary for user %d: %v", ownerID, err)
		return
	}
	s.publisher.Publish(ownerID, realtime.EventTaskSummary, ComputeSummary(tasks))
}

func (s *TaskService) broadcastTaskList(ownerID uint64) {
	tasks, err := s.store.Tasks().ListByOwner(ownerID)
	if err != nil {
		log.Printf("failed to load task list for user %d: %v", ownerID, err)
		return
	}
	s.publisher.Publish(ownerID, realtime.EventTasksReordered, dto.ToTaskDTOs(tasks))
}

func validateTask(task models.Task) error {
	if task.Title == "" {
		return ErrTitleRequired
	}
	if utf8.RuneCountInString(task.Title) > constants.MaxTitleLength {
		return ErrTitleTooLong
	}
	if !task.Status.Valid() {
		return ErrInvalidStatus
	}
	if !task.Priority.Valid() {
		return ErrInvalidPriority
	}
	return nil
}

func isClassified(err error) bool {
	for _, class := range []error{ErrUnauthenticated, ErrForbidden, ErrValidation, ErrNotFound, ErrConflict, ErrPersistence} {
		if errors.Is(err, class) {
			return true
		}
	}
	return false
}
