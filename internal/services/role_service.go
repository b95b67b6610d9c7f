package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"gorm.io/gorm"
)

// RoleService manages role delegation on tasks.
type RoleService struct {
	store      repository.Store
	authorizer *Authorizer
	now        func() time.Time
}

// NewRoleService creates a new RoleService
func NewRoleService(store repository.Store, authorizer *Authorizer) *RoleService {
	return &RoleService{
		store:      store,
		authorizer: authorizer,
		now:        time.Now,
	}
}

// AssignRoleInput represents input for delegating a role
type AssignRoleInput struct {
	UserID             uint64
	Role               models.AssignedRole
	SubmissionDeadline *time.Time
	FeedbackNotes      string
}

// UpdateAssignmentInput represents input for changing an assignment.
// Nil fields are left unchanged.
type UpdateAssignmentInput struct {
	Role               *models.AssignedRole
	SubmissionDeadline *time.Time
	FeedbackNotes      *string
}

// ListAssignments returns the active assignments on a task. Delegates only
// see their own.
func (s *RoleService) ListAssignments(principal Principal, taskID uint64) ([]models.TaskRoleAssignment, error) {
	task, _, err := loadVisibleTask(s.store, s.authorizer, principal, taskID)
	if err != nil {
		return nil, err
	}

	var onlyUser *uint64
	if !principal.HasOversight() && task.OwnerID != principal.UserID {
		userID := principal.UserID
		onlyUser = &userID
	}

	assignments, err := s.store.Roles().ListActive(taskID, onlyUser)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, nil
}

// GetAssignment returns one active assignment on a task
func (s *RoleService) GetAssignment(principal Principal, taskID, assignmentID uint64) (*models.TaskRoleAssignment, error) {
	task, _, err := loadVisibleTask(s.store, s.authorizer, principal, taskID)
	if err != nil {
		return nil, err
	}

	assignment, err := s.findAssignment(taskID, assignmentID)
	if err != nil {
		return nil, err
	}

	if !principal.HasOversight() && task.OwnerID != principal.UserID && assignment.UserID != principal.UserID {
		return nil, ErrAssignmentNotFound
	}
	return assignment, nil
}

// CurrentAssignment returns the user's active assignment on a task, or nil
func (s *RoleService) CurrentAssignment(taskID, userID uint64) (*models.TaskRoleAssignment, error) {
	assignment, err := s.store.Roles().FindActiveForUser(taskID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find assignment: %w", err)
	}
	return assignment, nil
}

// AssignRole delegates a role on a task to another user
func (s *RoleService) AssignRole(ctx context.Context, principal Principal, taskID uint64, input AssignRoleInput) (*models.TaskRoleAssignment, error) {
	task, hasRole, err := loadVisibleTask(s.store, s.authorizer, principal, taskID)
	if err != nil {
		return nil, err
	}

	decision := s.authorizer.Decide(AccessRequest{
		Principal:     principal,
		Task:          task,
		Operation:     OpAssignRole,
		HasActiveRole: hasRole,
	})
	if err := decision.Err(); err != nil {
		return nil, err
	}

	if !input.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if err := s.validateDeadline(input.SubmissionDeadline); err != nil {
		return nil, err
	}

	assignment := &models.TaskRoleAssignment{
		TaskID:             taskID,
		UserID:             input.UserID,
		AssignedRole:       input.Role,
		SubmissionDeadline: input.SubmissionDeadline,
		FeedbackNotes:      input.FeedbackNotes,
		AssignedByID:       principal.UserID,
		IsActive:           true,
	}

	err = inTransaction(ctx, s.store, func(tx repository.Store) error {
		if _, err := tx.Users().FindByID(input.UserID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownAssignee
			}
			return persistenceError("load assignee", err)
		}

		exists, err := tx.Roles().HasActive(taskID, input.UserID, 0)
		if err != nil {
			return persistenceError("check assignment", err)
		}
		if exists {
			return ErrDuplicateAssignment
		}

		if err := tx.Roles().Create(assignment); err != nil {
			return persistenceError("create assignment", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.findAssignment(taskID, assignment.ID)
}

// UpdateAssignment changes the role, deadline or notes of an assignment
func (s *RoleService) UpdateAssignment(ctx context.Context, principal Principal, taskID, assignmentID uint64, input UpdateAssignmentInput) (*models.TaskRoleAssignment, error) {
	assignment, err := s.authorizeModification(principal, taskID, assignmentID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, ErrInvalidRole
		}
		fields["assigned_role"] = *input.Role
	}
	if input.SubmissionDeadline != nil {
		if err := s.validateDeadline(input.SubmissionDeadline); err != nil {
			return nil, err
		}
		fields["submission_deadline"] = *input.SubmissionDeadline
	}
	if input.FeedbackNotes != nil {
		fields["feedback_notes"] = *input.FeedbackNotes
	}
	if len(fields) == 0 {
		return assignment, nil
	}

	err = inTransaction(ctx, s.store, func(tx repository.Store) error {
		exists, err := tx.Roles().HasActive(taskID, assignment.UserID, assignment.ID)
		if err != nil {
			return persistenceError("check assignment", err)
		}
		if exists {
			return ErrDuplicateAssignment
		}

		if err := tx.Roles().UpdateFields(assignment.ID, fields); err != nil {
			return persistenceError("update assignment", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.findAssignment(taskID, assignment.ID)
}

// RevokeAssignment deactivates an assignment. The row is kept.
func (s *RoleService) RevokeAssignment(principal Principal, taskID, assignmentID uint64) error {
	assignment, err := s.authorizeModification(principal, taskID, assignmentID)
	if err != nil {
		return err
	}

	if err := s.store.Roles().Deactivate(assignment.ID); err != nil {
		return persistenceError("revoke assignment", err)
	}
	return nil
}

func (s *RoleService) authorizeModification(principal Principal, taskID, assignmentID uint64) (*models.TaskRoleAssignment, error) {
	task, hasRole, err := loadVisibleTask(s.store, s.authorizer, principal, taskID)
	if err != nil {
		return nil, err
	}

	assignment, err := s.findAssignment(taskID, assignmentID)
	if err != nil {
		return nil, err
	}

	decision := s.authorizer.Decide(AccessRequest{
		Principal:     principal,
		Task:          task,
		Operation:     OpModifyAssignment,
		HasActiveRole: hasRole,
		Assignment:    assignment,
	})
	if err := decision.Err(); err != nil {
		return nil, err
	}
	return assignment, nil
}

func (s *RoleService) findAssignment(taskID, assignmentID uint64) (*models.TaskRoleAssignment, error) {
	assignment, err := s.store.Roles().FindByID(taskID, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to find assignment: %w", err)
	}
	return assignment, nil
}

func (s *RoleService) validateDeadline(deadline *time.Time) error {
	if deadline != nil && !deadline.After(s.now()) {
		return ErrDeadlineNotFuture
	}
	return nil
}
