package services

import (
	"errors"
	"fmt"
)

// Error classes. Specific service errors wrap exactly one of these so the
// HTTP layer can map them to a status code with errors.Is.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("permission denied")
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrPersistence     = errors.New("persistence failure")
)

var (
	ErrTaskNotFound       = fmt.Errorf("task %w", ErrNotFound)
	ErrAssignmentNotFound = fmt.Errorf("role assignment %w", ErrNotFound)
	ErrAuditLogNotFound   = fmt.Errorf("audit log %w", ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)

	ErrTitleRequired      = fmt.Errorf("%w: title is required", ErrValidation)
	ErrTitleTooLong       = fmt.Errorf("%w: title is too long", ErrValidation)
	ErrInvalidStatus      = fmt.Errorf("%w: invalid status", ErrValidation)
	ErrInvalidPriority    = fmt.Errorf("%w: invalid priority", ErrValidation)
	ErrInvalidRole        = fmt.Errorf("%w: invalid role selection", ErrValidation)
	ErrDeadlineNotFuture  = fmt.Errorf("%w: submission deadline must be in the future", ErrValidation)
	ErrEmptyReorder       = fmt.Errorf("%w: task ids are required", ErrValidation)
	ErrInvalidReorderID   = fmt.Errorf("%w: task ids must be positive", ErrValidation)
	ErrDuplicateReorderID = fmt.Errorf("%w: task ids must be unique", ErrValidation)
	ErrReorderTaskMissing = fmt.Errorf("%w: one or more tasks could not be found", ErrValidation)
	ErrUnknownAssignee    = fmt.Errorf("%w: assignee does not exist", ErrValidation)

	ErrDuplicateAssignment = fmt.Errorf("%w: user already has a role on this task", ErrConflict)
)

// persistenceError wraps a store failure so that it classifies as ErrPersistence
// while keeping the underlying error inspectable.
func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
