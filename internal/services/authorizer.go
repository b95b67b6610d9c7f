package services

import (
	"fmt"

	"github.com/yukikurage/task-tracker-api/internal/models"
)

// Principal is the authenticated user a request acts as.
type Principal struct {
	UserID      uint64
	IsStaff     bool
	IsSuperuser bool
	// CanManage is the management capability: role assignment and oversight
	// of tasks the principal does not own.
	CanManage bool
}

// PrincipalFromUser derives a principal from a stored user.
func PrincipalFromUser(user *models.User) Principal {
	return Principal{
		UserID:      user.ID,
		IsStaff:     user.IsStaff,
		IsSuperuser: user.IsSuperuser,
		CanManage:   user.CanManageTasks,
	}
}

// IsAdmin reports access to staff-only endpoints.
func (p Principal) IsAdmin() bool {
	return p.IsStaff || p.IsSuperuser
}

// HasOversight reports superuser or management capability.
func (p Principal) HasOversight() bool {
	return p.IsSuperuser || p.CanManage
}

// Operation is an action on a task or one of its role assignments.
type Operation string

const (
	OpView             Operation = "view"
	OpEditFull         Operation = "edit_full"
	OpEditLimited      Operation = "edit_limited"
	OpDelete           Operation = "delete"
	OpAssignRole       Operation = "assign_role"
	OpModifyAssignment Operation = "modify_assignment"
)

// limitedEditableFields are the fields a delegate may write.
var limitedEditableFields = map[string]struct{}{
	FieldStatus: {},
}

// AccessRequest describes one authorization question.
type AccessRequest struct {
	Principal Principal
	Task      *models.Task
	Operation Operation
	// HasActiveRole is whether the principal holds an active role on Task.
	HasActiveRole bool
	// Fields are the fields an edit would write.
	Fields []string
	// Assignment is the assignment targeted by OpModifyAssignment.
	Assignment *models.TaskRoleAssignment
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Err returns nil for an allowed decision and an ErrForbidden otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
}

// Authorizer decides task and role-assignment access.
//
//	principal              view  full edit  limited edit  delete  assign  modify assignment
//	superuser / manager    yes   yes        -             yes     yes     superuser; manager if assigner or subject
//	owner                  yes   yes        -             yes     yes     yes
//	active delegate        yes   no         status only   no      no      no
//	anyone else            no    no         no            no      no      no
type Authorizer struct{}

// NewAuthorizer creates a new Authorizer
func NewAuthorizer() *Authorizer {
	return &Authorizer{}
}

// Decide answers req.
func (a *Authorizer) Decide(req AccessRequest) Decision {
	p := req.Principal
	if req.Task == nil {
		return deny("task is required")
	}
	isOwner := req.Task.OwnerID == p.UserID

	switch req.Operation {
	case OpView:
		if p.HasOversight() || isOwner || req.HasActiveRole {
			return allow()
		}
		return deny("you do not have access to this task")

	case OpEditFull, OpDelete:
		if p.HasOversight() || isOwner {
			return allow()
		}
		if req.Operation == OpDelete {
			return deny("only the task owner can delete this task")
		}
		return deny("only the task owner can edit this task")

	case OpEditLimited:
		if !req.HasActiveRole {
			return deny("you do not have a role on this task")
		}
		for _, field := range req.Fields {
			if _, ok := limitedEditableFields[field]; !ok {
				return deny(fmt.Sprintf("collaborators may not change %s", field))
			}
		}
		return allow()

	case OpAssignRole:
		if p.HasOversight() || isOwner {
			return allow()
		}
		return deny("you are not allowed to assign roles for this task")

	case OpModifyAssignment:
		if req.Assignment == nil {
			return deny("assignment is required")
		}
		if p.IsSuperuser || isOwner {
			return allow()
		}
		if p.CanManage && (req.Assignment.AssignedByID == p.UserID || req.Assignment.UserID == p.UserID) {
			return allow()
		}
		return deny("you cannot modify this assignment")
	}

	return deny(fmt.Sprintf("unknown operation %q", req.Operation))
}

// DecideEdit allows a full edit for owners and overseers, and a limited edit
// for delegates whose field set fits the limited set.
func (a *Authorizer) DecideEdit(p Principal, task *models.Task, hasActiveRole bool, fields []string) Decision {
	full := a.Decide(AccessRequest{Principal: p, Task: task, Operation: OpEditFull})
	if full.Allowed {
		return full
	}
	if !hasActiveRole {
		return full
	}
	return a.Decide(AccessRequest{
		Principal:     p,
		Task:          task,
		Operation:     OpEditLimited,
		HasActiveRole: true,
		Fields:        fields,
	})
}
