package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yukikurage/task-tracker-api/internal/models"
)

func TestAuthorizer_Decide(t *testing.T) {
	const ownerID, delegateID, strangerID, managerID = 1, 2, 3, 4

	task := &models.Task{ID: 100, OwnerID: ownerID}
	owner := Principal{UserID: ownerID}
	delegate := Principal{UserID: delegateID}
	stranger := Principal{UserID: strangerID}
	manager := Principal{UserID: managerID, CanManage: true}
	superuser := Principal{UserID: 99, IsSuperuser: true}
	staff := Principal{UserID: 98, IsStaff: true}

	tests := []struct {
		name    string
		req     AccessRequest
		allowed bool
	}{
		{"owner views", AccessRequest{Principal: owner, Operation: OpView}, true},
		{"delegate views", AccessRequest{Principal: delegate, Operation: OpView, HasActiveRole: true}, true},
		{"revoked delegate cannot view", AccessRequest{Principal: delegate, Operation: OpView}, false},
		{"stranger cannot view", AccessRequest{Principal: stranger, Operation: OpView}, false},
		{"staff alone grants no task access", AccessRequest{Principal: staff, Operation: OpView}, false},
		{"manager views", AccessRequest{Principal: manager, Operation: OpView}, true},
		{"superuser views", AccessRequest{Principal: superuser, Operation: OpView}, true},

		{"owner edits", AccessRequest{Principal: owner, Operation: OpEditFull}, true},
		{"delegate cannot fully edit", AccessRequest{Principal: delegate, Operation: OpEditFull, HasActiveRole: true}, false},
		{"manager edits", AccessRequest{Principal: manager, Operation: OpEditFull}, true},

		{"delegate edits status", AccessRequest{Principal: delegate, Operation: OpEditLimited, HasActiveRole: true, Fields: []string{FieldStatus}}, true},
		{"delegate cannot edit title", AccessRequest{Principal: delegate, Operation: OpEditLimited, HasActiveRole: true, Fields: []string{FieldStatus, FieldTitle}}, false},
		{"stranger cannot edit status", AccessRequest{Principal: stranger, Operation: OpEditLimited, Fields: []string{FieldStatus}}, false},

		{"owner deletes", AccessRequest{Principal: owner, Operation: OpDelete}, true},
		{"delegate cannot delete", AccessRequest{Principal: delegate, Operation: OpDelete, HasActiveRole: true}, false},
		{"superuser deletes", AccessRequest{Principal: superuser, Operation: OpDelete}, true},

		{"owner assigns", AccessRequest{Principal: owner, Operation: OpAssignRole}, true},
		{"manager assigns", AccessRequest{Principal: manager, Operation: OpAssignRole}, true},
		{"delegate cannot assign", AccessRequest{Principal: delegate, Operation: OpAssignRole, HasActiveRole: true}, false},

		{"unknown operation", AccessRequest{Principal: superuser, Operation: Operation("archive")}, false},
	}

	authz := NewAuthorizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Task = task
			decision := authz.Decide(tt.req)
			assert.Equal(t, tt.allowed, decision.Allowed, decision.Reason)
			if !tt.allowed {
				assert.ErrorIs(t, decision.Err(), ErrForbidden)
			} else {
				assert.NoError(t, decision.Err())
			}
		})
	}
}

func TestAuthorizer_ModifyAssignment(t *testing.T) {
	task := &models.Task{ID: 1, OwnerID: 1}
	assignment := &models.TaskRoleAssignment{ID: 5, TaskID: 1, UserID: 2, AssignedByID: 4}

	tests := []struct {
		name      string
		principal Principal
		allowed   bool
	}{
		{"owner", Principal{UserID: 1}, true},
		{"superuser", Principal{UserID: 9, IsSuperuser: true}, true},
		{"manager who assigned", Principal{UserID: 4, CanManage: true}, true},
		{"manager who is the subject", Principal{UserID: 2, CanManage: true}, true},
		{"unrelated manager", Principal{UserID: 7, CanManage: true}, false},
		{"subject without management", Principal{UserID: 2}, false},
	}

	authz := NewAuthorizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := authz.Decide(AccessRequest{
				Principal:  tt.principal,
				Task:       task,
				Operation:  OpModifyAssignment,
				Assignment: assignment,
			})
			assert.Equal(t, tt.allowed, decision.Allowed)
		})
	}
}

func TestAuthorizer_DecideEdit(t *testing.T) {
	task := &models.Task{ID: 1, OwnerID: 1}
	delegate := Principal{UserID: 2}
	authz := NewAuthorizer()

	assert.True(t, authz.DecideEdit(Principal{UserID: 1}, task, false, []string{FieldTitle}).Allowed)
	assert.True(t, authz.DecideEdit(delegate, task, true, []string{FieldStatus}).Allowed)
	assert.False(t, authz.DecideEdit(delegate, task, true, []string{FieldPriority}).Allowed)
	assert.False(t, authz.DecideEdit(delegate, task, false, []string{FieldStatus}).Allowed)

	// A full replacement names every field, so it is never a limited edit.
	replace := UpdateTaskInput{Replace: true}.Fields()
	assert.False(t, authz.DecideEdit(delegate, task, true, replace).Allowed)

	// Sent keys count even when their value is null or unknown.
	status := models.TaskStatusCompleted
	sent := UpdateTaskInput{Status: &status, Keys: []string{FieldStatus, FieldTitle}}.Fields()
	assert.Equal(t, []string{FieldStatus, FieldTitle}, sent)
	assert.False(t, authz.DecideEdit(delegate, task, true, sent).Allowed)
	assert.False(t, authz.DecideEdit(delegate, task, true, []string{FieldStatus, "owner"}).Allowed)
	assert.True(t, authz.DecideEdit(delegate, task, true, UpdateTaskInput{Status: &status}.Fields()).Allowed)
}

func TestPrincipal_Capabilities(t *testing.T) {
	user := &models.User{ID: 3, IsStaff: true, CanManageTasks: true}
	p := PrincipalFromUser(user)

	assert.Equal(t, uint64(3), p.UserID)
	assert.True(t, p.IsAdmin())
	assert.True(t, p.HasOversight())
	assert.False(t, Principal{IsStaff: true}.HasOversight())
	assert.False(t, Principal{CanManage: true}.IsAdmin())
}
