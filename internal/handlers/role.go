package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/middleware"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/services"
)

// RoleHandler serves role delegation on a task.
// Routes are mounted under RequireTaskAccess.
type RoleHandler struct {
	roleService *services.RoleService
}

// NewRoleHandler creates a new RoleHandler
func NewRoleHandler(roleService *services.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

// ListRoles lists the active assignments on a task
func (h *RoleHandler) ListRoles(c *gin.Context) {
	principal, task, ok := principalAndTask(c)
	if !ok {
		return
	}

	assignments, err := h.roleService.ListAssignments(principal, task.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRoleAssignmentDTOs(assignments))
}

// GetRole returns one assignment
func (h *RoleHandler) GetRole(c *gin.Context) {
	principal, task, ok := principalAndTask(c)
	if !ok {
		return
	}
	roleID, ok := parseIDParam(c, "role_id")
	if !ok {
		return
	}

	assignment, err := h.roleService.GetAssignment(principal, task.ID, roleID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRoleAssignmentDTO(*assignment))
}

// AssignRole delegates a role on the task to another user
func (h *RoleHandler) AssignRole(c *gin.Context) {
	principal, task, ok := principalAndTask(c)
	if !ok {
		return
	}

	type AssignRoleRequest struct {
		UserID             uint64              `json:"user_id" binding:"required"`
		AssignedRole       models.AssignedRole `json:"assigned_role" binding:"required"`
		SubmissionDeadline *time.Time          `json:"submission_deadline"`
		FeedbackNotes      string              `json:"feedback_notes"`
	}

	var req AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	assignment, err := h.roleService.AssignRole(c.Request.Context(), principal, task.ID, services.AssignRoleInput{
		UserID:             req.UserID,
		Role:               req.AssignedRole,
		SubmissionDeadline: req.SubmissionDeadline,
		FeedbackNotes:      req.FeedbackNotes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToRoleAssignmentDTO(*assignment))
}

// UpdateRole changes an assignment's role, deadline or notes
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	principal, task, ok := principalAndTask(c)
	if !ok {
		return
	}
	roleID, ok := parseIDParam(c, "role_id")
	if !ok {
		return
	}

	type UpdateRoleRequest struct {
		AssignedRole       *models.AssignedRole `json:"assigned_role"`
		SubmissionDeadline *time.Time           `json:"submission_deadline"`
		FeedbackNotes      *string              `json:"feedback_notes"`
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	assignment, err := h.roleService.UpdateAssignment(c.Request.Context(), principal, task.ID, roleID, services.UpdateAssignmentInput{
		Role:               req.AssignedRole,
		SubmissionDeadline: req.SubmissionDeadline,
		FeedbackNotes:      req.FeedbackNotes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRoleAssignmentDTO(*assignment))
}

// RevokeRole deactivates an assignment
func (h *RoleHandler) RevokeRole(c *gin.Context) {
	principal, task, ok := principalAndTask(c)
	if !ok {
		return
	}
	roleID, ok := parseIDParam(c, "role_id")
	if !ok {
		return
	}

	if err := h.roleService.RevokeAssignment(principal, task.ID, roleID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func principalAndTask(c *gin.Context) (services.Principal, models.Task, bool) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return services.Principal{}, models.Task{}, false
	}

	task, exists := middleware.GetTask(c)
	if !exists {
		apierrors.InternalError(c, "Task not found in context")
		return services.Principal{}, models.Task{}, false
	}
	return principal, task, true
}
