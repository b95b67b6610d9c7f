package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/yukikurage/task-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/middleware"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/services"
	"github.com/yukikurage/task-tracker-api/internal/utils"
)

type TaskHandler struct {
	taskService    *services.TaskService
	roleService    *services.RoleService
	summaryService *services.SummaryService
}

func NewTaskHandler(taskService *services.TaskService, roleService *services.RoleService, summaryService *services.SummaryService) *TaskHandler {
	return &TaskHandler{
		taskService:    taskService,
		roleService:    roleService,
		summaryService: summaryService,
	}
}

// ListTasks returns the tasks visible to the current user
// Supports status, priority, created_after, created_before, search and ordering filters
func (h *TaskHandler) ListTasks(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	input := services.ListTasksInput{
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
	}

	if raw := c.Query("status"); raw != "" {
		status := models.TaskStatus(raw)
		if !status.Valid() {
			apierrors.BadRequest(c, "Invalid status filter")
			return
		}
		input.Status = &status
	}
	if raw := c.Query("priority"); raw != "" {
		priority := models.TaskPriority(raw)
		if !priority.Valid() {
			apierrors.BadRequest(c, "Invalid priority filter")
			return
		}
		input.Priority = &priority
	}

	var err error
	if input.CreatedAfter, err = parseTimeQuery(c, "created_after"); err != nil {
		apierrors.BadRequest(c, "Invalid created_after")
		return
	}
	if input.CreatedBefore, err = parseTimeQuery(c, "created_before"); err != nil {
		apierrors.BadRequest(c, "Invalid created_before")
		return
	}

	// Get pagination parameters
	params := utils.GetPaginationParams(c)
	input.Page = params.Page
	input.PageSize = params.Limit

	tasks, total, err := h.taskService.ListTasks(principal, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	items := make([]dto.TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = h.taskDTO(principal, task)
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(items, params.Page, params.Limit, total))
}

// GetTask returns a specific task by ID
// Task is already loaded by RequireTaskAccess middleware
func (h *TaskHandler) GetTask(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	task, exists := middleware.GetTask(c)
	if !exists {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	c.JSON(http.StatusOK, h.taskDTO(principal, task))
}

// CreateTask creates a new task owned by the current user
func (h *TaskHandler) CreateTask(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	type CreateTaskRequest struct {
		Title       string              `json:"title" binding:"required"`
		Description string              `json:"description"`
		Status      models.TaskStatus   `json:"status"`
		Priority    models.TaskPriority `json:"priority"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), principal, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.taskDTO(principal, *task))
}

type updateTaskRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Status      *models.TaskStatus   `json:"status"`
	Priority    *models.TaskPriority `json:"priority"`
}

// bodyKeys returns the sorted top-level keys of a JSON object body.
func bodyKeys(raw map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// PatchTask updates only the fields present in the body
func (h *TaskHandler) PatchTask(c *gin.Context) {
	h.updateTask(c, false)
}

// ReplaceTask replaces the editable fields of a task
func (h *TaskHandler) ReplaceTask(c *gin.Context) {
	h.updateTask(c, true)
}

func (h *TaskHandler) updateTask(c *gin.Context, replace bool) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	task, exists := middleware.GetTask(c)
	if !exists {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	var raw map[string]json.RawMessage
	if err := c.ShouldBindBodyWith(&raw, binding.JSON); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}
	var req updateTaskRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	input := services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Replace:     replace,
		Keys:        bodyKeys(raw),
	}
	if replace {
		if req.Title == nil {
			apierrors.BadRequest(c, "title is required")
			return
		}
		if req.Description == nil {
			empty := ""
			input.Description = &empty
		}
	}

	updated, err := h.taskService.UpdateTask(c.Request.Context(), principal, task.ID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.taskDTO(principal, *updated))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	task, exists := middleware.GetTask(c)
	if !exists {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), principal, task.ID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Summary returns counts over the current user's own tasks
func (h *TaskHandler) Summary(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	summary, err := h.summaryService.OwnerSummary(principal.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ReorderTasks rearranges the current user's tasks
func (h *TaskHandler) ReorderTasks(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	type ReorderRequest struct {
		TaskIDs []uint64 `json:"task_ids" binding:"required"`
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	tasks, err := h.taskService.ReorderTasks(c.Request.Context(), principal, req.TaskIDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Tasks reordered successfully",
		"data":    dto.ToTaskDTOs(tasks),
	})
}

// AdminOverview returns aggregate statistics over all tasks for staff users
func (h *TaskHandler) AdminOverview(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	overview, err := h.summaryService.AdminOverview(principal)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToAdminOverviewDTO(
		overview.Totals,
		overview.PriorityBreakdown,
		overview.TopUsers,
		overview.RecentTasks,
	))
}

// GenerateTasks generates task suggestions from text using AI
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	if _, ok := currentPrincipal(c); !ok {
		return
	}

	type GenerateTasksRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	generated, err := h.taskService.GenerateTasks(c.Request.Context(), services.GenerateTasksInput{Text: req.Text})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAIServiceNotConfigured):
			apierrors.ServiceUnavailable(c, "AI service is not configured. Please set OPENAI_API_KEY environment variable.")
		case errors.Is(err, services.ErrAINoTasksGenerated), errors.Is(err, services.ErrAINoValidTasks):
			apierrors.RespondWithError(c, http.StatusUnprocessableEntity, apierrors.NewAPIError(apierrors.ErrCodeOperationFailed, err.Error()))
		default:
			log.Printf("task generation failed: %v", err)
			apierrors.InternalError(c, "Failed to generate tasks")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": generated,
	})
}

// taskDTO attaches the viewer's own active assignment to a task. Owners
// never hold a role on their own task.
func (h *TaskHandler) taskDTO(principal services.Principal, task models.Task) dto.TaskDTO {
	item := dto.ToTaskDTO(task)
	if task.OwnerID == principal.UserID {
		return item
	}

	assignment, err := h.roleService.CurrentAssignment(task.ID, principal.UserID)
	if err != nil {
		log.Printf("failed to load assignment for task %d: %v", task.ID, err)
		return item
	}
	return item.WithCurrentAssignment(assignment)
}

// parseTimeQuery accepts RFC3339 timestamps or plain dates
func parseTimeQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}
