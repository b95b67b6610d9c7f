package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/services"
	"github.com/yukikurage/task-tracker-api/internal/utils"
)

// AuditHandler exposes the current user's audit trail. It is read-only.
type AuditHandler struct {
	auditService *services.AuditService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// ListLogs returns the current user's entries newest first
// Can filter by action and task
func (h *AuditHandler) ListLogs(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	input := services.ListLogsInput{Action: c.Query("action")}
	if raw := c.Query("task"); raw != "" {
		taskID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid task filter")
			return
		}
		input.TaskID = &taskID
	}

	params := utils.GetPaginationParams(c)
	input.Page = params.Page
	input.PageSize = params.Limit

	logs, total, err := h.auditService.ListLogs(principal, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToAuditLogListResponse(logs, params.Page, params.Limit, total))
}

// GetLog returns one of the current user's entries
func (h *AuditHandler) GetLog(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	entry, err := h.auditService.GetLog(principal, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToAuditLogDTO(*entry))
}
