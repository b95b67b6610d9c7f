package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/task-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/models"
)

// TaskHandlerTestSuite exercises the task routes through the full middleware chain
type TaskHandlerTestSuite struct {
	suite.Suite
	env *testEnv

	owner    *models.User
	delegate *models.User
	stranger *models.User
}

// SetupTest runs before each test
func (suite *TaskHandlerTestSuite) SetupTest() {
	suite.env = newTestEnv(suite.T())
	suite.owner = suite.env.createUser("owner")
	suite.delegate = suite.env.createUser("delegate")
	suite.stranger = suite.env.createUser("stranger")
}

func taskPath(id uint64) string {
	return fmt.Sprintf("/api/tasks/%d", id)
}

func (suite *TaskHandlerTestSuite) TestListTasks_Unauthorized() {
	w := suite.env.request(http.MethodGet, "/api/tasks", nil, nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *TaskHandlerTestSuite) TestListTasks_InvalidToken() {
	w := suite.env.requestWithHeader(http.MethodGet, "/api/tasks", "Bearer not-a-token")
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *TaskHandlerTestSuite) TestListTasks_Visibility() {
	own := suite.env.createTask(suite.owner, "Own task", 1)
	shared := suite.env.createTask(suite.stranger, "Shared task", 1)
	suite.env.createTask(suite.stranger, "Private task", 2)
	suite.env.assignRole(shared, suite.owner, suite.stranger)

	w := suite.env.request(http.MethodGet, "/api/tasks", nil, suite.owner)
	suite.Require().Equal(http.StatusOK, w.Code)

	var response dto.TaskListResponse
	decodeJSON(suite.T(), w, &response)
	suite.Equal(int64(2), response.TotalCount)
	suite.Equal(1, response.TotalPages)

	ids := map[uint64]dto.TaskDTO{}
	for _, task := range response.Tasks {
		ids[task.ID] = task
	}
	suite.Contains(ids, own.ID)
	suite.Contains(ids, shared.ID)

	suite.Nil(ids[own.ID].CurrentAssignment)
	suite.Require().NotNil(ids[shared.ID].CurrentAssignment)
	suite.Equal(models.RoleMember, ids[shared.ID].CurrentAssignment.AssignedRole)
	suite.Equal("stranger", ids[shared.ID].OwnerUsername)
}

func (suite *TaskHandlerTestSuite) TestListTasks_Filters() {
	suite.env.createTask(suite.owner, "Write report", 1, func(t *models.Task) {
		t.Priority = models.TaskPriorityHigh
	})
	suite.env.createTask(suite.owner, "Review report", 2, func(t *models.Task) {
		t.Status = models.TaskStatusCompleted
	})
	suite.env.createTask(suite.owner, "Plan offsite", 3)

	w := suite.env.request(http.MethodGet, "/api/tasks?status=Completed", nil, suite.owner)
	suite.Require().Equal(http.StatusOK, w.Code)
	var byStatus dto.TaskListResponse
	decodeJSON(suite.T(), w, &byStatus)
	suite.Require().Len(byStatus.Tasks, 1)
	suite.Equal("Review report", byStatus.Tasks[0].Title)

	w = suite.env.request(http.MethodGet, "/api/tasks?search=report&ordering=-priority", nil, suite.owner)
	suite.Require().Equal(http.StatusOK, w.Code)
	var bySearch dto.TaskListResponse
	decodeJSON(suite.T(), w, &bySearch)
	suite.Require().Len(bySearch.Tasks, 2)
	suite.Equal("Write report", bySearch.Tasks[0].Title)

	w = suite.env.request(http.MethodGet, "/api/tasks?limit=1&page=2", nil, suite.owner)
	suite.Require().Equal(http.StatusOK, w.Code)
	var paged dto.TaskListResponse
	decodeJSON(suite.T(), w, &paged)
	suite.Len(paged.Tasks, 1)
	suite.Equal(int64(3), paged.TotalCount)
	suite.Equal(3, paged.TotalPages)
	suite.Equal("Review report", paged.Tasks[0].Title)

	for _, query := range []string{"status=Done", "priority=Urgent", "created_after=yesterday"} {
		w = suite.env.request(http.MethodGet, "/api/tasks?"+query, nil, suite.owner)
		suite.Equal(http.StatusBadRequest, w.Code, query)
	}

	w = suite.env.request(http.MethodGet, "/api/tasks?created_after=2000-01-01", nil, suite.owner)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *TaskHandlerTestSuite) TestGetTask() {
	task := suite.env.createTask(suite.owner, "Test Task", 1)

	w := suite.env.request(http.MethodGet, taskPath(task.ID), nil, suite.owner)
	suite.Require().Equal(http.StatusOK, w.Code)

	var response dto.TaskDTO
	decodeJSON(suite.T(), w, &response)
	suite.Equal(task.ID, response.ID)
	suite.Equal(suite.owner.ID, response.Owner)
	suite.Equal("owner@example.com", response.OwnerEmail)
}

func (suite *TaskHandlerTestSuite) TestGetTask_HiddenFromStrangers() {
	task := suite.env.createTask(suite.owner, "Test Task", 1)

	w := suite.env.request(http.MethodGet, taskPath(task.ID), nil, suite.stranger)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.env.request(http.MethodGet, "/api/tasks/9999", nil, suite.owner)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.env.request(http.MethodGet, "/api/tasks/abc", nil, suite.owner)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestCreateTask() {
	w := suite.env.request(http.MethodPost, "/api/tasks", map[string]interface{}{
		"title":       "New Task",
		"description": "Task Description",
	}, suite.owner)
	suite.Require().Equal(http.StatusCreated, w.Code)

	var response dto.TaskDTO
	decodeJSON(suite.T(), w, &response)
	suite.Equal("New Task", response.Title)
	suite.Equal(models.TaskStatusPending, response.Status)
	suite.Equal(models.TaskPriorityMedium, response.Priority)
	suite.Equal(suite.owner.ID, response.Owner)
	suite.Equal("owner", response.OwnerUsername)
	suite.Equal(uint64(1), response.Position)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_InvalidRequest() {
	w := suite.env.request(http.MethodPost, "/api/tasks", map[string]interface{}{
		"description": "no title",
	}, suite.owner)
	suite.Equal(http.StatusBadRequest, w.Code)

	var bindErr apierrors.APIError
	decodeJSON(suite.T(), w, &bindErr)
	suite.Equal("Invalid request body", bindErr.Message)
	suite.Contains(bindErr.Details, "Title")

	w = suite.env.request(http.MethodPost, "/api/tasks", map[string]interface{}{
		"title":    "New Task",
		"priority": "Urgent",
	}, suite.owner)
	suite.Equal(http.StatusBadRequest, w.Code)

	var apiErr apierrors.APIError
	decodeJSON(suite.T(), w, &apiErr)
	suite.Equal(apierrors.ErrCodeInvalidInput, apiErr.Code)
	suite.Equal("invalid priority", apiErr.Message)
}

func (suite *TaskHandlerTestSuite) TestPatchTask_Owner() {
	task := suite.env.createTask(suite.owner, "Old Title", 1)

	w := suite.env.request(http.MethodPatch, taskPath(task.ID), map[string]interface{}{
		"title":    "Updated Title",
		"priority": "High",
	}, suite.owner)
	suite.Require().Equal(http.StatusOK, w.Code)

	var response dto.TaskDTO
	decodeJSON(suite.T(), w, &response)
	suite.Equal("Updated Title", response.Title)
	suite.Equal(models.TaskPriorityHigh, response.Priority)
	suite.Equal("Test Description", response.Description)
}

func (suite *TaskHandlerTestSuite) TestPatchTask_Delegate() {
	task := suite.env.createTask(suite.owner, "Shared", 1)
	suite.env.assignRole(task, suite.delegate, suite.owner)

	w := suite.env.request(http.MethodPatch, taskPath(task.ID), map[string]interface{}{
		"status": "Completed",
	}, suite.delegate)
	suite.Require().Equal(http.StatusOK, w.Code)

	var response dto.TaskDTO
	decodeJSON(suite.T(), w, &response)
	suite.Equal(models.TaskStatusCompleted, response.Status)
	suite.NotNil(response.CurrentAssignment)

	w = suite.env.request(http.MethodPatch, taskPath(task.ID), map[string]interface{}{
		"title": "Taken over",
	}, suite.delegate)
	suite.Equal(http.StatusForbidden, w.Code)

	var apiErr apierrors.APIError
	decodeJSON(suite.T(), w, &apiErr)
	suite.Equal(apierrors.ErrCodeInsufficientPermissions, apiErr.Code)

	for _, body := range []map[string]interface{}{
		{"status": "Pending", "title": nil},
		{"status": "Pending", "owner": suite.delegate.ID},
	} {
		w = suite.env.request(http.MethodPatch, taskPath(task.ID), body, suite.delegate)
		suite.Equal(http.StatusForbidden, w.Code, body)
	}

	var stored models.Task
	suite.Require().NoError(suite.env.db.First(&stored, task.ID).Error)
	suite.Equal(models.TaskStatusCompleted, stored.Status)
}

func (suite *TaskHandlerTestSuite) TestReplaceTask() {
	task := suite.env.createTask(suite.owner, "Old Title", 1)

	w := suite.env.request(http.MethodPut, taskPath(task.ID), map[string]interface{}{
		"description": "missing title",
	}, suite.owner)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.env.request(http.MethodPut, taskPath(task.ID), map[string]interface{}{
		"title":  "Replaced",
		"status": "Completed",
	}, suite.owner)
	suite.Require().Equal(http.StatusOK, w.Code)

	var response dto.TaskDTO
	decodeJSON(suite.T(), w, &response)
	suite.Equal("Replaced", response.Title)
	suite.Equal("", response.Description)
	suite.Equal(models.TaskStatusCompleted, response.Status)
}

func (suite *TaskHandlerTestSuite) TestDeleteTask() {
	task := suite.env.createTask(suite.owner, "Doomed", 1)
	suite.env.assignRole(task, suite.delegate, suite.owner)

	w := suite.env.request(http.MethodDelete, taskPath(task.ID), nil, suite.delegate)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.env.request(http.MethodDelete, taskPath(task.ID), nil, suite.owner)
	suite.Equal(http.StatusNoContent, w.Code)

	w = suite.env.request(http.MethodGet, taskPath(task.ID), nil, suite.owner)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *TaskHandlerTestSuite) TestSummary() {
	suite.env.createTask(suite.owner, "a", 1, func(t *models.Task) {
		t.Status = models.TaskStatusCompleted
		t.Priority = models.TaskPriorityHigh
	})
	suite.env.createTask(suite.owner, "b", 2)
	suite.env.createTask(suite.stranger, "c", 1)

	w := suite.env.request(http.MethodGet, "/api/tasks/summary", nil, suite.owner)
	suite.Require().Equal(http.StatusOK, w.Code)

	var summary models.OwnerSummary
	decodeJSON(suite.T(), w, &summary)
	suite.Equal(models.OwnerSummary{TotalTasks: 2, Completed: 1, Pending: 1, HighPriority: 1}, summary)
}

func (suite *TaskHandlerTestSuite) TestReorderTasks() {
	first := suite.env.createTask(suite.owner, "first", 1)
	second := suite.env.createTask(suite.owner, "second", 2)
	third := suite.env.createTask(suite.owner, "third", 3)

	w := suite.env.request(http.MethodPost, "/api/tasks/reorder", map[string]interface{}{
		"task_ids": []uint64{first.ID, second.ID, third.ID},
	}, suite.owner)
	suite.Require().Equal(http.StatusOK, w.Code)

	var response struct {
		Message string        `json:"message"`
		Data    []dto.TaskDTO `json:"data"`
	}
	decodeJSON(suite.T(), w, &response)
	suite.Equal("Tasks reordered successfully", response.Message)
	suite.Require().Len(response.Data, 3)
	suite.Equal(first.ID, response.Data[0].ID)

	w = suite.env.request(http.MethodGet, "/api/tasks", nil, suite.owner)
	var list dto.TaskListResponse
	decodeJSON(suite.T(), w, &list)
	suite.Require().Len(list.Tasks, 3)
	suite.Equal([]uint64{first.ID, second.ID, third.ID},
		[]uint64{list.Tasks[0].ID, list.Tasks[1].ID, list.Tasks[2].ID})
}

func (suite *TaskHandlerTestSuite) TestReorderTasks_Rejected() {
	own := suite.env.createTask(suite.owner, "mine", 1)
	foreign := suite.env.createTask(suite.stranger, "theirs", 1)

	w := suite.env.request(http.MethodPost, "/api/tasks/reorder", map[string]interface{}{
		"task_ids": []uint64{own.ID, foreign.ID},
	}, suite.owner)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.env.request(http.MethodPost, "/api/tasks/reorder", map[string]interface{}{
		"task_ids": []uint64{},
	}, suite.owner)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.env.request(http.MethodPost, "/api/tasks/reorder", map[string]interface{}{
		"task_ids": []uint64{own.ID, own.ID},
	}, suite.owner)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestAdminOverview() {
	staff := suite.env.createUser("staff", func(u *models.User) { u.IsStaff = true })
	suite.env.createTask(suite.owner, "a", 1, func(t *models.Task) { t.Priority = models.TaskPriorityHigh })
	suite.env.createTask(suite.owner, "b", 2)
	suite.env.createTask(suite.stranger, "c", 1, func(t *models.Task) { t.Priority = models.TaskPriorityLow })

	w := suite.env.request(http.MethodGet, "/api/tasks/admin/overview", nil, suite.owner)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.env.request(http.MethodGet, "/api/tasks/admin/overview", nil, staff)
	suite.Require().Equal(http.StatusOK, w.Code)

	var overview dto.AdminOverviewDTO
	decodeJSON(suite.T(), w, &overview)
	suite.Equal(int64(3), overview.Totals.TotalTasks)
	suite.Equal(int64(1), overview.PriorityBreakdown["high"])
	suite.Equal(int64(1), overview.PriorityBreakdown["medium"])
	suite.Equal(int64(1), overview.PriorityBreakdown["low"])
	suite.Require().NotEmpty(overview.TopUsers)
	suite.Equal("owner", overview.TopUsers[0].Username)
	suite.Len(overview.RecentTasks, 3)
}

func (suite *TaskHandlerTestSuite) TestGenerateTasks_NotConfigured() {
	w := suite.env.request(http.MethodPost, "/api/tasks/generate", map[string]string{
		"text": "Plan the release",
	}, suite.owner)
	suite.Equal(http.StatusServiceUnavailable, w.Code)
}

func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
