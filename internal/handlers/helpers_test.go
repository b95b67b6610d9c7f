package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-tracker-api/internal/constants"
	"github.com/yukikurage/task-tracker-api/internal/database"
	"github.com/yukikurage/task-tracker-api/internal/middleware"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/realtime"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv is a fully wired API on an in-memory database.
type testEnv struct {
	t      *testing.T
	db     *gorm.DB
	hub    *realtime.Hub
	router *gin.Engine

	authService  *services.AuthService
	tokenService *services.TokenService
	taskService  *services.TaskService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(database.Models()...))
	require.NoError(t, database.AddIndexes(db))

	store := repository.NewStore(db)
	hub := realtime.NewHub(realtime.DefaultBufferSize)
	authorizer := services.NewAuthorizer()

	env := &testEnv{
		t:            t,
		db:           db,
		hub:          hub,
		authService:  services.NewAuthService(store.Users()),
		tokenService: services.NewTokenService("test-secret", time.Hour),
		taskService:  services.NewTaskService(store, authorizer, hub, nil),
	}
	roleService := services.NewRoleService(store, authorizer)
	summaryService := services.NewSummaryService(store)

	authHandler := NewAuthHandler(env.authService, env.tokenService)
	taskHandler := NewTaskHandler(env.taskService, roleService, summaryService)
	roleHandler := NewRoleHandler(roleService)
	auditHandler := NewAuditHandler(services.NewAuditService(store))
	realtimeHandler := NewRealtimeHandler(hub, env.tokenService, env.authService)

	requireAuth := middleware.RequireAuth(env.tokenService)
	loadPrincipal := middleware.LoadPrincipal(env.authService)
	requireTask := middleware.RequireTaskAccess(env.taskService)

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	r.GET("/ws/tasks", realtimeHandler.Connect)

	auth := r.Group("/api/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/me", requireAuth, authHandler.GetCurrentUser)

	tasks := r.Group("/api/tasks", requireAuth, loadPrincipal)
	tasks.GET("", taskHandler.ListTasks)
	tasks.POST("", taskHandler.CreateTask)
	tasks.GET("/summary", taskHandler.Summary)
	tasks.POST("/reorder", taskHandler.ReorderTasks)
	tasks.GET("/admin/overview", taskHandler.AdminOverview)
	tasks.POST("/generate", taskHandler.GenerateTasks)
	tasks.GET("/:id", requireTask, taskHandler.GetTask)
	tasks.PATCH("/:id", requireTask, taskHandler.PatchTask)
	tasks.PUT("/:id", requireTask, taskHandler.ReplaceTask)
	tasks.DELETE("/:id", requireTask, taskHandler.DeleteTask)
	tasks.GET("/:id/roles", requireTask, roleHandler.ListRoles)
	tasks.POST("/:id/roles", requireTask, roleHandler.AssignRole)
	tasks.GET("/:id/roles/:role_id", requireTask, roleHandler.GetRole)
	tasks.PATCH("/:id/roles/:role_id", requireTask, roleHandler.UpdateRole)
	tasks.DELETE("/:id/roles/:role_id", requireTask, roleHandler.RevokeRole)

	logs := r.Group("/api/logs", requireAuth, loadPrincipal)
	logs.GET("", auditHandler.ListLogs)
	logs.GET("/:id", auditHandler.GetLog)

	env.router = r
	return env
}

func (env *testEnv) createUser(username string, mutate ...func(*models.User)) *models.User {
	env.t.Helper()

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashedpassword",
	}
	for _, m := range mutate {
		m(user)
	}
	require.NoError(env.t, env.db.Create(user).Error)
	return user
}

func (env *testEnv) createTask(owner *models.User, title string, position uint64, mutate ...func(*models.Task)) *models.Task {
	env.t.Helper()

	task := &models.Task{
		Title:       title,
		Description: "Test Description",
		Status:      models.TaskStatusPending,
		Priority:    models.TaskPriorityMedium,
		OwnerID:     owner.ID,
		Position:    position,
	}
	for _, m := range mutate {
		m(task)
	}
	require.NoError(env.t, env.db.Omit("Owner").Create(task).Error)
	return task
}

func (env *testEnv) assignRole(task *models.Task, user, by *models.User) *models.TaskRoleAssignment {
	env.t.Helper()

	assignment := &models.TaskRoleAssignment{
		TaskID:       task.ID,
		UserID:       user.ID,
		AssignedRole: models.RoleMember,
		AssignedByID: by.ID,
		IsActive:     true,
	}
	require.NoError(env.t, env.db.Omit("Task", "User", "AssignedBy").Create(assignment).Error)
	return assignment
}

func (env *testEnv) token(user *models.User) string {
	env.t.Helper()

	token, err := env.tokenService.IssueToken(user.ID)
	require.NoError(env.t, err)
	return token
}

// request performs an API call as user, or anonymously when user is nil.
func (env *testEnv) request(method, path string, body interface{}, user *models.User) *httptest.ResponseRecorder {
	env.t.Helper()

	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(env.t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+env.token(user))
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (env *testEnv) requestWithHeader(method, path, authorization string) *httptest.ResponseRecorder {
	env.t.Helper()

	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", authorization)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}
