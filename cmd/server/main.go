package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/yukikurage/task-tracker-api/internal/config"
	"github.com/yukikurage/task-tracker-api/internal/constants"
	"github.com/yukikurage/task-tracker-api/internal/database"
	"github.com/yukikurage/task-tracker-api/internal/handlers"
	"github.com/yukikurage/task-tracker-api/internal/middleware"
	"github.com/yukikurage/task-tracker-api/internal/realtime"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/services"
)

var rootCmd = &cobra.Command{
	Use:   "task-tracker",
	Short: "Multi-tenant task tracker API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func main() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(grantCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := database.Connect(cfg); err != nil {
				return err
			}
			return database.Migrate()
		},
	}
}

func runServe() error {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	store, err := newSessionStore(cfg)
	if err != nil {
		return err
	}

	r := gin.Default()
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	hub := realtime.NewHub(cfg.RealtimeBuffer)
	registerRoutes(r, cfg, repository.NewStore(database.GetDB()), hub)

	// Start server
	log.Printf("Server starting on %s", cfg.ServerAddr)
	return r.Run(cfg.ServerAddr)
}

// newSessionStore builds the Redis session store, or a signed cookie store
// when SESSION_STORE=cookie.
func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	switch cfg.SessionStore {
	case "cookie":
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	case "redis", "":
		redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
		rs, err := redisStore.NewStore(
			10,                        // Redis pool size
			"tcp",                     // network type
			redisAddr,                 // Redis address from config
			"",                        // password (empty = no password)
			[]byte(cfg.SessionSecret), // authentication key
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}
		store = rs
	default:
		return nil, fmt.Errorf("unsupported session store %q", cfg.SessionStore)
	}

	// Configure session options based on environment
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.IsProduction(), // true in production (HTTPS), false in development
		SameSite: 2,                  // SameSite=Lax (1=Strict, 2=Lax, 3=None)
	})
	return store, nil
}

func registerRoutes(r *gin.Engine, cfg *config.Config, store repository.Store, hub *realtime.Hub) {
	// Initialize AI service
	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	}

	authorizer := services.NewAuthorizer()
	authService := services.NewAuthService(store.Users())
	tokenService := services.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	taskService := services.NewTaskService(store, authorizer, hub, aiService)
	roleService := services.NewRoleService(store, authorizer)
	summaryService := services.NewSummaryService(store)
	auditService := services.NewAuditService(store)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, tokenService)
	taskHandler := handlers.NewTaskHandler(taskService, roleService, summaryService)
	roleHandler := handlers.NewRoleHandler(roleService)
	auditHandler := handlers.NewAuditHandler(auditService)
	realtimeHandler := handlers.NewRealtimeHandler(hub, tokenService, authService)

	requireAuth := middleware.RequireAuth(tokenService)
	loadPrincipal := middleware.LoadPrincipal(authService)
	requireTask := middleware.RequireTaskAccess(taskService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Task Tracker API is running",
		})
	})

	r.GET("/ws/tasks", realtimeHandler.Connect)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth, loadPrincipal)
		{
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
		}

		// Audit routes (protected, read-only)
		logs := api.Group("/logs")
		logs.Use(requireAuth, loadPrincipal)
		{
			logs.GET("", auditHandler.ListLogs)
			logs.GET("/:id", auditHandler.GetLog)
		}
	}
}
