package constants

import "time"

// Context and session keys
const (
	ContextKeyUserID    = "user_id"
	ContextKeyPrincipal = "principal"
	ContextKeyTask      = "task"
	SessionCookieName   = "task_session"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Auth
const (
	MinPasswordLength = 8
	DefaultTokenTTL   = 24 * time.Hour
)

// Tasks
const (
	MaxTitleLength      = 255
	MaxAIGeneratedTasks = 20
	AdminOverviewLimit  = 5
)
