package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"
)

// AddIndexes adds composite indexes that the struct tags cannot express
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Owner task list, ordered by manual position
		{"tasks", "idx_tasks_owner_position", "owner_id, position"},

		// Active role lookup per (task, user)
		{"task_role_assignments", "idx_task_roles_task_user_active", "task_id, user_id, is_active"},

		// Audit feed per user, newest first
		{"audit_logs", "idx_audit_logs_user_timestamp", "user_id, timestamp"},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.table, idx.name) {
			log.Printf("Index %s already exists, skipping", idx.name)
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Printf("Created index %s on %s(%s)", idx.name, idx.table, idx.columns)
	}

	return nil
}
