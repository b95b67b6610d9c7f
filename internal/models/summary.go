package models

// OwnerSummary is derived from an owner's current tasks and never stored.
type OwnerSummary struct {
	TotalTasks   int64 `json:"total_tasks"`
	Completed    int64 `json:"completed"`
	Pending      int64 `json:"pending"`
	HighPriority int64 `json:"high_priority"`
}
