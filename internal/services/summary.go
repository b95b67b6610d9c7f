package services

import (
	"fmt"

	"github.com/yukikurage/task-tracker-api/internal/constants"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
)

// ComputeSummary counts an owner's tasks. It is always recomputed from the
// full task set rather than patched incrementally.
func ComputeSummary(tasks []models.Task) models.OwnerSummary {
	var summary models.OwnerSummary
	for _, task := range tasks {
		summary.TotalTasks++
		switch task.Status {
		case models.TaskStatusCompleted:
			summary.Completed++
		case models.TaskStatusPending:
			summary.Pending++
		}
		if task.Priority == models.TaskPriorityHigh {
			summary.HighPriority++
		}
	}
	return summary
}

// AdminOverview aggregates every owner's tasks for staff users.
type AdminOverview struct {
	Totals            models.OwnerSummary
	PriorityBreakdown map[models.TaskPriority]int64
	TopUsers          []repository.OwnerTaskStats
	RecentTasks       []models.Task
}

// SummaryService answers aggregate queries.
type SummaryService struct {
	store repository.Store
}

// NewSummaryService creates a new SummaryService
func NewSummaryService(store repository.Store) *SummaryService {
	return &SummaryService{store: store}
}

// OwnerSummary recomputes the summary for one owner
func (s *SummaryService) OwnerSummary(ownerID uint64) (models.OwnerSummary, error) {
	tasks, err := s.store.Tasks().ListByOwner(ownerID)
	if err != nil {
		return models.OwnerSummary{}, fmt.Errorf("failed to load tasks for summary: %w", err)
	}
	return ComputeSummary(tasks), nil
}

// AdminOverview builds the staff overview. Callers must be staff or superuser.
func (s *SummaryService) AdminOverview(principal Principal) (*AdminOverview, error) {
	if !principal.IsAdmin() {
		return nil, fmt.Errorf("%w: staff access required", ErrForbidden)
	}

	tasks := s.store.Tasks()

	totals, err := tasks.Totals()
	if err != nil {
		return nil, fmt.Errorf("failed to compute totals: %w", err)
	}

	byPriority, err := tasks.CountByPriority()
	if err != nil {
		return nil, fmt.Errorf("failed to count priorities: %w", err)
	}

	topUsers, err := tasks.TopOwners(constants.AdminOverviewLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank owners: %w", err)
	}

	recent, err := tasks.Recent(constants.AdminOverviewLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent tasks: %w", err)
	}

	return &AdminOverview{
		Totals:            totals,
		PriorityBreakdown: byPriority,
		TopUsers:          topUsers,
		RecentTasks:       recent,
	}, nil
}
