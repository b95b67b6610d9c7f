package services

import (
	"sort"

	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
)

// PositionUpdate moves one task to a new position.
type PositionUpdate struct {
	TaskID   uint64
	Position uint64
}

// NextPosition returns the position for a new task of the owner: one above
// the current maximum, or 1 for the first task. Two concurrent creates may
// both see the same maximum; the resulting duplicate position is tolerated.
func NextPosition(repo repository.TaskRepository, ownerID uint64) (uint64, error) {
	maxPosition, err := repo.MaxPosition(ownerID)
	if err != nil {
		return 0, err
	}
	return maxPosition + 1, nil
}

// ValidateReorderIDs rejects empty lists, non-positive ids and duplicates.
func ValidateReorderIDs(ids []uint64) error {
	if len(ids) == 0 {
		return ErrEmptyReorder
	}

	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			return ErrInvalidReorderID
		}
		if _, exists := seen[id]; exists {
			return ErrDuplicateReorderID
		}
		seen[id] = struct{}{}
	}
	return nil
}

// PlanReorder permutes the positions held by tasks so that ids[0] gets the
// highest of them, ids[1] the next, and so on. tasks must be exactly the
// tasks named by ids. Only tasks whose position changes are returned.
func PlanReorder(tasks []models.Task, ids []uint64) ([]PositionUpdate, error) {
	if len(tasks) != len(ids) {
		return nil, ErrReorderTaskMissing
	}

	byID := make(map[uint64]models.Task, len(tasks))
	positions := make([]uint64, 0, len(tasks))
	for _, task := range tasks {
		byID[task.ID] = task
		positions = append(positions, task.Position)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i] > positions[j] })

	var updates []PositionUpdate
	for i, id := range ids {
		task, ok := byID[id]
		if !ok {
			return nil, ErrReorderTaskMissing
		}
		if task.Position != positions[i] {
			updates = append(updates, PositionUpdate{TaskID: id, Position: positions[i]})
		}
	}
	return updates, nil
}
