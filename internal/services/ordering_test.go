package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-tracker-api/internal/models"
)

func TestValidateReorderIDs(t *testing.T) {
	tests := []struct {
		name    string
		ids     []uint64
		wantErr error
	}{
		{"valid", []uint64{3, 1, 2}, nil},
		{"empty", nil, ErrEmptyReorder},
		{"zero id", []uint64{1, 0}, ErrInvalidReorderID},
		{"duplicate", []uint64{4, 5, 4}, ErrDuplicateReorderID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReorderIDs(tt.ids)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestPlanReorder(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, Position: 5},
		{ID: 2, Position: 3},
		{ID: 3, Position: 9},
	}

	updates, err := PlanReorder(tasks, []uint64{2, 1, 3})
	require.NoError(t, err)

	// Sorted positions are 9, 5, 3; task 1 keeps 5.
	assert.Equal(t, []PositionUpdate{
		{TaskID: 2, Position: 9},
		{TaskID: 3, Position: 3},
	}, updates)
}

func TestPlanReorder_AlreadyOrdered(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, Position: 2},
		{ID: 2, Position: 1},
	}

	updates, err := PlanReorder(tasks, []uint64{1, 2})
	require.NoError(t, err)
	assert.Empty(t, updates)
}

func TestPlanReorder_PreservesPositionSet(t *testing.T) {
	tasks := []models.Task{
		{ID: 10, Position: 4},
		{ID: 11, Position: 8},
		{ID: 12, Position: 6},
		{ID: 13, Position: 1},
	}
	ids := []uint64{13, 12, 11, 10}

	updates, err := PlanReorder(tasks, ids)
	require.NoError(t, err)

	final := map[uint64]uint64{}
	for _, task := range tasks {
		final[task.ID] = task.Position
	}
	for _, u := range updates {
		final[u.TaskID] = u.Position
	}

	assert.Equal(t, map[uint64]uint64{13: 8, 12: 6, 11: 4, 10: 1}, final)
}

func TestPlanReorder_MissingTask(t *testing.T) {
	tasks := []models.Task{{ID: 1, Position: 1}}

	_, err := PlanReorder(tasks, []uint64{1, 2})
	assert.ErrorIs(t, err, ErrReorderTaskMissing)

	_, err = PlanReorder([]models.Task{{ID: 1}, {ID: 3}}, []uint64{1, 2})
	assert.ErrorIs(t, err, ErrReorderTaskMissing)
}
