package services

import "github.com/yukikurage/task-tracker-api/internal/models"

// Tracked task fields, in the order changes are reported.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldStatus      = "status"
	FieldPriority    = "priority"
)

// FieldChange is one field's old and new value.
type FieldChange struct {
	Field string
	Old   string
	New   string
}

// ChangeSet is the ordered list of field changes between two task states.
type ChangeSet []FieldChange

// DetectChanges compares the tracked fields of prev and next by value.
func DetectChanges(prev, next models.Task) ChangeSet {
	var changes ChangeSet
	add := func(field, oldValue, newValue string) {
		if oldValue != newValue {
			changes = append(changes, FieldChange{Field: field, Old: oldValue, New: newValue})
		}
	}

	add(FieldTitle, prev.Title, next.Title)
	add(FieldDescription, prev.Description, next.Description)
	add(FieldStatus, string(prev.Status), string(next.Status))
	add(FieldPriority, string(prev.Priority), string(next.Priority))

	return changes
}

// Empty reports whether no tracked field changed.
func (c ChangeSet) Empty() bool {
	return len(c) == 0
}

// Get returns the change for field, if any.
func (c ChangeSet) Get(field string) (FieldChange, bool) {
	for _, change := range c {
		if change.Field == field {
			return change, true
		}
	}
	return FieldChange{}, false
}

// Columns maps changed fields to their new values for a column update.
func (c ChangeSet) Columns() map[string]interface{} {
	columns := make(map[string]interface{}, len(c))
	for _, change := range c {
		columns[change.Field] = change.New
	}
	return columns
}
