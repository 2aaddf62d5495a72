package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tareas-api/internal/domain"
)

// SortField selects the ordering of a task listing.
type SortField string

// Supported sort fields. SortDefault orders by creation time.
const (
	SortDefault    SortField = ""
	SortByTitle    SortField = "title"
	SortByDuration SortField = "duration"
	SortByPriority SortField = "priority"
	SortByDueDate  SortField = "due_date"
)

// ParseSortField validates a client-supplied sort key.
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(s); f {
	case SortDefault, SortByTitle, SortByDuration, SortByPriority, SortByDueDate:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown sort field %q", ErrInvalidEntity, s)
	}
}

// TaskQuery narrows a task listing. Zero-valued fields do not filter.
// The owner is never part of the query; it is a required argument of
// TaskStore.Find so that no listing can escape its owner.
type TaskQuery struct {
	Priority    *domain.Priority
	MaxDuration *int
	// Keyword matches title or description, case-insensitively.
	Keyword    string
	CategoryID *uuid.UUID
	// DueFrom is inclusive, DueBefore exclusive.
	DueFrom   *time.Time
	DueBefore *time.Time
	SortBy    SortField
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by ID regardless of owner.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update replaces all mutable fields of an existing task. The owner and
	// creation time are never written.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// Find lists the tasks of ownerID that match q.
	// Returns ErrInvalidEntity when ownerID is uuid.Nil.
	Find(ctx context.Context, ownerID uuid.UUID, q TaskQuery) ([]*domain.Task, error)

	// DetachCategory clears the category of every task that references
	// categoryID and returns how many tasks were changed.
	DetachCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)
}
