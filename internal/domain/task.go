package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Task field limits.
const (
	TaskTitleMinLength       = 3
	TaskTitleMaxLength       = 100
	TaskDescriptionMaxLength = 1000
)

// Task-specific validation errors. Each one names a single rule and is
// wrapped in a *ValidationError when returned from Validate.
var (
	ErrTaskIDEmpty              = errors.New("task ID cannot be empty")
	ErrTaskOwnerEmpty           = errors.New("task owner cannot be empty")
	ErrTaskTitleBlank           = errors.New("task title cannot be blank")
	ErrTaskTitleLength          = errors.New("task title must be between 3 and 100 characters")
	ErrTaskDurationNotPositive  = errors.New("task duration must be greater than 0")
	ErrTaskDescriptionTooLong   = errors.New("task description cannot exceed 1000 characters")
	ErrTaskCreatedAtEmpty       = errors.New("task creation time cannot be empty")
	ErrCompletionDateMissing    = errors.New("a completed task must include its completion date")
	ErrCompletionDateUnexpected = errors.New("an open task cannot have a completion date")
	ErrCompletionBeforeCreation = errors.New("completion date cannot precede the creation date")
	ErrDueDateInPast            = errors.New("due date cannot be in the past")
)

// Task is a unit of work owned by a single user.
type Task struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	DurationMinutes int        `json:"duration_minutes"`
	Priority        Priority   `json:"priority"`
	CreatedAt       time.Time  `json:"created_at"`
	DueAt           *time.Time `json:"due_at,omitempty"`
	Description     string     `json:"description,omitempty"`
	CategoryID      *uuid.UUID `json:"category_id,omitempty"`
	Completed       bool       `json:"completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	OwnerID         uuid.UUID  `json:"owner_id"`
	CompletedByID   *uuid.UUID `json:"completed_by_id,omitempty"`
}

// IsOwnedBy reports whether userID is the task's owner of record.
func (t *Task) IsOwnedBy(userID uuid.UUID) bool {
	return t.OwnerID == userID
}

// Status derives the task's status at instant now.
func (t *Task) Status(now time.Time) Status {
	return DeriveStatus(t, now)
}

// Complete marks the task completed at the given instant by the given user.
func (t *Task) Complete(by uuid.UUID, at time.Time) {
	t.Completed = true
	t.CompletedAt = &at
	t.CompletedByID = &by
}

// Validate checks field constraints and the write-time coherence rules
// against the instant now. It returns the first violated rule as a
// *ValidationError.
func (t *Task) Validate(now time.Time) error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrTaskIDEmpty)
	}

	if t.OwnerID == uuid.Nil {
		return NewValidationError("owner_id", "cannot be empty", ErrTaskOwnerEmpty)
	}

	if strings.TrimSpace(t.Title) == "" {
		return NewValidationError("title", "cannot be blank", ErrTaskTitleBlank)
	}

	titleLen := utf8.RuneCountInString(t.Title)
	if titleLen < TaskTitleMinLength || titleLen > TaskTitleMaxLength {
		return NewValidationError("title", "must be between 3 and 100 characters", ErrTaskTitleLength)
	}

	if t.DurationMinutes <= 0 {
		return NewValidationError("duration_minutes", "must be greater than 0", ErrTaskDurationNotPositive)
	}

	if !t.Priority.Valid() {
		return NewValidationError("priority", "must be one of BAJA, MEDIA, ALTA, IMPRESCINDIBLE", ErrInvalidPriority)
	}

	if utf8.RuneCountInString(t.Description) > TaskDescriptionMaxLength {
		return NewValidationError("description", "cannot exceed 1000 characters", ErrTaskDescriptionTooLong)
	}

	if t.CreatedAt.IsZero() {
		return NewValidationError("created_at", "cannot be empty", ErrTaskCreatedAtEmpty)
	}

	if t.Completed && t.CompletedAt == nil {
		return NewValidationError("completed_at", "is required when the task is completed", ErrCompletionDateMissing)
	}

	if !t.Completed && t.CompletedAt != nil {
		return NewValidationError("completed_at", "must be empty while the task is open", ErrCompletionDateUnexpected)
	}

	if t.CompletedAt != nil && t.CompletedAt.Before(t.CreatedAt) {
		return NewValidationError("completed_at", "cannot precede the creation date", ErrCompletionBeforeCreation)
	}

	if t.DueAt != nil && t.DueAt.Before(now) {
		return NewValidationError("due_at", "cannot be in the past", ErrDueDateInPast)
	}

	return nil
}
