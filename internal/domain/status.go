package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidStatus is returned when a status value is not one of the known values.
var ErrInvalidStatus = errors.New("invalid status")

// Status is the lifecycle position of a task. It is never persisted; it is
// derived from the task's date and completion fields on every read.
type Status string

// Task status values.
const (
	StatusNoDueDate     Status = "SIN_FECHA"
	StatusInProgress    Status = "EN_CURSO"
	StatusOverdue       Status = "VENCIDA"
	StatusCompleted     Status = "COMPLETADA"
	StatusCompletedLate Status = "COMPLETADA_CON_RETRASO"
)

// Statuses returns every status value.
func Statuses() []Status {
	return []Status{
		StatusNoDueDate,
		StatusInProgress,
		StatusOverdue,
		StatusCompleted,
		StatusCompletedLate,
	}
}

// ParseStatus converts a case-insensitive string into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Statuses() {
		if st == known {
			return st, nil
		}
	}
	return "", ErrInvalidStatus
}

// DeriveStatus computes the status of t at instant now.
//
// Tasks without a due date are always StatusNoDueDate. Completed tasks are
// classified by comparing the completion time against the creation time
// (not the due date); open tasks become overdue once now passes the due date.
func DeriveStatus(t *Task, now time.Time) Status {
	if t.DueAt == nil {
		return StatusNoDueDate
	}

	if t.Completed {
		if t.CompletedAt != nil && t.CompletedAt.After(t.CreatedAt) {
			return StatusCompletedLate
		}
		return StatusCompleted
	}

	if now.After(*t.DueAt) {
		return StatusOverdue
	}
	return StatusInProgress
}
