package domain

import (
	"errors"
	"strings"
)

// ErrInvalidPriority is returned when a priority value is not one of the known levels.
var ErrInvalidPriority = errors.New("invalid priority")

// Priority is the ordered importance level of a task.
type Priority string

// Priority levels, lowest first.
const (
	PriorityLow       Priority = "BAJA"
	PriorityMedium    Priority = "MEDIA"
	PriorityHigh      Priority = "ALTA"
	PriorityEssential Priority = "IMPRESCINDIBLE"
)

var priorityRank = map[Priority]int{
	PriorityLow:       1,
	PriorityMedium:    2,
	PriorityHigh:      3,
	PriorityEssential: 4,
}

// Priorities returns all priority levels in ascending order.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityEssential}
}

// ParsePriority converts a case-insensitive string into a Priority.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", ErrInvalidPriority
	}
	return p, nil
}

// Valid reports whether p is a known priority level.
func (p Priority) Valid() bool {
	_, ok := priorityRank[p]
	return ok
}

// Rank returns the position of p in the priority ordering (1 = lowest).
// Unknown values rank 0.
func (p Priority) Rank() int {
	return priorityRank[p]
}

// Less reports whether p orders strictly before other.
func (p Priority) Less(other Priority) bool {
	return p.Rank() < other.Rank()
}
