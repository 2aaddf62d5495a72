package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tareas-api/internal/domain"
	"github.com/phrazzld/tareas-api/internal/platform/logger"
	"github.com/phrazzld/tareas-api/internal/store"
)

// TaskInput carries the client-controlled fields of a task. Update applies
// all of them (full replacement); the owner and creation time are never
// taken from input.
type TaskInput struct {
	Title           string
	DurationMinutes int
	Priority        domain.Priority
	DueAt           *time.Time
	Description     string
	CategoryID      *uuid.UUID
	Completed       bool
	CompletedAt     *time.Time
}

// TaskFilter narrows List. Zero-valued fields do not filter.
type TaskFilter struct {
	Priority    *domain.Priority
	MaxDuration *int
	Keyword     string
	CategoryID  *uuid.UUID
	Status      *domain.Status
	SortBy      store.SortField
	// At is the instant Status is evaluated at. Zero means the service clock.
	At time.Time
}

// TaskService provides the ownership-scoped task operations. Every method
// takes the authenticated caller's user ID explicitly.
type TaskService interface {
	Create(ctx context.Context, callerID uuid.UUID, in TaskInput) (*domain.Task, error)
	GetByID(ctx context.Context, callerID, taskID uuid.UUID) (*domain.Task, error)
	Update(ctx context.Context, callerID, taskID uuid.UUID, in TaskInput) (*domain.Task, error)
	Delete(ctx context.Context, callerID, taskID uuid.UUID) error
	MarkCompleted(ctx context.Context, callerID, taskID uuid.UUID) (*domain.Task, error)
	Status(ctx context.Context, callerID, taskID uuid.UUID) (domain.Status, error)

	List(ctx context.Context, callerID uuid.UUID, f TaskFilter) ([]*domain.Task, error)
	ListSorted(ctx context.Context, callerID uuid.UUID, by store.SortField) ([]*domain.Task, error)
	FilterByPriority(ctx context.Context, callerID uuid.UUID, p domain.Priority) ([]*domain.Task, error)
	FilterByMaxDuration(ctx context.Context, callerID uuid.UUID, maxMinutes int) ([]*domain.Task, error)
	FilterByKeyword(ctx context.Context, callerID uuid.UUID, keyword string) ([]*domain.Task, error)
	FilterByCategory(ctx context.Context, callerID, categoryID uuid.UUID) ([]*domain.Task, error)
	FilterByStatus(ctx context.Context, callerID uuid.UUID, st domain.Status) ([]*domain.Task, error)
	DueToday(ctx context.Context, callerID uuid.UUID) ([]*domain.Task, error)

	// Now is the service clock, used by callers to render derived status.
	Now() time.Time
}

type taskServiceImpl struct {
	stores   store.Stores
	logger   *slog.Logger
	timeFunc func() time.Time
	location *time.Location
}

// NewTaskService creates a TaskService.
// It returns an error if any of the required stores are nil.
func NewTaskService(stores store.Stores, logger *slog.Logger, opts ...Option) (TaskService, error) {
	if stores.Users == nil {
		return nil, domain.NewValidationError("stores.Users", "cannot be nil", domain.ErrValidation)
	}
	if stores.Categories == nil {
		return nil, domain.NewValidationError("stores.Categories", "cannot be nil", domain.ErrValidation)
	}
	if stores.Tasks == nil {
		return nil, domain.NewValidationError("stores.Tasks", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	o := applyOptions(opts)
	return &taskServiceImpl{
		stores:   stores,
		logger:   logger.With(slog.String("component", "task_service")),
		timeFunc: o.timeFunc,
		location: o.location,
	}, nil
}

func (s *taskServiceImpl) Now() time.Time {
	return s.timeFunc()
}

// Create implements TaskService.Create.
func (s *taskServiceImpl) Create(
	ctx context.Context,
	callerID uuid.UUID,
	in TaskInput,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.stores.Users.GetByID(ctx, callerID); err != nil {
		return nil, fmt.Errorf("failed to resolve task owner: %w", err)
	}

	if err := s.checkCategory(ctx, callerID, in.CategoryID); err != nil {
		return nil, err
	}

	now := s.timeFunc()
	task := &domain.Task{
		ID:        uuid.New(),
		OwnerID:   callerID,
		CreatedAt: now,
	}
	applyInput(task, in, callerID)

	if err := task.Validate(now); err != nil {
		log.Debug("task failed validation", slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.stores.Tasks.Create(ctx, task); err != nil {
		log.Error("failed to save task",
			slog.String("error", err.Error()),
			slog.String("owner_id", callerID.String()))
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", callerID.String()))
	return task, nil
}

// GetByID implements TaskService.GetByID.
func (s *taskServiceImpl) GetByID(ctx context.Context, callerID, taskID uuid.UUID) (*domain.Task, error) {
	return s.getOwned(ctx, callerID, taskID)
}

// Update implements TaskService.Update.
func (s *taskServiceImpl) Update(
	ctx context.Context,
	callerID, taskID uuid.UUID,
	in TaskInput,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.getOwned(ctx, callerID, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.checkCategory(ctx, callerID, in.CategoryID); err != nil {
		return nil, err
	}

	applyInput(task, in, callerID)

	if err := task.Validate(s.timeFunc()); err != nil {
		log.Debug("task update failed validation",
			slog.String("task_id", taskID.String()),
			slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.stores.Tasks.Update(ctx, task); err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

// Delete implements TaskService.Delete.
func (s *taskServiceImpl) Delete(ctx context.Context, callerID, taskID uuid.UUID) error {
	if _, err := s.getOwned(ctx, callerID, taskID); err != nil {
		return err
	}

	if err := s.stores.Tasks.Delete(ctx, taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("task deleted",
		slog.String("task_id", taskID.String()))
	return nil
}

// MarkCompleted implements TaskService.MarkCompleted. The due date is not
// re-checked: completing an overdue task is allowed.
func (s *taskServiceImpl) MarkCompleted(ctx context.Context, callerID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.getOwned(ctx, callerID, taskID)
	if err != nil {
		return nil, err
	}

	task.Complete(callerID, s.timeFunc())

	if err := s.stores.Tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}

	return task, nil
}

// Status implements TaskService.Status.
func (s *taskServiceImpl) Status(ctx context.Context, callerID, taskID uuid.UUID) (domain.Status, error) {
	task, err := s.getOwned(ctx, callerID, taskID)
	if err != nil {
		return "", err
	}
	return task.Status(s.timeFunc()), nil
}

// List implements TaskService.List. Status filtering happens after the
// store query because status is derived from the current time.
func (s *taskServiceImpl) List(ctx context.Context, callerID uuid.UUID, f TaskFilter) ([]*domain.Task, error) {
	q := store.TaskQuery{
		Priority:    f.Priority,
		MaxDuration: f.MaxDuration,
		Keyword:     normalizeKeyword(f.Keyword),
		CategoryID:  f.CategoryID,
		SortBy:      f.SortBy,
	}
	now := f.At
	if now.IsZero() {
		now = s.timeFunc()
	}
	return s.find(ctx, callerID, q, f.Status, now)
}

func (s *taskServiceImpl) ListSorted(
	ctx context.Context,
	callerID uuid.UUID,
	by store.SortField,
) ([]*domain.Task, error) {
	return s.List(ctx, callerID, TaskFilter{SortBy: by})
}

func (s *taskServiceImpl) FilterByPriority(
	ctx context.Context,
	callerID uuid.UUID,
	p domain.Priority,
) ([]*domain.Task, error) {
	if !p.Valid() {
		return nil, domain.NewValidationError("priority", "is not a known priority", domain.ErrInvalidPriority)
	}
	return s.List(ctx, callerID, TaskFilter{Priority: &p})
}

func (s *taskServiceImpl) FilterByMaxDuration(
	ctx context.Context,
	callerID uuid.UUID,
	maxMinutes int,
) ([]*domain.Task, error) {
	if maxMinutes <= 0 {
		return nil, domain.NewValidationError("max_duration", "must be greater than 0", domain.ErrInvalidFormat)
	}
	return s.List(ctx, callerID, TaskFilter{MaxDuration: &maxMinutes})
}

// FilterByKeyword matches title or description case-insensitively. A
// hyphen in the keyword matches a space.
func (s *taskServiceImpl) FilterByKeyword(
	ctx context.Context,
	callerID uuid.UUID,
	keyword string,
) ([]*domain.Task, error) {
	return s.List(ctx, callerID, TaskFilter{Keyword: keyword})
}

func (s *taskServiceImpl) FilterByCategory(
	ctx context.Context,
	callerID, categoryID uuid.UUID,
) ([]*domain.Task, error) {
	return s.List(ctx, callerID, TaskFilter{CategoryID: &categoryID})
}

func (s *taskServiceImpl) FilterByStatus(
	ctx context.Context,
	callerID uuid.UUID,
	st domain.Status,
) ([]*domain.Task, error) {
	return s.List(ctx, callerID, TaskFilter{Status: &st})
}

// DueToday returns tasks due within the current calendar day of the
// configured location, [start of today, start of tomorrow).
func (s *taskServiceImpl) DueToday(ctx context.Context, callerID uuid.UUID) ([]*domain.Task, error) {
	now := s.timeFunc()
	start, end := dayBounds(now, s.location)
	return s.find(ctx, callerID, store.TaskQuery{DueFrom: &start, DueBefore: &end, SortBy: store.SortByDueDate}, nil, now)
}

func (s *taskServiceImpl) find(
	ctx context.Context,
	callerID uuid.UUID,
	q store.TaskQuery,
	status *domain.Status,
	now time.Time,
) ([]*domain.Task, error) {
	tasks, err := s.stores.Tasks.Find(ctx, callerID, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	if status == nil {
		return tasks, nil
	}

	filtered := make([]*domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status(now) == *status {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

// getOwned loads a task and enforces that callerID owns it. A missing task
// is NotFound; somebody else's task is ErrNotOwned.
func (s *taskServiceImpl) getOwned(ctx context.Context, callerID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.stores.Tasks.GetByID(ctx, taskID)
	if err != nil {
		if !errors.Is(err, store.ErrTaskNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to load task",
				slog.String("error", err.Error()),
				slog.String("task_id", taskID.String()))
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	if !task.IsOwnedBy(callerID) {
		logger.FromContextOrDefault(ctx, s.logger).Warn("task access by non-owner",
			slog.String("task_id", taskID.String()),
			slog.String("caller_id", callerID.String()))
		return nil, fmt.Errorf("task %s: %w", taskID, ErrNotOwned)
	}

	return task, nil
}

// checkCategory verifies that a referenced category exists and that the
// caller may use it: their own categories and shared base categories.
func (s *taskServiceImpl) checkCategory(ctx context.Context, callerID uuid.UUID, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}

	category, err := s.stores.Categories.GetByID(ctx, *categoryID)
	if err != nil {
		return fmt.Errorf("failed to resolve category: %w", err)
	}

	if !category.IsShared() && !category.IsOwnedBy(callerID) {
		return fmt.Errorf("category %s: %w", *categoryID, ErrNotOwned)
	}

	return nil
}

// applyInput copies the client-controlled fields onto task and keeps the
// completed-by reference in step with the completion flag.
func applyInput(task *domain.Task, in TaskInput, callerID uuid.UUID) {
	task.Title = strings.TrimSpace(in.Title)
	task.DurationMinutes = in.DurationMinutes
	task.Priority = in.Priority
	task.DueAt = in.DueAt
	task.Description = in.Description
	task.CategoryID = in.CategoryID
	task.Completed = in.Completed
	task.CompletedAt = in.CompletedAt

	switch {
	case !task.Completed:
		task.CompletedByID = nil
	case task.CompletedByID == nil:
		by := callerID
		task.CompletedByID = &by
	}
}

func normalizeKeyword(keyword string) string {
	return strings.TrimSpace(strings.ReplaceAll(keyword, "-", " "))
}

func dayBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
